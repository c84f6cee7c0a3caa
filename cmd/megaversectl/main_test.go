package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/megaversectl/internal/grid"
	"github.com/danmuck/megaversectl/internal/megaverse"
	"github.com/danmuck/megaversectl/internal/testutil/fakeapi"
	"github.com/danmuck/megaversectl/internal/testutil/testlog"
)

func writeRunConfig(t *testing.T, api *fakeapi.Server, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "megaverse.toml")
	content := "base_url = \"" + api.URL() + "\"\n" +
		"pacing_ms = 0\n" +
		"retry_delay_ms = 1\n" +
		extra
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunCrossAgainstFakeAPI(t *testing.T) {
	testlog.Start(t)
	api := fakeapi.New(t, "cand-1")
	metrics := filepath.Join(t.TempDir(), "megaverse.prom")
	path := writeRunConfig(t, api, "metrics_path = \""+metrics+"\"\n")

	var stderr bytes.Buffer
	env := envMap(map[string]string{envCandidateID: "cand-1"})
	if err := run(context.Background(), []string{"-config", path, "cross"}, env, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := len(api.Mutations()); got != 14 {
		t.Fatalf("expected 14 mutations, got %d", got)
	}
	if _, err := os.Stat(metrics); err != nil {
		t.Fatalf("expected metrics textfile: %v", err)
	}
}

func TestRunPartialFailureStillSucceeds(t *testing.T) {
	testlog.Start(t)
	api := fakeapi.New(t, "cand-1")
	api.FailWhen(func(c fakeapi.Call) bool {
		pos, ok := c.Position()
		return ok && pos == (grid.Position{Row: 8, Column: 2})
	})
	path := writeRunConfig(t, api, "")

	env := envMap(map[string]string{envCandidateID: "cand-1"})
	if err := run(context.Background(), []string{"-config", path}, env, &bytes.Buffer{}); err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if cells := api.Cells(); len(cells) != 12 {
		t.Fatalf("expected 12 cells placed, got %d", len(cells))
	}
}

func TestRunGoalUnavailableFails(t *testing.T) {
	testlog.Start(t)
	api := fakeapi.New(t, "cand-1")
	api.SetGoalStatus(http.StatusNotFound)
	path := writeRunConfig(t, api, "")

	env := envMap(map[string]string{envCandidateID: "cand-1"})
	err := run(context.Background(), []string{"-config", path, "goal"}, env, &bytes.Buffer{})
	if !errors.Is(err, megaverse.ErrGoalMapUnavailable) {
		t.Fatalf("expected ErrGoalMapUnavailable, got %v", err)
	}
	if len(api.Mutations()) != 0 {
		t.Fatalf("expected no mutations")
	}
}

func TestRunGoalThenGoalClear(t *testing.T) {
	testlog.Start(t)
	api := fakeapi.New(t, "cand-1")
	api.SetGoal(grid.GoalMap{{"POLYANET", "SPACE"}, {"RED_SOLOON", "UP_COMETH"}})
	path := writeRunConfig(t, api, "candidate_id = \"cand-1\"\n")

	if err := run(context.Background(), []string{"-config", path, "goal"}, envMap(nil), &bytes.Buffer{}); err != nil {
		t.Fatalf("goal run: %v", err)
	}
	if len(api.Cells()) != 3 {
		t.Fatalf("expected 3 cells, got %v", api.Cells())
	}
	if err := run(context.Background(), []string{"-config", path, "goal-clear"}, envMap(nil), &bytes.Buffer{}); err != nil {
		t.Fatalf("goal-clear run: %v", err)
	}
	if len(api.Cells()) != 0 {
		t.Fatalf("expected empty grid, got %v", api.Cells())
	}
}

func TestRunPreconditions(t *testing.T) {
	testlog.Start(t)
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"teleport"}, envMap(map[string]string{envCandidateID: "c"}), &stderr)
	if !errors.Is(err, errUnknownCommand) {
		t.Fatalf("expected errUnknownCommand, got %v", err)
	}
	if !strings.Contains(stderr.String(), "usage: megaversectl") {
		t.Fatalf("expected usage output, got %q", stderr.String())
	}

	err = run(context.Background(), []string{"cross"}, envMap(nil), &bytes.Buffer{})
	if !errors.Is(err, errCandidateIDRequired) {
		t.Fatalf("expected errCandidateIDRequired, got %v", err)
	}
}
