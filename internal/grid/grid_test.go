package grid

import (
	"errors"
	"testing"

	"github.com/danmuck/megaversectl/internal/testutil/testlog"
)

func TestPositionValid(t *testing.T) {
	testlog.Start(t)
	const size = 11
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if !(Position{Row: row, Column: col}).Valid(size) {
				t.Fatalf("expected (%d,%d) valid", row, col)
			}
		}
	}
	invalid := []Position{
		{Row: size, Column: 0},
		{Row: 0, Column: size},
		{Row: -1, Column: 3},
		{Row: 3, Column: -1},
		{Row: 40, Column: 40},
	}
	for _, p := range invalid {
		if p.Valid(size) {
			t.Fatalf("expected %s invalid", p)
		}
	}
}

func TestCrossPatternCounts(t *testing.T) {
	testlog.Start(t)
	for g := 6; g <= 40; g++ {
		positions := CrossPattern(g)
		if len(positions) != 2*(g-4) {
			t.Fatalf("grid=%d got %d positions", g, len(positions))
		}
		for idx := 0; idx < len(positions); idx += 2 {
			i := crossMargin + idx/2
			main, counter := positions[idx], positions[idx+1]
			if main != (Position{Row: i, Column: i}) {
				t.Fatalf("grid=%d main diagonal at %d: %s", g, i, main)
			}
			if counter != (Position{Row: i, Column: g - 1 - i}) {
				t.Fatalf("grid=%d counter diagonal at %d: %s", g, i, counter)
			}
			if (main == counter) != (i == g-1-i) {
				t.Fatalf("grid=%d index %d coincidence mismatch", g, i)
			}
			if !main.Valid(g) || !counter.Valid(g) {
				t.Fatalf("grid=%d emitted out of bounds position", g)
			}
		}
	}
}

func TestCrossPatternElevenOrder(t *testing.T) {
	testlog.Start(t)
	got := CrossPattern(11)
	want := []Position{
		{2, 2}, {2, 8}, {3, 3}, {3, 7}, {4, 4}, {4, 6}, {5, 5},
		{5, 5}, {6, 6}, {6, 4}, {7, 7}, {7, 3}, {8, 8}, {8, 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d positions want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position[%d]=%s want %s", i, got[i], want[i])
		}
	}
}

func TestCrossPatternTinyGrid(t *testing.T) {
	testlog.Start(t)
	if got := CrossPattern(4); len(got) != 0 {
		t.Fatalf("expected no positions for 4x4, got %v", got)
	}
}

func TestEntityPayload(t *testing.T) {
	testlog.Start(t)
	pos := Position{Row: 3, Column: 4}

	p := NewPolyanet(pos).Payload("cand-1")
	if len(p) != 3 || p["row"] != 3 || p["column"] != 4 || p["candidateId"] != "cand-1" {
		t.Fatalf("unexpected polyanet payload: %v", p)
	}

	s := NewSoloon(pos, ColorPurple).Payload("cand-1")
	if s["color"] != "purple" || len(s) != 4 {
		t.Fatalf("unexpected soloon payload: %v", s)
	}
	if _, ok := s["direction"]; ok {
		t.Fatalf("soloon payload must not carry direction")
	}

	c := NewCometh(pos, DirectionLeft).Params()
	if c["direction"] != "left" || len(c) != 3 {
		t.Fatalf("unexpected cometh params: %v", c)
	}
	if _, ok := c["candidateId"]; ok {
		t.Fatalf("params must not carry caller identity")
	}
}

func TestKindEndpoint(t *testing.T) {
	testlog.Start(t)
	if KindPolyanet.Endpoint() != "/polyanets" || KindSoloon.Endpoint() != "/soloons" || KindCometh.Endpoint() != "/comeths" {
		t.Fatalf("unexpected endpoints")
	}
}

func TestParseColorAndDirection(t *testing.T) {
	testlog.Start(t)
	if c, err := ParseColor("WHITE"); err != nil || c != ColorWhite {
		t.Fatalf("ParseColor: %v %v", c, err)
	}
	if _, err := ParseColor("GREEN"); !errors.Is(err, ErrUnknownColor) {
		t.Fatalf("expected ErrUnknownColor, got %v", err)
	}
	if d, err := ParseDirection("Down"); err != nil || d != DirectionDown {
		t.Fatalf("ParseDirection: %v %v", d, err)
	}
	if _, err := ParseDirection("SIDEWAYS"); !errors.Is(err, ErrUnknownDirection) {
		t.Fatalf("expected ErrUnknownDirection, got %v", err)
	}
}

func TestParseGoalMapRow(t *testing.T) {
	testlog.Start(t)
	res := ParseGoalMap(GoalMap{{"POLYANET", "RED_SOLOON", "UP_COMETH", "SPACE"}})
	if len(res.Entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(res.Entities))
	}
	want := []Entity{
		NewPolyanet(Position{0, 0}),
		NewSoloon(Position{0, 1}, ColorRed),
		NewCometh(Position{0, 2}, DirectionUp),
	}
	for i := range want {
		if res.Entities[i] != want[i] {
			t.Fatalf("entity[%d]=%+v want %+v", i, res.Entities[i], want[i])
		}
	}
	if len(res.Unparsed) != 0 {
		t.Fatalf("unexpected unparsed cells: %+v", res.Unparsed)
	}
}

func TestParseGoalMapRecordsUnknownTokens(t *testing.T) {
	testlog.Start(t)
	res := ParseGoalMap(GoalMap{
		{"SPACE", "GREEN_SOLOON"},
		{"BLACK_HOLE", "LEFT_COMETH"},
	})
	if len(res.Entities) != 1 || res.Entities[0] != NewCometh(Position{1, 1}, DirectionLeft) {
		t.Fatalf("unexpected entities: %+v", res.Entities)
	}
	if len(res.Unparsed) != 2 {
		t.Fatalf("expected 2 unparsed cells, got %+v", res.Unparsed)
	}
	if res.Unparsed[0].Token != "GREEN_SOLOON" || res.Unparsed[0].Position != (Position{0, 1}) {
		t.Fatalf("unexpected first unparsed: %+v", res.Unparsed[0])
	}
	if res.Unparsed[1].Token != "BLACK_HOLE" || res.Unparsed[1].Position != (Position{1, 0}) {
		t.Fatalf("unexpected second unparsed: %+v", res.Unparsed[1])
	}
}

func TestGoalMapShape(t *testing.T) {
	testlog.Start(t)
	if !(GoalMap{}).Empty() || !(GoalMap{{}, {}}).Empty() {
		t.Fatalf("expected empty maps")
	}
	if (GoalMap{{"SPACE"}}).Empty() {
		t.Fatalf("expected non-empty map")
	}
	if !(GoalMap{{"A", "B"}, {"C", "D"}}).Rectangular() {
		t.Fatalf("expected rectangular")
	}
	if (GoalMap{{"A", "B"}, {"C"}}).Rectangular() {
		t.Fatalf("expected ragged map")
	}
}
