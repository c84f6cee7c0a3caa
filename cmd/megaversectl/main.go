package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/megaversectl/internal/logging"
	"github.com/danmuck/megaversectl/internal/megaverse"
	"github.com/danmuck/megaversectl/internal/observability"
	"github.com/danmuck/megaversectl/internal/transport"
	"github.com/rs/zerolog/log"
)

const usage = `usage: megaversectl [-config path] <command>

commands:
  cross       draw the X pattern of polyanets (default)
  clear       delete the X pattern polyanets
  goal        reproduce the candidate goal map
  goal-clear  delete every entity the goal map declares
`

var errUnknownCommand = errors.New("unknown command")

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "megaversectl: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run returns an error only for precondition failures. Items that fail after
// retries are reported in the summary log and do not change the outcome.
func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) error {
	fs := flag.NewFlagSet("megaversectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", getenv("MEGAVERSE_CONFIG"), "path to a TOML config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	command := megaverse.OperationCross
	if fs.NArg() > 0 {
		command = fs.Arg(0)
	}
	switch command {
	case megaverse.OperationCross, megaverse.OperationClear, megaverse.OperationGoal, megaverse.OperationGoalClear:
	default:
		fs.Usage()
		return fmt.Errorf("%w %q", errUnknownCommand, command)
	}

	cfg, err := loadRunConfig(*configPath, getenv)
	if err != nil {
		log.Error().Err(err).Msg("configuration invalid")
		return err
	}
	tr, err := transport.New(cfg.Transport)
	if err != nil {
		return err
	}
	engine := megaverse.NewEngine(megaverse.NewClient(tr), cfg.Engine)

	log.Info().Str("command", command).Str("base_url", cfg.Transport.BaseURL).Msg("starting")
	var report megaverse.Report
	switch command {
	case megaverse.OperationCross:
		report = engine.CreatePattern(ctx, engine.GridSize())
	case megaverse.OperationClear:
		report = engine.ClearPattern(ctx, engine.GridSize())
	case megaverse.OperationGoal:
		report, err = engine.CreateFromGoalMap(ctx)
	case megaverse.OperationGoalClear:
		report, err = engine.ClearFromGoalMap(ctx)
	}
	defer writeMetrics(cfg.MetricsPath)
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("run aborted")
		return err
	}

	if report.OK() {
		log.Info().Object("report", report).Msgf("%s completed", command)
	} else {
		for _, item := range report.Failures {
			log.Warn().Stringer("entity", item).Msg("not provisioned")
		}
		log.Warn().Object("report", report).Msgf("%s completed with failures", command)
	}
	return nil
}

func writeMetrics(path string) {
	if path == "" {
		return
	}
	if err := observability.WriteTextfile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("metrics textfile not written")
		return
	}
	log.Debug().Str("path", path).Msg("metrics textfile written")
}
