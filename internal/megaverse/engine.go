package megaverse

import (
	"context"
	"time"

	"github.com/danmuck/megaversectl/internal/grid"
	"github.com/danmuck/megaversectl/internal/observability"
	"github.com/danmuck/megaversectl/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Provisioner issues single remote mutations and reads the goal map.
type Provisioner interface {
	CreateEntity(ctx context.Context, e grid.Entity) error
	DeleteEntity(ctx context.Context, e grid.Entity) error
	GoalMap(ctx context.Context) (grid.GoalMap, error)
}

// EngineConfig controls run pacing. Pacing is the fixed wait between
// consecutive mutations.
type EngineConfig struct {
	GridSize int
	Pacing   time.Duration
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		GridSize: 11,
		Pacing:   500 * time.Millisecond,
	}
}

type EngineOption func(*Engine)

func WithPacingSleep(fn transport.SleepFunc) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

func WithEngineLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine turns a target state into paced create/delete calls. It runs one
// mutation at a time and never diffs against remote state: every run
// re-issues the full target set.
type Engine struct {
	api    Provisioner
	cfg    EngineConfig
	sleep  transport.SleepFunc
	logger zerolog.Logger
}

func NewEngine(api Provisioner, cfg EngineConfig, opts ...EngineOption) *Engine {
	def := DefaultEngineConfig()
	if cfg.GridSize <= 0 {
		cfg.GridSize = def.GridSize
	}
	if cfg.Pacing < 0 {
		cfg.Pacing = 0
	}
	e := &Engine{
		api:    api,
		cfg:    cfg,
		sleep:  transport.SleepContext,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "megaverse.engine").Logger()
	return e
}

func (e *Engine) GridSize() int {
	return e.cfg.GridSize
}

// CreatePattern places a polyanet on every valid cell of the cross pattern.
func (e *Engine) CreatePattern(ctx context.Context, gridSize int) Report {
	return e.runPattern(ctx, OperationCross, gridSize, e.api.CreateEntity)
}

// ClearPattern deletes the polyanets CreatePattern would place.
func (e *Engine) ClearPattern(ctx context.Context, gridSize int) Report {
	return e.runPattern(ctx, OperationClear, gridSize, e.api.DeleteEntity)
}

// CreateFromGoalMap reproduces the candidate's goal map. A goal map that
// cannot be retrieved aborts the run before any mutation.
func (e *Engine) CreateFromGoalMap(ctx context.Context) (Report, error) {
	return e.runGoal(ctx, OperationGoal, e.api.CreateEntity)
}

// ClearFromGoalMap deletes every entity the goal map declares.
func (e *Engine) ClearFromGoalMap(ctx context.Context) (Report, error) {
	return e.runGoal(ctx, OperationGoalClear, e.api.DeleteEntity)
}

type mutation func(ctx context.Context, ent grid.Entity) error

func (e *Engine) runPattern(ctx context.Context, op string, gridSize int, apply mutation) Report {
	positions := grid.CrossPattern(gridSize)
	report := Report{Operation: op, Planned: len(positions)}
	items := make([]grid.Entity, 0, len(positions))
	for _, pos := range positions {
		if !pos.Valid(gridSize) {
			e.logger.Warn().Str("operation", op).Stringer("position", pos).Msg("skipping invalid position")
			observability.RecordProvisionItem(op, grid.KindPolyanet.String(), observability.OutcomeSkipped)
			report.Skipped++
			continue
		}
		items = append(items, grid.NewPolyanet(pos))
	}
	e.logger.Info().Str("operation", op).Int("grid_size", gridSize).Int("items", len(items)).Msg("pattern run starting")
	e.apply(ctx, &report, items, apply)
	return report
}

func (e *Engine) runGoal(ctx context.Context, op string, apply mutation) (Report, error) {
	report := Report{Operation: op}
	goal, err := e.api.GoalMap(ctx)
	if err == nil && goal.Empty() {
		err = ErrGoalMapUnavailable
	}
	if err != nil {
		e.logger.Error().Err(err).Str("operation", op).Msg("goal map retrieval failed, cannot proceed")
		return report, err
	}

	parsed := grid.ParseGoalMap(goal)
	for _, cell := range parsed.Unparsed {
		e.logger.Warn().
			Str("operation", op).
			Stringer("position", cell.Position).
			Str("token", cell.Token).
			Msg("unrecognized goal token treated as empty")
	}
	observability.RecordUnparsedGoalTokens(len(parsed.Unparsed))

	report.Planned = len(parsed.Entities)
	report.Unparsed = len(parsed.Unparsed)
	e.logger.Info().
		Str("operation", op).
		Int("rows", len(goal)).
		Int("items", len(parsed.Entities)).
		Int("unparsed", len(parsed.Unparsed)).
		Msg("goal run starting")
	e.apply(ctx, &report, parsed.Entities, apply)
	return report, nil
}

// apply issues items in order with a fixed pacing wait between consecutive
// attempts. A failed item is logged and counted; the run carries on. Only a
// cancelled context stops it early.
func (e *Engine) apply(ctx context.Context, report *Report, items []grid.Entity, fn mutation) {
	start := time.Now()
	defer func() {
		report.Elapsed = time.Since(start)
	}()

	for i, item := range items {
		if i > 0 {
			if err := e.sleep(ctx, e.cfg.Pacing); err != nil {
				remaining := len(items) - i
				e.logger.Warn().Err(err).Str("operation", report.Operation).Int("remaining", remaining).Msg("run interrupted")
				report.Skipped += remaining
				report.Interrupted = true
				return
			}
		}

		kind := item.Kind.String()
		if err := fn(ctx, item); err != nil {
			e.logger.Error().Err(err).Str("operation", report.Operation).Stringer("entity", item).Msg("provision item failed")
			observability.RecordProvisionItem(report.Operation, kind, observability.OutcomeFailed)
			report.Failed++
			report.Failures = append(report.Failures, item)
			continue
		}
		e.logger.Info().Str("operation", report.Operation).Stringer("entity", item).Msg("provision item done")
		observability.RecordProvisionItem(report.Operation, kind, observability.OutcomeSuccess)
		report.Succeeded++
	}
}
