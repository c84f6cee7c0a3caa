package megaverse

import (
	"time"

	"github.com/danmuck/megaversectl/internal/grid"
	"github.com/rs/zerolog"
)

const (
	OperationCross     = "cross"
	OperationClear     = "clear"
	OperationGoal      = "goal"
	OperationGoalClear = "goal-clear"
)

// Report summarizes one provisioning run. Skipped counts invalid positions
// and items never attempted because the run was interrupted.
type Report struct {
	Operation   string
	Planned     int
	Succeeded   int
	Failed      int
	Skipped     int
	Unparsed    int
	Failures    []grid.Entity
	Interrupted bool
	Elapsed     time.Duration
}

// OK reports whether every attempted item succeeded and the run finished.
func (r Report) OK() bool {
	return r.Failed == 0 && !r.Interrupted
}

func (r Report) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", r.Operation).
		Int("planned", r.Planned).
		Int("succeeded", r.Succeeded).
		Int("failed", r.Failed).
		Int("skipped", r.Skipped).
		Int("unparsed", r.Unparsed).
		Bool("interrupted", r.Interrupted).
		Dur("elapsed", r.Elapsed)
}
