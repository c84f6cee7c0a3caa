package megaverse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/danmuck/megaversectl/internal/grid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrGoalMapUnavailable = errors.New("megaverse: goal map unavailable")

// Requester is the retrying transport the client issues calls through.
type Requester interface {
	Execute(ctx context.Context, method, endpoint string, params map[string]any) error
	Fetch(ctx context.Context, endpoint string, out any) error
	CandidateID() string
}

// Client maps entities and goal maps onto megaverse API calls.
type Client struct {
	tr     Requester
	logger zerolog.Logger
}

func NewClient(tr Requester) *Client {
	return &Client{
		tr:     tr,
		logger: log.Logger.With().Str("component", "megaverse.client").Logger(),
	}
}

// CreateEntity posts e to its kind's collection.
func (c *Client) CreateEntity(ctx context.Context, e grid.Entity) error {
	return c.tr.Execute(ctx, http.MethodPost, e.Kind.Endpoint(), e.Params())
}

// DeleteEntity removes whatever of e's kind sits at e's position. Only the
// coordinates are sent.
func (c *Client) DeleteEntity(ctx context.Context, e grid.Entity) error {
	params := map[string]any{
		"row":    e.Position.Row,
		"column": e.Position.Column,
	}
	return c.tr.Execute(ctx, http.MethodDelete, e.Kind.Endpoint(), params)
}

type goalResponse struct {
	Goal grid.GoalMap `json:"goal"`
}

// GoalMap fetches the candidate's target grid. Any failure, including an
// empty or ragged goal, yields a nil map and ErrGoalMapUnavailable.
func (c *Client) GoalMap(ctx context.Context) (grid.GoalMap, error) {
	endpoint := "/map/" + url.PathEscape(c.tr.CandidateID()) + "/goal"
	var resp goalResponse
	if err := c.tr.Fetch(ctx, endpoint, &resp); err != nil {
		c.logger.Error().Err(err).Msg("goal map fetch failed")
		return nil, fmt.Errorf("%w: %w", ErrGoalMapUnavailable, err)
	}
	if resp.Goal.Empty() {
		c.logger.Error().Msg("goal map response carried no cells")
		return nil, fmt.Errorf("%w: empty goal", ErrGoalMapUnavailable)
	}
	if !resp.Goal.Rectangular() {
		c.logger.Error().Int("rows", len(resp.Goal)).Msg("goal map rows differ in width")
		return nil, fmt.Errorf("%w: goal is not rectangular", ErrGoalMapUnavailable)
	}
	c.logger.Debug().Int("rows", len(resp.Goal)).Int("columns", len(resp.Goal[0])).Msg("goal map fetched")
	return resp.Goal, nil
}
