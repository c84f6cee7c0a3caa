package grid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownColor     = errors.New("grid: unknown soloon color")
	ErrUnknownDirection = errors.New("grid: unknown cometh direction")
)

// Kind tags the entity variant.
type Kind int

const (
	KindPolyanet Kind = iota
	KindSoloon
	KindCometh
)

func (k Kind) String() string {
	switch k {
	case KindPolyanet:
		return "polyanet"
	case KindSoloon:
		return "soloon"
	case KindCometh:
		return "cometh"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Endpoint returns the REST collection path for the kind.
func (k Kind) Endpoint() string {
	switch k {
	case KindSoloon:
		return "/soloons"
	case KindCometh:
		return "/comeths"
	default:
		return "/polyanets"
	}
}

type Color string

const (
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorPurple Color = "purple"
	ColorWhite  Color = "white"
)

// ParseColor accepts any casing of a known color.
func ParseColor(raw string) (Color, error) {
	switch c := Color(strings.ToLower(strings.TrimSpace(raw))); c {
	case ColorBlue, ColorRed, ColorPurple, ColorWhite:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColor, raw)
}

type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionRight Direction = "right"
	DirectionLeft  Direction = "left"
)

// ParseDirection accepts any casing of a known direction.
func ParseDirection(raw string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(raw))); d {
	case DirectionUp, DirectionDown, DirectionRight, DirectionLeft:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, raw)
}

// Entity is one grid occupant. Color is set only for soloons and Direction
// only for comeths; use the constructors to keep that true.
type Entity struct {
	Kind      Kind
	Position  Position
	Color     Color
	Direction Direction
}

func NewPolyanet(pos Position) Entity {
	return Entity{Kind: KindPolyanet, Position: pos}
}

func NewSoloon(pos Position, color Color) Entity {
	return Entity{Kind: KindSoloon, Position: pos, Color: color}
}

func NewCometh(pos Position, direction Direction) Entity {
	return Entity{Kind: KindCometh, Position: pos, Direction: direction}
}

// Params returns the request fields for the entity, without caller identity.
func (e Entity) Params() map[string]any {
	params := map[string]any{
		"row":    e.Position.Row,
		"column": e.Position.Column,
	}
	switch e.Kind {
	case KindSoloon:
		params["color"] = string(e.Color)
	case KindCometh:
		params["direction"] = string(e.Direction)
	}
	return params
}

// Payload returns Params with the candidate identifier attached.
func (e Entity) Payload(candidateID string) map[string]any {
	params := e.Params()
	params["candidateId"] = candidateID
	return params
}

func (e Entity) String() string {
	switch e.Kind {
	case KindSoloon:
		return fmt.Sprintf("%s soloon at %s", e.Color, e.Position)
	case KindCometh:
		return fmt.Sprintf("%s cometh at %s", e.Direction, e.Position)
	default:
		return fmt.Sprintf("polyanet at %s", e.Position)
	}
}
