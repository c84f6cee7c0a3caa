package grid

import "strings"

const (
	tokenPolyanet = "POLYANET"
	tokenSpace    = "SPACE"
	suffixSoloon  = "_SOLOON"
	suffixCometh  = "_COMETH"
)

// GoalMap is the server-declared target grid, row-major.
type GoalMap [][]string

// Empty reports whether the map carries no cells at all.
func (m GoalMap) Empty() bool {
	for _, row := range m {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// Rectangular reports whether every row has the same width.
func (m GoalMap) Rectangular() bool {
	for _, row := range m {
		if len(row) != len(m[0]) {
			return false
		}
	}
	return true
}

// CellResult classifies one parsed goal token.
type CellResult int

const (
	CellEntity CellResult = iota
	CellEmpty
	CellUnknown
)

// UnparsedCell records a token the grammar did not recognize.
type UnparsedCell struct {
	Position Position
	Token    string
}

// ParseResult holds the entities of a goal map in row-major order.
type ParseResult struct {
	Entities []Entity
	Unparsed []UnparsedCell
}

// ParseCell maps one goal token to an entity.
func ParseCell(token string, pos Position) (Entity, CellResult) {
	tok := strings.ToUpper(strings.TrimSpace(token))
	switch {
	case tok == "" || tok == tokenSpace:
		return Entity{}, CellEmpty
	case tok == tokenPolyanet:
		return NewPolyanet(pos), CellEntity
	case strings.HasSuffix(tok, suffixSoloon):
		color, err := ParseColor(strings.TrimSuffix(tok, suffixSoloon))
		if err != nil {
			return Entity{}, CellUnknown
		}
		return NewSoloon(pos, color), CellEntity
	case strings.HasSuffix(tok, suffixCometh):
		direction, err := ParseDirection(strings.TrimSuffix(tok, suffixCometh))
		if err != nil {
			return Entity{}, CellUnknown
		}
		return NewCometh(pos, direction), CellEntity
	default:
		return Entity{}, CellUnknown
	}
}

// ParseGoalMap walks the map row-major. Unrecognized tokens are dropped from
// Entities and reported in Unparsed; they never fail the parse.
func ParseGoalMap(m GoalMap) ParseResult {
	var out ParseResult
	for row, cells := range m {
		for col, token := range cells {
			pos := Position{Row: row, Column: col}
			entity, result := ParseCell(token, pos)
			switch result {
			case CellEntity:
				out.Entities = append(out.Entities, entity)
			case CellUnknown:
				out.Unparsed = append(out.Unparsed, UnparsedCell{Position: pos, Token: token})
			}
		}
	}
	return out
}
