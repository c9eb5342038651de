package query

import (
	"net/url"
	"strings"
)

// Direction of an ordering.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc"/"desc" in any case; anything else is Asc.
func ParseDirection(raw string) Direction {
	if strings.EqualFold(strings.TrimSpace(raw), string(Desc)) {
		return Desc
	}
	return Asc
}

// Opposite flips the direction.
func (d Direction) Opposite() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Parameter names read by SortOrderFromParams.
const (
	SortByParam        = "sort[by]"
	SortDirectionParam = "sort[direction]"
)

// SortOrder is an immutable (name, direction) pair.
type SortOrder struct {
	name      string
	direction Direction
}

func NewSortOrder(name string, direction Direction) SortOrder {
	return SortOrder{name: strings.TrimSpace(name), direction: ParseDirection(string(direction))}
}

// SortOrderFromParams reads sort[by] and sort[direction]. It reports false
// when no sort was requested.
func SortOrderFromParams(params url.Values) (SortOrder, bool) {
	by := strings.TrimSpace(params.Get(SortByParam))
	if by == "" {
		return SortOrder{}, false
	}
	return NewSortOrder(by, Direction(params.Get(SortDirectionParam))), true
}

func (s SortOrder) Name() string         { return s.name }
func (s SortOrder) Direction() Direction { return s.direction }
func (s SortOrder) Ascending() bool      { return s.direction != Desc }
func (s SortOrder) Descending() bool     { return s.direction == Desc }
func (s SortOrder) IsZero() bool         { return s.name == "" }

// Apply appends the ordering to q.
func (s SortOrder) Apply(q Query) Query {
	if s.IsZero() {
		return q
	}
	return q.Order(s.name, s.direction)
}

// Toggled returns the order a column header link should request next.
func (s SortOrder) Toggled(name string) SortOrder {
	if s.name == name {
		return SortOrder{name: name, direction: s.direction.Opposite()}
	}
	return SortOrder{name: name, direction: Asc}
}

// Params encodes the order the way SortOrderFromParams reads it.
func (s SortOrder) Params() url.Values {
	values := url.Values{}
	if s.IsZero() {
		return values
	}
	values.Set(SortByParam, s.name)
	values.Set(SortDirectionParam, string(s.direction))
	return values
}
