package grid

import "github.com/nicobailon/remotegrid/internal/data"

// NextSort returns the definition after a click on column's header. A plain
// click replaces the list with a single entry cycling None, Ascending,
// Descending, None. With modifier the column's own entry cycles the same way
// while the other entries keep their precedence.
func NextSort(current data.SortDefinition, column string, modifier bool) data.SortDefinition {
	next := nextDirection(current.Direction(column))
	if !modifier {
		if next == data.SortNone {
			return data.SortDefinition{}
		}
		return data.SortDefinition{{ColumnName: column, Direction: next}}
	}

	out := make(data.SortDefinition, 0, len(current)+1)
	found := false
	for _, e := range current {
		if e.ColumnName != column {
			out = append(out, e)
			continue
		}
		found = true
		if next != data.SortNone {
			out = append(out, data.SortEntry{ColumnName: column, Direction: next})
		}
	}
	if !found {
		out = append(out, data.SortEntry{ColumnName: column, Direction: next})
	}
	return out
}

func nextDirection(d data.SortDirection) data.SortDirection {
	switch d {
	case data.SortNone:
		return data.Ascending
	case data.Ascending:
		return data.Descending
	default:
		return data.SortNone
	}
}

// sortCoordinator tracks the definition sent but not yet confirmed.
type sortCoordinator struct {
	pending  data.SortDefinition
	inFlight bool
}

// base is the definition the next click builds on.
func (s *sortCoordinator) base(confirmed data.SortDefinition) data.SortDefinition {
	if s.inFlight {
		return s.pending
	}
	return confirmed
}

func (s *sortCoordinator) begin(def data.SortDefinition) {
	s.pending = def.Clone()
	s.inFlight = true
}

func (s *sortCoordinator) done() {
	s.pending = nil
	s.inFlight = false
}
