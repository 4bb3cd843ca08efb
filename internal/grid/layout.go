package grid

import (
	"fmt"
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/nicobailon/remotegrid/internal/data"
)

const (
	MinColumnWidth = 4
	MaxColumnWidth = 60

	// measureSampleRows bounds how many rows are measured per column.
	measureSampleRows = 100
	// affordanceWidth is reserved for the lookup or calendar marker.
	affordanceWidth = 3
	checkBoxWidth   = 3
	sortMarkWidth   = 2
)

// Measurer reports the display width of text. Tests use fixed-width fakes.
type Measurer interface {
	TextWidth(s string) int
}

// RuneWidthMeasurer measures terminal cells.
type RuneWidthMeasurer struct{}

func (RuneWidthMeasurer) TextWidth(s string) int {
	return runewidth.StringWidth(s)
}

type columnRule struct {
	meta    data.ColumnMetaData
	natural int
	width   int
	min     int
	// fixed widths come from metadata and are never measured or fitted.
	fixed bool
	// manual widths were set by a resize and survive re-measurement.
	manual bool
}

// Layout owns column widths and the column order, which doubles as the
// navigation order.
type Layout struct {
	measurer Measurer
	autoFit  bool
	viewport int
	rules    []columnRule

	measured      bool
	measuredEpoch uint64
	measuredAt    uint64
}

func NewLayout(m Measurer, autoFit bool) *Layout {
	if m == nil {
		m = RuneWidthMeasurer{}
	}
	return &Layout{measurer: m, autoFit: autoFit}
}

func (l *Layout) index(column string) int {
	for i, r := range l.rules {
		if r.meta.Name == column {
			return i
		}
	}
	return -1
}

// SetColumns adopts new metadata, keeping the current order of columns that
// still exist and appending new ones.
func (l *Layout) SetColumns(meta data.MetaData) {
	next := make([]columnRule, 0, len(meta.Columns))
	seen := make(map[string]bool, len(meta.Columns))
	for _, r := range l.rules {
		c, ok := meta.Column(r.meta.Name)
		if !ok {
			continue
		}
		r.meta = c
		r.fixed = c.Width > 0
		if r.fixed {
			r.width, r.natural = c.Width, c.Width
		}
		next = append(next, r)
		seen[c.Name] = true
	}
	for _, c := range meta.Columns {
		if seen[c.Name] {
			continue
		}
		r := columnRule{meta: c, min: minWidth(c)}
		if c.Width > 0 {
			r.fixed = true
			r.width, r.natural = c.Width, c.Width
		} else {
			r.natural = max(r.min, l.headerWidth(c))
			r.width = r.natural
		}
		next = append(next, r)
	}
	l.rules = next
	l.measured = false
}

func minWidth(c data.ColumnMetaData) int {
	if c.EditorKind == data.EditorCheckBox {
		return checkBoxWidth
	}
	return MinColumnWidth
}

func (l *Layout) headerWidth(c data.ColumnMetaData) int {
	w := l.measurer.TextWidth(c.Header())
	if c.Sortable {
		w += sortMarkWidth
	}
	return w
}

// Measure computes natural widths from the header and up to the first 100
// known rows. It runs once per row epoch and reports whether widths changed.
func (l *Layout) Measure(snap data.Snapshot, text func(data.ColumnMetaData, any) string) bool {
	if l.measured && l.measuredEpoch == snap.Epoch {
		return false
	}
	rows := min(snap.Known(), measureSampleRows)
	for i := range l.rules {
		r := &l.rules[i]
		if r.fixed {
			continue
		}
		w := l.headerWidth(r.meta)
		for row := 0; row < rows; row++ {
			if cw := l.measurer.TextWidth(text(r.meta, snap.Value(row, r.meta.Name))); cw > w {
				w = cw
			}
		}
		switch r.meta.EditorKind {
		case data.EditorLinked, data.EditorDate:
			w += affordanceWidth
		case data.EditorCheckBox:
			w = max(w, checkBoxWidth)
		}
		r.natural = clamp(w, r.min, MaxColumnWidth)
		if !r.manual {
			r.width = r.natural
		}
	}
	l.measured = rows > 0
	l.measuredEpoch = snap.Epoch
	l.measuredAt = snap.Generation
	if l.autoFit && l.viewport > 0 {
		l.Fit(l.viewport)
	}
	return true
}

// MeasuredAt is the store generation the widths were measured against.
func (l *Layout) MeasuredAt() uint64 {
	return l.measuredAt
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Order is the display and navigation order of the columns.
func (l *Layout) Order() []string {
	out := make([]string, len(l.rules))
	for i, r := range l.rules {
		out[i] = r.meta.Name
	}
	return out
}

func (l *Layout) Column(name string) (data.ColumnMetaData, bool) {
	if i := l.index(name); i >= 0 {
		return l.rules[i].meta, true
	}
	return data.ColumnMetaData{}, false
}

func (l *Layout) Width(column string) int {
	if i := l.index(column); i >= 0 {
		return l.rules[i].width
	}
	return 0
}

func (l *Layout) Widths() []int {
	out := make([]int, len(l.rules))
	for i, r := range l.rules {
		out[i] = r.width
	}
	return out
}

func (l *Layout) TotalWidth() int {
	total := 0
	for _, r := range l.rules {
		total += r.width
	}
	return total
}

// ColumnAt maps an x offset to a column, with sep cells between columns.
func (l *Layout) ColumnAt(x, sep int) (string, bool) {
	pos := 0
	for _, r := range l.rules {
		if x >= pos && x < pos+r.width {
			return r.meta.Name, true
		}
		pos += r.width + sep
	}
	return "", false
}

// Resize moves the right edge of column by delta. The right neighbour gives
// or takes the same amount within its minimum. Without auto-fit, whatever the
// neighbour cannot give is taken proportionally from the columns further
// right so the total width is preserved.
func (l *Layout) Resize(column string, delta int) error {
	i := l.index(column)
	if i < 0 {
		return fmt.Errorf("column %s: unknown", column)
	}
	if !l.rules[i].meta.Resizable {
		return fmt.Errorf("column %s is not resizable", column)
	}
	if delta == 0 {
		return nil
	}
	if delta < 0 {
		delta = -min(-delta, l.rules[i].width-l.rules[i].min)
		if delta == 0 {
			return nil
		}
	}

	remaining := delta
	if i+1 < len(l.rules) && !l.rules[i+1].fixed {
		n := &l.rules[i+1]
		take := min(remaining, n.width-n.min)
		n.width -= take
		n.manual = true
		remaining -= take
	}
	if remaining > 0 && !l.autoFit {
		remaining -= l.takeProportionally(i+2, remaining)
	}
	grow := delta
	if !l.autoFit {
		grow = delta - remaining
	}
	l.rules[i].width += grow
	l.rules[i].manual = true
	if l.autoFit && l.viewport > 0 {
		l.Fit(l.viewport)
	}
	return nil
}

// takeProportionally shrinks rules[from:] by up to amount, weighted by how far
// each is above its minimum, and returns what was taken.
func (l *Layout) takeProportionally(from, amount int) int {
	slack := 0
	for j := from; j < len(l.rules); j++ {
		if !l.rules[j].fixed {
			slack += l.rules[j].width - l.rules[j].min
		}
	}
	if slack <= 0 {
		return 0
	}
	amount = min(amount, slack)
	taken := 0
	last := -1
	for j := from; j < len(l.rules); j++ {
		r := &l.rules[j]
		if r.fixed || r.width == r.min {
			continue
		}
		share := int(math.Floor(float64(amount) * float64(r.width-r.min) / float64(slack)))
		r.width -= share
		r.manual = true
		taken += share
		last = j
	}
	// Rounding leftovers come off the rightmost columns that still have room.
	for j := len(l.rules) - 1; taken < amount && j >= from && last >= 0; j-- {
		r := &l.rules[j]
		if r.fixed {
			continue
		}
		for taken < amount && r.width > r.min {
			r.width--
			taken++
		}
	}
	return taken
}

// Swap exchanges two columns. Width rules travel with their columns, and
// since the order is also the navigation order both change together.
func (l *Layout) Swap(a, b string) error {
	i, j := l.index(a), l.index(b)
	if i < 0 || j < 0 {
		return fmt.Errorf("swap %s and %s: unknown column", a, b)
	}
	if !l.rules[i].meta.Movable || !l.rules[j].meta.Movable {
		return fmt.Errorf("swap %s and %s: column not movable", a, b)
	}
	l.rules[i], l.rules[j] = l.rules[j], l.rules[i]
	return nil
}

// Move shifts the column at position from to position to.
func (l *Layout) Move(from, to int) error {
	if from < 0 || from >= len(l.rules) || to < 0 || to >= len(l.rules) {
		return fmt.Errorf("move %d to %d: out of range", from, to)
	}
	if !l.rules[from].meta.Movable {
		return fmt.Errorf("column %s is not movable", l.rules[from].meta.Name)
	}
	r := l.rules[from]
	rules := append(l.rules[:from:from], l.rules[from+1:]...)
	rules = append(rules[:to], append([]columnRule{r}, rules[to:]...)...)
	l.rules = rules
	return nil
}

// Fit sizes flexible columns to the viewport when auto-fit is enabled: the
// widest column above its minimum shrinks first; spare room is handed out in
// proportion to natural width.
func (l *Layout) Fit(viewport int) {
	l.viewport = viewport
	if !l.autoFit || viewport <= 0 || len(l.rules) == 0 {
		return
	}
	for i := range l.rules {
		r := &l.rules[i]
		if !r.fixed && !r.manual {
			r.width = r.natural
		}
	}
	total := l.TotalWidth()
	for total > viewport {
		idx := l.widestAboveMin()
		if idx < 0 {
			break
		}
		l.rules[idx].width--
		total--
	}
	if total >= viewport {
		return
	}
	flexible := 0
	for _, r := range l.rules {
		if !r.fixed && !r.manual {
			flexible += r.width
		}
	}
	if flexible == 0 {
		return
	}
	spare := viewport - total
	given := 0
	last := -1
	for i := range l.rules {
		r := &l.rules[i]
		if r.fixed || r.manual {
			continue
		}
		add := spare * r.width / flexible
		r.width += add
		given += add
		last = i
	}
	if last >= 0 {
		l.rules[last].width += spare - given
	}
}

func (l *Layout) widestAboveMin() int {
	idx := -1
	widest := math.MinInt
	for i, r := range l.rules {
		if !r.fixed && r.width > r.min && r.width > widest {
			widest = r.width
			idx = i
		}
	}
	return idx
}
