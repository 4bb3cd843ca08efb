package grid

import "github.com/nicobailon/remotegrid/internal/data"

// DefaultPageSize is the number of rows materialized per window.
const DefaultPageSize = 40

// Window is the materialized part of a provider's rows. Slice is sized to
// Total; only [FirstRow, FirstRow+Size) is guaranteed to be current and
// unfetched positions are nil.
type Window struct {
	FirstRow int
	Size     int
	Total    int
	Slice    []*data.Record
}

// Row returns row i, or nil when it is outside the slice or not fetched.
func (w Window) Row(i int) *data.Record {
	if i < 0 || i >= len(w.Slice) {
		return nil
	}
	return w.Slice[i]
}

// LastRow is the last row covered by the window, -1 when it is empty.
func (w Window) LastRow() int {
	return w.FirstRow + w.Size - 1
}

type windowKey struct {
	provider   string
	first      int
	last       int
	size       int
	epoch      uint64
	generation uint64
}

// WindowManager turns scroll positions into windows and decides when more
// rows must be fetched.
type WindowManager struct {
	size  int
	key   windowKey
	valid bool
	cur   Window
}

func NewWindowManager(size int) *WindowManager {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &WindowManager{size: size}
}

func (w *WindowManager) Size() int {
	return w.size
}

func clampLast(last, total int) int {
	if last > total-1 {
		last = total - 1
	}
	return last
}

// Compute returns the window starting at first for the rows in snap. With
// unchanged inputs it returns the previous Window, sharing its Slice.
func (w *WindowManager) Compute(first, last int, snap data.Snapshot) Window {
	total := snap.Total()
	first = max(0, min(first, total))
	last = max(clampLast(last, total), first-1)

	key := windowKey{
		provider:   snap.DataProvider,
		first:      first,
		last:       last,
		size:       w.size,
		epoch:      snap.Epoch,
		generation: snap.Generation,
	}
	if w.valid && w.key == key {
		return w.cur
	}

	slice := make([]*data.Record, total)
	if w.valid && w.key.provider == key.provider && w.key.epoch == key.epoch {
		copy(slice, w.cur.Slice)
	}
	size := min(w.size, total-first)
	for i := first; i < first+size; i++ {
		if rec, ok := snap.Record(i); ok {
			slice[i] = &rec
		} else {
			slice[i] = nil
		}
	}

	w.cur = Window{FirstRow: first, Size: size, Total: total, Slice: slice}
	w.key = key
	w.valid = true
	return w.cur
}

// Invalidate forces the next Compute to rebuild the slice.
func (w *WindowManager) Invalidate() {
	w.valid = false
}

// NeedsFetch reports whether rows up to last are close enough to the end of
// the known rows that more must be requested, and which rows to ask for.
func (w *WindowManager) NeedsFetch(last int, snap data.Snapshot) (fromRow, rowCount int, ok bool) {
	if snap.AllFetched {
		return 0, 0, false
	}
	if total := snap.Total(); total > 0 {
		last = clampLast(last, total)
	}
	known := snap.Known()
	want := last + 2*w.size
	if known >= want {
		return 0, 0, false
	}
	return known, max(w.size, want-known), true
}
