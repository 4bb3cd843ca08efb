package grid

import "strings"

// Find returns the first fetched cell after from whose displayed text
// contains query, ignoring case and accents. The search wraps around and
// covers only rows already fetched.
func (m *Model) Find(query string, from CellID) (CellID, bool) {
	q := fold(strings.TrimSpace(query))
	snap := m.snapshot()
	order := m.layout.Order()
	n := snap.Known()
	if q == "" || n == 0 || len(order) == 0 {
		return CellID{}, false
	}

	start := max(0, from.Row)
	col := columnIndex(order, from.Column) + 1
	if from.Row < 0 {
		col = 0
	}
	for i := 0; i <= n; i++ {
		row := (start + i) % n
		rec, _ := snap.Record(row)
		if rec.Deleted() {
			col = 0
			continue
		}
		for ; col < len(order); col++ {
			c, _ := m.layout.Column(order[col])
			if strings.Contains(fold(m.format.Text(c, m.CellValue(row, c.Name))), q) {
				return CellID{Row: row, Column: c.Name}, true
			}
		}
		col = 0
	}
	return CellID{}, false
}
