package recent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const maxRecent = 10

// Entry is a table opened from a data source: a SQLite file or a socket
// address.
type Entry struct {
	Source     string    `json:"source"`
	Table      string    `json:"table"`
	Rows       int       `json:"rows,omitempty"`
	LastAccess time.Time `json:"last_access"`
}

// Name is how the entry is listed.
func (e Entry) Name() string {
	return filepath.Base(e.Source) + ":" + e.Table
}

type Store struct {
	Entries []Entry `json:"entries"`
	path    string
	now     func() time.Time
}

// Load reads recent.json from dir. A missing or unreadable file yields an
// empty list.
func Load(dir string) (*Store, error) {
	path := filepath.Join(dir, "recent.json")
	s := &Store{path: path, Entries: []Entry{}, now: time.Now}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return s, nil
	}
	return s, nil
}

func (s *Store) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Add records that table of source was opened, with the row count seen.
func (s *Store) Add(source, table string, rows int) {
	for i, e := range s.Entries {
		if e.Source == source && e.Table == table {
			s.Entries[i].LastAccess = s.now()
			if rows > 0 {
				s.Entries[i].Rows = rows
			}
			return
		}
	}

	s.Entries = append(s.Entries, Entry{
		Source:     source,
		Table:      table,
		Rows:       rows,
		LastAccess: s.now(),
	})

	s.prune()
}

func (s *Store) prune() {
	sort.SliceStable(s.Entries, func(i, j int) bool {
		return s.Entries[i].LastAccess.After(s.Entries[j].LastAccess)
	})

	if len(s.Entries) > maxRecent*3 {
		s.Entries = s.Entries[:maxRecent*3]
	}
}

// Recent lists the most recently opened tables, newest first.
func (s *Store) Recent(limit int) []Entry {
	out := append([]Entry(nil), s.Entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastAccess.After(out[j].LastAccess)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Others lists tables of sources other than current.
func (s *Store) Others(current string, limit int) []Entry {
	var others []Entry
	for _, e := range s.Recent(0) {
		if e.Source != current {
			others = append(others, e)
		}
	}
	if len(others) > limit {
		others = others[:limit]
	}
	return others
}

func (s *Store) Remove(source, table string) {
	var filtered []Entry
	for _, e := range s.Entries {
		if !(e.Source == source && e.Table == table) {
			filtered = append(filtered, e)
		}
	}
	s.Entries = filtered
}
