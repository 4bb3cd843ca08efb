package grid

import (
	"fmt"
	"strings"

	"github.com/nicobailon/remotegrid/internal/data"
	gerr "github.com/nicobailon/remotegrid/internal/err"
)

// editorBehavior is what the edit controller needs to know about a kind.
type editorBehavior struct {
	// textual editors open a text input.
	textual bool
	// cycles editors change value on space or click without an input.
	cycles bool
	// optimistic editors echo into the shared store before confirmation.
	optimistic bool
	// parse turns input text into a value; nil for kinds resolved elsewhere.
	parse func(f *Formatter, c data.ColumnMetaData, text string) (any, error)
	// next is the value after one toggle or cycle step.
	next func(c data.ColumnMetaData, v any) any
}

// behaviorFor covers every CellEditorKind.
func behaviorFor(k data.CellEditorKind) editorBehavior {
	switch k {
	case data.EditorText:
		return editorBehavior{textual: true, parse: parseText}
	case data.EditorNumber:
		return editorBehavior{textual: true, parse: parseNumber}
	case data.EditorDate:
		return editorBehavior{textual: true, parse: parseDate}
	case data.EditorLinked:
		return editorBehavior{textual: true}
	case data.EditorImage:
		return editorBehavior{textual: true, optimistic: true, parse: parseImage}
	case data.EditorChoice:
		return editorBehavior{cycles: true, optimistic: true, next: nextChoice}
	case data.EditorCheckBox:
		return editorBehavior{cycles: true, optimistic: true, next: toggleCheckBox}
	}
	panic(fmt.Sprintf("unhandled editor kind %v", k))
}

func parseText(_ *Formatter, c data.ColumnMetaData, text string) (any, error) {
	if text == "" && c.Nullable {
		return nil, nil
	}
	return text, nil
}

func parseNumber(f *Formatter, c data.ColumnMetaData, text string) (any, error) {
	v, err := f.ParseNumber(text)
	if err != nil {
		return nil, &gerr.ValidationError{Column: c.Name, Input: text, Reason: err.Error()}
	}
	if v == nil && !c.Nullable {
		return nil, &gerr.ValidationError{Column: c.Name, Input: text, Reason: "value required"}
	}
	return v, nil
}

func parseDate(_ *Formatter, c data.ColumnMetaData, text string) (any, error) {
	v, err := ParseDate(text, c.Editor.Formats)
	if err != nil {
		return nil, &gerr.ValidationError{Column: c.Name, Input: text, Reason: err.Error()}
	}
	if v == nil && !c.Nullable {
		return nil, &gerr.ValidationError{Column: c.Name, Input: text, Reason: "value required"}
	}
	return v, nil
}

// parseImage accepts a path or URL naming the image.
func parseImage(_ *Formatter, c data.ColumnMetaData, text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		if !c.Nullable {
			return nil, &gerr.ValidationError{Column: c.Name, Reason: "value required"}
		}
		return nil, nil
	}
	if strings.ContainsAny(text, "\n\t") {
		return nil, &gerr.ValidationError{Column: c.Name, Input: text, Reason: "not an image reference"}
	}
	return text, nil
}

// toggleCheckBox flips between the configured selected and deselected values,
// falling back to booleans.
func toggleCheckBox(c data.ColumnMetaData, v any) any {
	on := checked(c, v)
	if c.Editor.SelectedValue != nil || c.Editor.DeselectedValue != nil {
		if on {
			return c.Editor.DeselectedValue
		}
		return c.Editor.SelectedValue
	}
	return !on
}

// nextChoice steps through AllowedValues, wrapping after the last.
func nextChoice(c data.ColumnMetaData, v any) any {
	values := c.Editor.AllowedValues
	if len(values) == 0 {
		return v
	}
	for i, a := range values {
		if data.ValuesEqual(a, v) {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

// linkMatch resolves typed text against the referenced provider. It returns
// the written columns and values when exactly one row matches.
func linkMatch(link *data.LinkReference, ref data.Snapshot, text string) ([]string, []any, int) {
	var match data.Record
	n := 0
	for i := 0; i < ref.Known(); i++ {
		rec, _ := ref.Record(i)
		if data.DisplayString(rec.Get(link.DisplayColumn)) == text {
			match = rec
			n++
		}
	}
	if n != 1 {
		return nil, nil, n
	}
	columns := append([]string(nil), link.ColumnNames...)
	values := make([]any, len(columns))
	for i := range columns {
		if i < len(link.ReferencedColumns) {
			values[i] = match.Get(link.ReferencedColumns[i])
		}
	}
	return columns, values, 1
}

// suggestions lists display values of the referenced provider starting with
// text, ignoring case and accents.
func suggestions(link *data.LinkReference, ref data.Snapshot, text string, limit int) []string {
	prefix := fold(text)
	var out []string
	seen := make(map[string]bool)
	for i := 0; i < ref.Known() && len(out) < limit; i++ {
		rec, _ := ref.Record(i)
		s := data.DisplayString(rec.Get(link.DisplayColumn))
		if seen[s] || !strings.HasPrefix(fold(s), prefix) {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
