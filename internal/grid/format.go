package grid

import (
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nicobailon/remotegrid/internal/data"
)

// DefaultDateFormats are accepted when a Date column declares none.
var DefaultDateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02.01.2006",
	"01/02/2006",
}

// Formatter renders and parses cell values for one locale.
type Formatter struct {
	printer *message.Printer
	group   string
	decimal string
}

func NewFormatter(tag language.Tag) *Formatter {
	p := message.NewPrinter(tag)
	f := &Formatter{printer: p, group: ",", decimal: "."}
	// Derive separators from how the locale prints a known number.
	sample := []rune(p.Sprint(number.Decimal(1234.5)))
	var seps []string
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			seps = append(seps, string(r))
		}
	}
	switch len(seps) {
	case 1:
		f.decimal, f.group = seps[0], ""
	case 2:
		f.group, f.decimal = seps[0], seps[1]
	}
	return f
}

// ParseLocale accepts a BCP 47 tag such as "en" or "de-AT".
func ParseLocale(s string) (language.Tag, error) {
	if s == "" {
		return language.English, nil
	}
	return language.Parse(s)
}

// Text renders v the way the grid displays it in column c.
func (f *Formatter) Text(c data.ColumnMetaData, v any) string {
	switch c.EditorKind {
	case data.EditorNumber:
		return f.number(v)
	case data.EditorDate:
		if t, ok := v.(time.Time); ok {
			layout := "2006-01-02"
			if len(c.Editor.Formats) > 0 {
				layout = c.Editor.Formats[0]
			} else if t.Hour() != 0 || t.Minute() != 0 {
				layout = "2006-01-02 15:04"
			}
			return t.Format(layout)
		}
		return data.DisplayString(v)
	case data.EditorCheckBox:
		if checked(c, v) {
			return "[x]"
		}
		return "[ ]"
	case data.EditorImage:
		if v == nil {
			return ""
		}
		if b, ok := v.([]byte); ok {
			return fmt.Sprintf("▣ %d bytes", len(b))
		}
		return "▣ " + path.Base(data.DisplayString(v))
	case data.EditorText, data.EditorChoice, data.EditorLinked:
		return data.DisplayString(v)
	}
	panic(fmt.Sprintf("unhandled editor kind %v", c.EditorKind))
}

// EditText is the text an editor opens with; unlike Text it never groups
// digits so it can be parsed back.
func (f *Formatter) EditText(c data.ColumnMetaData, v any) string {
	if c.EditorKind == data.EditorNumber && v != nil {
		s := data.DisplayString(v)
		return strings.Replace(s, ".", f.decimal, 1)
	}
	if c.EditorKind == data.EditorImage {
		if _, ok := v.([]byte); ok {
			return ""
		}
		return data.DisplayString(v)
	}
	return f.Text(c, v)
}

func (f *Formatter) number(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return f.printer.Sprint(number.Decimal(n))
	case float32:
		return f.printer.Sprint(number.Decimal(n))
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return f.printer.Sprint(number.Decimal(int64(n)))
		}
		return f.printer.Sprint(number.Decimal(n, number.MaxFractionDigits(6)))
	}
	return data.DisplayString(v)
}

// ParseNumber accepts plain or locale-grouped input. Integral input yields
// int64, anything with a fraction float64.
func (f *Formatter) ParseNumber(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if f.group != "" {
		s = strings.ReplaceAll(s, f.group, "")
	}
	s = strings.ReplaceAll(s, " ", "")
	if f.decimal != "." {
		s = strings.Replace(s, f.decimal, ".", 1)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	fv, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(fv) || math.IsInf(fv, 0) {
		return nil, fmt.Errorf("not a number")
	}
	return fv, nil
}

// ParseDate tries the column's formats, then DefaultDateFormats.
func ParseDate(s string, formats []string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layouts := range [][]string{formats, DefaultDateFormats} {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("not a date")
}

func checked(c data.ColumnMetaData, v any) bool {
	if c.Editor.SelectedValue != nil {
		return data.ValuesEqual(v, c.Editor.SelectedValue)
	}
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	}
	return data.ValuesEqual(v, int64(1))
}

// fold lowercases s and strips accents for suggestion matching.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
