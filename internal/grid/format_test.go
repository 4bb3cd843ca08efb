package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/nicobailon/remotegrid/internal/data"
)

func TestFormatterNumbers(t *testing.T) {
	num := data.ColumnMetaData{Name: "N", EditorKind: data.EditorNumber}
	tests := []struct {
		tag      language.Tag
		value    any
		text     string
		editText string
		input    string
		parsed   any
	}{
		{tag: language.English, value: int64(1234567), text: "1,234,567", editText: "1234567", input: "1,234.5", parsed: 1234.5},
		{tag: language.German, value: int64(1234567), text: "1.234.567", editText: "1234567", input: "1.234,5", parsed: 1234.5},
		{tag: language.German, value: 2.5, text: "2,5", editText: "2,5", input: "42", parsed: int64(42)},
	}
	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			f := NewFormatter(tt.tag)
			assert.Equal(t, tt.text, f.Text(num, tt.value))
			assert.Equal(t, tt.editText, f.EditText(num, tt.value))
			got, err := f.ParseNumber(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.parsed, got)
		})
	}
}

func TestParseNumberRejectsGarbage(t *testing.T) {
	f := NewFormatter(language.English)
	_, err := f.ParseNumber("12abc")
	assert.Error(t, err)
	v, err := f.ParseNumber("  ")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.Local)

	got, err := ParseDate("05.03.2024", nil)
	require.NoError(t, err)
	assert.True(t, want.Equal(got.(time.Time)))

	got, err = ParseDate("2024/03/05", []string{"2006/01/02"})
	require.NoError(t, err)
	assert.True(t, want.Equal(got.(time.Time)))

	_, err = ParseDate("next tuesday", nil)
	assert.Error(t, err)
}

func TestFormatterText(t *testing.T) {
	f := NewFormatter(language.English)
	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		col   data.ColumnMetaData
		value any
		want  string
	}{
		{name: "date", col: data.ColumnMetaData{EditorKind: data.EditorDate}, value: day, want: "2024-03-05"},
		{name: "date with format", col: data.ColumnMetaData{EditorKind: data.EditorDate, Editor: data.EditorConfig{Formats: []string{"02.01.2006"}}}, value: day, want: "05.03.2024"},
		{name: "checked", col: data.ColumnMetaData{EditorKind: data.EditorCheckBox, Editor: data.EditorConfig{SelectedValue: "Y"}}, value: "Y", want: "[x]"},
		{name: "unchecked", col: data.ColumnMetaData{EditorKind: data.EditorCheckBox}, value: false, want: "[ ]"},
		{name: "image", col: data.ColumnMetaData{EditorKind: data.EditorImage}, value: "/srv/img/photo.png", want: "▣ photo.png"},
		{name: "empty image", col: data.ColumnMetaData{EditorKind: data.EditorImage}, value: nil, want: ""},
		{name: "choice", col: data.ColumnMetaData{EditorKind: data.EditorChoice}, value: "open", want: "open"},
		{name: "nil number", col: data.ColumnMetaData{EditorKind: data.EditorNumber}, value: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Text(tt.col, tt.value))
		})
	}
}

func TestParseLocale(t *testing.T) {
	tag, err := ParseLocale("")
	require.NoError(t, err)
	assert.Equal(t, language.English, tag)

	tag, err = ParseLocale("de-AT")
	require.NoError(t, err)
	assert.Equal(t, "de-AT", tag.String())

	_, err = ParseLocale("not a locale!")
	assert.Error(t, err)
}
