package data

import (
	"fmt"
	"strings"
)

// CellEditorKind is the closed set of in-cell editors a column can declare.
type CellEditorKind int

const (
	EditorText CellEditorKind = iota
	EditorNumber
	EditorDate
	EditorChoice
	EditorCheckBox
	EditorLinked
	EditorImage
)

// EditorKinds lists every kind in declaration order.
var EditorKinds = []CellEditorKind{
	EditorText,
	EditorNumber,
	EditorDate,
	EditorChoice,
	EditorCheckBox,
	EditorLinked,
	EditorImage,
}

func (k CellEditorKind) String() string {
	switch k {
	case EditorText:
		return "text"
	case EditorNumber:
		return "number"
	case EditorDate:
		return "date"
	case EditorChoice:
		return "choice"
	case EditorCheckBox:
		return "checkbox"
	case EditorLinked:
		return "linked"
	case EditorImage:
		return "image"
	}
	return fmt.Sprintf("CellEditorKind(%d)", int(k))
}

func ParseEditorKind(s string) (CellEditorKind, error) {
	for _, k := range EditorKinds {
		if strings.EqualFold(k.String(), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return EditorText, fmt.Errorf("unknown editor kind %q", s)
}

func (k CellEditorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *CellEditorKind) UnmarshalText(b []byte) error {
	parsed, err := ParseEditorKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Textual reports whether the kind is edited through a free text input.
func (k CellEditorKind) Textual() bool {
	switch k {
	case EditorText, EditorNumber, EditorDate, EditorLinked, EditorImage:
		return true
	case EditorChoice, EditorCheckBox:
		return false
	}
	return false
}

// Optimistic reports whether a just-issued value may be shown in the shared
// cache before the remote source confirms it.
func (k CellEditorKind) Optimistic() bool {
	switch k {
	case EditorChoice, EditorCheckBox, EditorImage:
		return true
	case EditorText, EditorNumber, EditorDate, EditorLinked:
		return false
	}
	return false
}
