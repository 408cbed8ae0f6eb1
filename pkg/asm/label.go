package asm

import "fmt"

// Label is a value-identity handle for a target-assembly location. Labels
// compare by pointer identity; CoalesceLabels is the only code that ever
// changes a label's id after construction.
type Label struct {
	id uint64
}

var labelSeq uint64

// NewLabel allocates a fresh, globally unique label.
func NewLabel() *Label {
	labelSeq++
	return &Label{id: labelSeq}
}

// Name renders the label's external symbol, a fixed 32-hex-digit form.
func (l *Label) Name() string {
	return fmt.Sprintf("label__%032x", l.id)
}
