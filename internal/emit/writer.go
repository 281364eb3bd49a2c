// Package emit provides an indentation-aware text writer.
//
// Indentation is queued when a newline is written and inserted before the next
// non-newline byte, so blank lines stay empty and only content lines are indented.
package emit

import (
	"fmt"
	"strings"
)

// DefaultUnit is the indentation written per level.
const DefaultUnit = "    "

// Writer accumulates text in memory. Writes never fail.
type Writer struct {
	buf     strings.Builder
	unit    string
	level   int
	pending bool
}

// New returns a Writer indenting by DefaultUnit.
func New() *Writer {
	return NewWithUnit(DefaultUnit)
}

// NewWithUnit returns a Writer indenting by unit per level.
func NewWithUnit(unit string) *Writer {
	return &Writer{unit: unit, pending: true}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.WriteString(string(p))
}

// WriteString implements io.StringWriter.
func (w *Writer) WriteString(s string) (int, error) {
	n := len(s)
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i == 0 {
			w.buf.WriteByte('\n')
			w.pending = true
			s = s[1:]
			continue
		}
		chunk := s
		if i > 0 {
			chunk = s[:i]
		}
		if w.pending {
			w.buf.WriteString(strings.Repeat(w.unit, w.level))
			w.pending = false
		}
		w.buf.WriteString(chunk)
		s = s[len(chunk):]
	}
	return n, nil
}

// Printf formats to the writer.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// Println writes s followed by a newline.
func (w *Writer) Println(s string) {
	_, _ = w.WriteString(s)
	_, _ = w.WriteString("\n")
}

// Level is the current indentation depth.
func (w *Writer) Level() int {
	return w.level
}

// Indent enters a nested block.
func (w *Writer) Indent() {
	w.level++
}

// Dedent leaves a nested block. Leaving more blocks than were entered is a programming error.
func (w *Writer) Dedent() {
	if w.level == 0 {
		panic("emit: dedent below zero")
	}
	w.level--
}

// Indented runs fn one level deeper.
func (w *Writer) Indented(fn func(w *Writer)) {
	w.Indent()
	defer w.Dedent()
	fn(w)
}

// String returns everything written so far.
func (w *Writer) String() string {
	return w.buf.String()
}
