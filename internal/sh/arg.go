// Package sh is a small builder for POSIX shell text.
//
// It covers only what the generated install scripts need: commands with
// redirects, pipelines, and/or chains, inline groups, and the multi-line
// if/while/case/subshell blocks rendered through an emit.Writer.
//
// Anything derived from user input must go through Escape. Raw is reserved for
// literal syntax such as case patterns, "$(...)" substitutions and quoted
// variable references.
package sh

import (
	"strings"

	"github.com/alessio/shellescape"
)

// Arg is a single shell word, already rendered.
type Arg struct {
	text string
}

// Escape quotes s so the shell sees exactly s.
func Escape(s string) Arg {
	return Arg{text: shellescape.Quote(s)}
}

// Raw emits s verbatim.
func Raw(s string) Arg {
	return Arg{text: s}
}

// Concat joins args into one word with no separator, e.g. a quoted "$dir", a slash and an escaped path.
func Concat(args ...Arg) Arg {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.text)
	}
	return Arg{text: b.String()}
}

// Words turns literal words into raw args.
func Words(words ...string) []Arg {
	args := make([]Arg, len(words))
	for i, w := range words {
		args[i] = Raw(w)
	}
	return args
}

// Var returns a double-quoted reference to the named variable.
func Var(name string) Arg {
	return Raw(`"$` + name + `"`)
}

func (a Arg) String() string {
	return a.text
}
