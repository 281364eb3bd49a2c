package sh

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sap-gg/commaslash/internal/emit"
)

// Stmt is a statement written on its own line(s).
type Stmt interface {
	emit(w *emit.Writer)
}

// Block is a sequence of statements.
type Block []Stmt

func (b Block) emit(w *emit.Writer) {
	for _, s := range b {
		s.emit(w)
	}
}

// emitBody writes b, or the null command when b is empty, so the enclosing block stays valid syntax.
func (b Block) emitBody(w *emit.Writer) {
	if len(b) == 0 {
		w.Println(":")
		return
	}
	b.emit(w)
}

// String renders the block at indentation level zero.
func (b Block) String() string {
	w := emit.New()
	b.emit(w)
	return w.String()
}

// Render writes stmts to w.
func Render(w *emit.Writer, stmts ...Stmt) {
	Block(stmts).emit(w)
}

type line struct {
	term Term
}

// Line turns a term into a statement.
func Line(t Term) Stmt {
	return line{term: t}
}

func (l line) emit(w *emit.Writer) {
	w.Println(l.term.String())
}

type comment string

// Comment emits "# text". Multi-line text yields one comment line per line.
func Comment(text string) Stmt {
	return comment(text)
}

func (c comment) emit(w *emit.Writer) {
	for _, l := range strings.Split(string(c), "\n") {
		if l == "" {
			w.Println("#")
			continue
		}
		w.Println("# " + l)
	}
}

type raw string

// Verbatim emits text as is. Only for fixed, trusted fragments such as the shebang.
func Verbatim(text string) Stmt {
	return raw(text)
}

func (r raw) emit(w *emit.Writer) {
	w.Println(string(r))
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type assign struct {
	name  string
	value Arg
}

// Assign emits name=value. An invalid name is a programming error.
func Assign(name string, value Arg) Stmt {
	if !identifier.MatchString(name) {
		panic(fmt.Sprintf("sh: invalid variable name %q", name))
	}
	return assign{name: name, value: value}
}

func (a assign) emit(w *emit.Writer) {
	w.Println(a.name + "=" + a.value.text)
}

func condition(not bool, cond Term) string {
	if not {
		return "! " + cond.String()
	}
	return cond.String()
}

// If is "if [!] cond; then ... fi".
type If struct {
	Not  bool
	Cond Term
	Then Block
}

func (s If) emit(w *emit.Writer) {
	w.Println("if " + condition(s.Not, s.Cond) + "; then")
	w.Indented(s.Then.emitBody)
	w.Println("fi")
}

// While is "while [!] cond; do ... done".
type While struct {
	Not  bool
	Cond Term
	Do   Block
}

func (s While) emit(w *emit.Writer) {
	w.Println("while " + condition(s.Not, s.Cond) + "; do")
	w.Indented(s.Do.emitBody)
	w.Println("done")
}

// Subshell runs Body in a child shell, so traps, exits and variable changes stay inside it.
type Subshell struct {
	Body Block
}

func (s Subshell) emit(w *emit.Writer) {
	w.Println("(")
	w.Indented(s.Body.emitBody)
	w.Println(")")
}

// Arm is one branch of a Case.
type Arm struct {
	Pattern Arg
	Body    Block
}

// Case is "case word in pattern) ... ;; esac".
type Case struct {
	Word Arg
	Arms []Arm
}

func (s Case) emit(w *emit.Writer) {
	w.Println("case " + s.Word.text + " in")
	w.Indented(func(w *emit.Writer) {
		for _, arm := range s.Arms {
			w.Println(arm.Pattern.text + ")")
			w.Indented(func(w *emit.Writer) {
				arm.Body.emit(w)
				w.Println(";;")
			})
		}
	})
	w.Println("esac")
}
