package sh

import (
	"strconv"
	"strings"
)

// Term renders on a single line: a command, a pipeline, an and/or chain or an inline group.
type Term interface {
	String() string
	term()
}

// Target is where a redirect points.
type Target struct {
	text string
}

// ToFD targets another file descriptor (">&2").
func ToFD(fd int) Target {
	return Target{text: "&" + strconv.Itoa(fd)}
}

// ToFile targets a literal path, escaped.
func ToFile(path string) Target {
	return Target{text: Escape(path).text}
}

// ToExpr targets a path computed by the shell, such as Var("install_dir").
func ToExpr(expr Arg) Target {
	return Target{text: expr.text}
}

// Redirect is "[fd]>target" or "[fd]<target".
type Redirect struct {
	FD     int
	Input  bool
	Target Target
}

func (r Redirect) String() string {
	var b strings.Builder
	op, defaultFD := ">", 1
	if r.Input {
		op, defaultFD = "<", 0
	}
	if r.FD != defaultFD {
		b.WriteString(strconv.Itoa(r.FD))
	}
	b.WriteString(op)
	b.WriteString(r.Target.text)
	return b.String()
}

// Command is a simple command: words followed by redirects.
type Command struct {
	args      []Arg
	redirects []Redirect
}

// Cmd builds a command from args.
func Cmd(args ...Arg) *Command {
	return &Command{args: args}
}

// Arg appends arguments.
func (c *Command) Arg(args ...Arg) *Command {
	c.args = append(c.args, args...)
	return c
}

// Out redirects fd to t.
func (c *Command) Out(fd int, t Target) *Command {
	c.redirects = append(c.redirects, Redirect{FD: fd, Target: t})
	return c
}

// In redirects stdin from t.
func (c *Command) In(t Target) *Command {
	c.redirects = append(c.redirects, Redirect{FD: 0, Input: true, Target: t})
	return c
}

// Quiet discards stdout and stderr.
func (c *Command) Quiet() *Command {
	return c.Out(1, ToFile("/dev/null")).Out(2, ToFD(1))
}

// Stderr sends stdout to stderr.
func (c *Command) Stderr() *Command {
	return c.Out(1, ToFD(2))
}

func (c *Command) String() string {
	parts := make([]string, 0, len(c.args)+len(c.redirects))
	for _, a := range c.args {
		parts = append(parts, a.text)
	}
	for _, r := range c.redirects {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " ")
}

func (*Command) term() {}

type pipeline []*Command

// Pipe connects commands with "|".
func Pipe(cmds ...*Command) Term {
	return pipeline(cmds)
}

func (p pipeline) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return strings.Join(parts, " | ")
}

func (pipeline) term() {}

// AndOr is a left-associative chain of terms joined by "&&" and "||".
type AndOr struct {
	first Term
	rest  []link
}

type link struct {
	op   string
	term Term
}

// Chain starts an and/or chain.
func Chain(first Term) *AndOr {
	return &AndOr{first: first}
}

// And appends "&& t".
func (a *AndOr) And(t Term) *AndOr {
	a.rest = append(a.rest, link{op: "&&", term: t})
	return a
}

// Or appends "|| t".
func (a *AndOr) Or(t Term) *AndOr {
	a.rest = append(a.rest, link{op: "||", term: t})
	return a
}

func (a *AndOr) String() string {
	var b strings.Builder
	b.WriteString(a.first.String())
	for _, l := range a.rest {
		b.WriteString(" ")
		b.WriteString(l.op)
		b.WriteString(" ")
		b.WriteString(l.term.String())
	}
	return b.String()
}

func (*AndOr) term() {}

type inline struct {
	open, close string
	body        Term
}

// Sub runs t in an inline subshell: "( t )".
func Sub(t Term) Term {
	return inline{open: "( ", close: " )", body: t}
}

// Group runs t in the current shell: "{ t; }". The semicolon is required before "}".
func Group(t Term) Term {
	return inline{open: "{ ", close: "; }", body: t}
}

func (i inline) String() string {
	return i.open + i.body.String() + i.close
}

func (inline) term() {}
