package sh

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sap-gg/commaslash/internal/emit"
	"github.com/sap-gg/commaslash/internal/testutil"
)

func TestEscape(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{input: "plain", want: "plain"},
		{input: "https://example.com/a.zip", want: "https://example.com/a.zip"},
		{input: "", want: "''"},
		{input: "a b", want: "'a b'"},
		{input: "$HOME", want: "'$HOME'"},
		{input: "it's", want: `'it'"'"'s'`},
		{input: "`id`", want: "'`id`'"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, Escape(tc.input).String())
		})
	}
}

func TestEscapeSurvivesShell(t *testing.T) {
	for _, s := range []string{"a b", "$HOME", "it's", "`id`", `"\`, "x;y&&z", "*"} {
		script := Cmd(Raw("test"), Escape(s), Raw("="), Raw("\"$1\"")).String()
		// the expected value arrives as $1, the candidate is compared against it
		testutil.AssertShellOK(t, "set -- "+Escape(s).String()+"; "+script)
	}
}

func TestConcatAndWords(t *testing.T) {
	arg := Concat(Raw(`"$install_dir/"`), Escape("bin/my tool"))
	assert.Equal(t, `"$install_dir/"'bin/my tool'`, arg.String())

	assert.Equal(t, "unzip -v", Cmd(Words("unzip", "-v")...).String())
	assert.Equal(t, `"$exe"`, Var("exe").String())
}

func TestRedirects(t *testing.T) {
	testCases := []struct {
		name string
		cmd  *Command
		want string
	}{
		{
			name: "stderr",
			cmd:  Cmd(Raw("echo"), Escape("oops")).Stderr(),
			want: "echo oops >&2",
		},
		{
			name: "quiet",
			cmd:  Cmd(Words("flock", "--version")...).Quiet(),
			want: "flock --version >/dev/null 2>&1",
		},
		{
			name: "file is escaped",
			cmd:  Cmd(Raw("echo")).Out(1, ToFile("out file")),
			want: "echo >'out file'",
		},
		{
			name: "fd to expression",
			cmd:  Cmd(Raw("exec")).Out(9, ToExpr(Raw(`"$install_dir.lock"`))),
			want: `exec 9>"$install_dir.lock"`,
		},
		{
			name: "input",
			cmd:  Cmd(Words("wc", "-c")...).In(ToExpr(Var("f"))),
			want: `wc -c <"$f"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cmd.String())
		})
	}
}

func TestChains(t *testing.T) {
	exe := Var("exe")
	chain := Chain(Cmd(Raw("test"), Raw("-x"), exe)).And(Cmd(Raw("exec"), exe, Raw(`"$@"`)))
	assert.Equal(t, `test -x "$exe" && exec "$exe" "$@"`, chain.String())

	lock := Chain(Cmd(Words("flock", "-w", "120", "9")...)).Or(Cmd(Raw("true")))
	assert.Equal(t, "flock -w 120 9 || true", lock.String())

	pipe := Pipe(Cmd(Raw("printf"), Escape(`%s\n`), Raw("x")), Cmd(Raw("cat")))
	assert.Equal(t, `printf '%s\n' x | cat`, pipe.String())

	group := Chain(Cmd(Raw("true"))).Or(Group(Chain(Cmd(Raw("echo"), Raw("a"))).And(Cmd(Raw("exit"), Raw("1")))))
	assert.Equal(t, "true || { echo a && exit 1; }", group.String())

	sub := Chain(Sub(Cmd(Raw("cd"), Raw("/")))).And(Cmd(Raw("pwd")))
	assert.Equal(t, "( cd / ) && pwd", sub.String())

	testutil.AssertShellOK(t, group.String())
	testutil.AssertShellOK(t, sub.String())
}

func TestBlocksIndent(t *testing.T) {
	script := Block{
		Comment("header\n\nsecond"),
		Assign("x", Escape("a b")),
		Case{
			Word: Raw(`"$x"`),
			Arms: []Arm{
				{
					Pattern: Raw(`"a b"`),
					Body: Block{
						If{
							Not:  true,
							Cond: Cmd(Raw("test"), Raw("-z"), Var("x")),
							Then: Block{
								Subshell{Body: Block{Line(Cmd(Raw("exit"), Raw("0")))}},
							},
						},
					},
				},
				{Pattern: Raw("*"), Body: Block{Line(Cmd(Raw("exit"), Raw("1")))}},
			},
		},
		While{Not: true, Cond: Cmd(Raw("true")), Do: nil},
	}

	want := `# header
#
# second
x='a b'
case "$x" in
    "a b")
        if ! test -z "$x"; then
            (
                exit 0
            )
        fi
        ;;
    *)
        exit 1
        ;;
esac
while ! true; do
    :
done
`
	assert.Equal(t, want, script.String())
	testutil.AssertSyntax(t, script.String())
	testutil.AssertShellOK(t, script.String())
}

func TestRenderIntoWriter(t *testing.T) {
	w := emit.New()
	w.Indent()
	Render(w, If{Cond: Cmd(Raw("true")), Then: Block{Verbatim("echo hi")}})
	w.Dedent()
	assert.Equal(t, "    if true; then\n        echo hi\n    fi\n", w.String())
}

func TestAssignRejectsBadName(t *testing.T) {
	assert.Panics(t, func() { Assign("1x", Raw("")) })
	assert.Panics(t, func() { Assign("a-b", Raw("")) })
	assert.NotPanics(t, func() { Assign("_commaslash_dir_x", Raw("")) })
}
