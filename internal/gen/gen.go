// Package gen emits the install script for a Resolved spec.
//
// The script first tries to exec an already installed executable (fast path). Only when that
// fails does it download, verify, extract and publish the archive under a content-addressed
// directory, then exec the result (slow path). Publishing is a single rename, so concurrent
// runs of the same script converge on identical content without relying on the lock.
package gen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"mvdan.cc/sh/v3/syntax"

	"github.com/sap-gg/commaslash/internal"
	"github.com/sap-gg/commaslash/internal/emit"
	"github.com/sap-gg/commaslash/internal/platform"
	"github.com/sap-gg/commaslash/internal/sh"
	"github.com/sap-gg/commaslash/internal/spec"
)

// Shell variables used by the slow path.
const (
	varCommaslashDir = "commaslash_dir"
	varAncestor      = "commaslash_ancestor"
	varInstallDir    = "install_dir"
	varTempDir       = "temp_dir"
	varExe           = "exe"
	varSize          = "size"
)

// archiveName is the download's file name inside the staging directory.
const archiveName = "archive"

var unameExpr = sh.Raw(`"$(uname -sm)"`)

// cacheRoot is the primary cache directory, a double-quoted shell expression.
func cacheRoot(o platform.OS) sh.Arg {
	return sh.Raw(`"` + o.CacheDirExpr() + "/" + internal.ToolName + `"`)
}

// fallbackCacheRoot is the per-user temporary cache directory.
func fallbackCacheRoot() sh.Arg {
	return sh.Raw(`"${TMPDIR:-/tmp}/` + internal.ToolName + `-$(` + platform.EffectiveUID().String() + `)"`)
}

// under joins dir and an escaped relative path into one word. dir is kept as is, so it may be
// quoted any way or already be the result of under.
func under(dir sh.Arg, rel string) sh.Arg {
	return sh.Concat(dir, sh.Raw("/"), sh.Escape(rel))
}

// die writes message to stderr and exits 1.
func die(message sh.Arg) sh.Block {
	return sh.Block{
		sh.Line(sh.Cmd(sh.Raw("printf"), sh.Escape(`%s\n`), message).Stderr()),
		sh.Line(sh.Cmd(sh.Raw("exit"), sh.Raw("1"))),
	}
}

func dief(format string, args ...any) sh.Block {
	return die(sh.Escape(fmt.Sprintf(format, args...)))
}

// execIfExists replaces the shell with exe when it is executable.
func execIfExists(exe sh.Arg) sh.Stmt {
	return sh.Line(sh.Chain(sh.Cmd(sh.Raw("test"), sh.Raw("-x"), exe)).
		And(sh.Cmd(sh.Raw("exec"), exe, sh.Raw(`"$@"`))))
}

func assertCommand(command string, probe *sh.Command) sh.Stmt {
	return sh.If{
		Not:  true,
		Cond: probe.Quiet(),
		Then: dief("command `%s` not found", command),
	}
}

// Generate renders the install script for r. The result is checked to parse as POSIX shell.
func Generate(r *spec.Resolved) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	log.Debug().Int("platforms", r.Len()).Msg("generating script")

	w := emit.New()
	sh.Render(w,
		sh.Verbatim("#!/bin/sh"),
		// split so this source file is not itself flagged as generated
		sh.Comment("@"+"generated by "+internal.ToolName),
		fastPath(r),
		sh.Comment("Not installed yet, download it."),
		sh.Line(sh.Cmd(sh.Raw("set"), sh.Raw("-e"))),
		slowPath(r),
	)
	script := w.String()

	if _, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(script), ""); err != nil {
		return "", fmt.Errorf("generated script is not valid POSIX shell: %w", err)
	}
	return script, nil
}

func fastPath(r *spec.Resolved) sh.Stmt {
	var arms []sh.Arm
	for _, p := range r.Platforms() {
		t, _ := r.Get(p)
		rel := t.Digest.String() + "/" + t.Path.String()
		arms = append(arms, sh.Arm{
			Pattern: sh.Escape(p.Uname()),
			Body: sh.Block{
				execIfExists(under(cacheRoot(p.OS()), rel)),
				execIfExists(under(fallbackCacheRoot(), rel)),
			},
		})
	}
	arms = append(arms, sh.Arm{
		Pattern: sh.Raw("*"),
		Body:    die(sh.Raw(`"unsupported pair: $(uname -sm)"`)),
	})
	return sh.Case{Word: unameExpr, Arms: arms}
}

func slowPath(r *spec.Resolved) sh.Stmt {
	var arms []sh.Arm
	for _, p := range r.Platforms() {
		t, _ := r.Get(p)
		arms = append(arms, sh.Arm{
			Pattern: sh.Escape(p.Uname()),
			Body:    installTarget(p, t),
		})
	}
	arms = append(arms, sh.Arm{
		Pattern: sh.Raw("*"),
		Body:    die(sh.Raw(`"this code should not be reachable; $(uname -sm)"`)),
	})
	return sh.Case{Word: unameExpr, Arms: arms}
}

func installTarget(p platform.Platform, t *spec.TargetSpec) sh.Block {
	o := p.OS()
	checksummer := o.Checksummer()
	hex := t.Digest.String()

	tempDir := sh.Var(varTempDir)
	archivePath := under(tempDir, archiveName)
	extracted := under(tempDir, hex)
	exe := sh.Var(varExe)

	return sh.Block{
		assertCommand(t.Format.Command(), t.Format.Probe()),
		assertCommand(checksummer.Command(), checksummer.Probe()),
		assertCommand("curl", sh.Cmd(sh.Raw("curl"), sh.Raw("--version"))),

		sh.Assign(varCommaslashDir, cacheRoot(o)),
		sh.Comment("Cache in a per-user temporary directory unless we own the nearest existing ancestor."),
		sh.Assign(varAncestor, sh.Var(varCommaslashDir)),
		sh.While{
			Not:  true,
			Cond: sh.Cmd(sh.Raw("test"), sh.Raw("-e"), sh.Var(varAncestor)),
			Do: sh.Block{
				sh.Assign(varAncestor, sh.Raw(`"$(dirname "$`+varAncestor+`")"`)),
			},
		},
		sh.If{
			Cond: sh.Cmd(sh.Raw("test"),
				sh.Raw(`"$(`+o.FileOwner(sh.Var(varAncestor)).String()+`)"`),
				sh.Raw("-ne"),
				sh.Raw(`"$(`+platform.EffectiveUID().String()+`)"`)),
			Then: sh.Block{sh.Assign(varCommaslashDir, fallbackCacheRoot())},
		},

		sh.Assign(varInstallDir, under(sh.Var(varCommaslashDir), hex)),
		sh.Assign(varTempDir, sh.Raw(`"$`+varInstallDir+`.temp.$$"`)),
		sh.Assign(varExe, under(sh.Var(varInstallDir), t.Path.String())),
		sh.Line(sh.Cmd(sh.Raw("rm"), sh.Raw("-rf"), tempDir)),
		sh.Line(sh.Cmd(sh.Raw("mkdir"), sh.Raw("-p"), tempDir)),
		sh.Line(sh.Cmd(sh.Raw("trap"), sh.Raw(`'rm -rf "$`+varTempDir+`"'`), sh.Raw("EXIT"))),

		sh.Subshell{Body: publish(o, t, archivePath, extracted, exe)},

		sh.Comment("The EXIT trap does not run on exec."),
		sh.Line(sh.Cmd(sh.Raw("rm"), sh.Raw("-rf"), tempDir)),
		sh.Line(sh.Cmd(sh.Raw("exec"), exe, sh.Raw(`"$@"`))),
	}
}

// publish runs inside the subshell: lock, recheck, download, verify, extract, rename.
func publish(o platform.OS, t *spec.TargetSpec, archivePath, extracted, exe sh.Arg) sh.Block {
	hex := t.Digest.String()
	size := strconv.FormatUint(t.Size, 10)

	lock := sh.Chain(o.Locker().Lock(internal.LockTimeoutSeconds, internal.LockFD))
	if probe, ok := o.Locker().Probe(); ok {
		lock = sh.Chain(probe.Quiet()).And(o.Locker().Lock(internal.LockTimeoutSeconds, internal.LockFD))
	}
	lock.Or(sh.Cmd(sh.Raw("true")))

	download := sh.Cmd(sh.Words("curl", "--location",
		"--retry", strconv.Itoa(internal.DownloadRetries),
		"--fail", "--silent", "--show-error", "--output")...).
		Arg(archivePath, sh.Escape(t.URL))

	return sh.Block{
		sh.Line(sh.Cmd(sh.Raw("exec")).Out(internal.LockFD, sh.ToExpr(sh.Raw(`"$`+varInstallDir+`.lock"`)))),
		sh.Comment("Failing to take the lock is fine: staging is private and publishing is an atomic rename,\n" +
			"so the worst case is a duplicate download."),
		sh.Line(lock),
		sh.If{
			Cond: sh.Cmd(sh.Raw("test"), sh.Raw("-x"), exe),
			Then: sh.Block{sh.Line(sh.Cmd(sh.Raw("exit"), sh.Raw("0")))},
		},
		sh.If{
			Not:  true,
			Cond: download,
			Then: dief("failed to download %s", t.URL),
		},
		sh.Assign(varSize, sh.Raw(`"$(wc -c <`+archivePath.String()+` | tr -d ' ')"`)),
		sh.If{
			Cond: sh.Cmd(sh.Raw("test"), sh.Var(varSize), sh.Raw("-ne"), sh.Raw(size)),
			Then: die(sh.Concat(
				sh.Escape(fmt.Sprintf("downloaded archive %s has size ", t.URL)),
				sh.Var(varSize),
				sh.Escape(", expected "+size))),
		},
		sh.If{
			Not:  true,
			Cond: o.Checksummer().Verify(t.Digest, archivePath),
			Then: dief("checksum mismatch for %s, expected sha256 %s", t.URL, hex),
		},
		sh.Line(t.Format.Extract(archivePath, extracted)),
		sh.If{
			Not:  true,
			Cond: sh.Cmd(sh.Raw("test"), sh.Raw("-x"), under(extracted, t.Path.String())),
			Then: dief("archive %s does not contain executable file %s", t.URL, t.Path),
		},
		sh.Comment("A concurrent run may have published the same content first."),
		sh.Line(sh.Chain(sh.Cmd(sh.Raw("mv"), extracted, sh.Raw(`"$`+varCommaslashDir+`/"`))).
			Or(sh.Cmd(sh.Raw("test"), sh.Raw("-x"), exe))),
	}
}
