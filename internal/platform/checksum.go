package platform

import (
	"github.com/sap-gg/commaslash/internal/digest"
	"github.com/sap-gg/commaslash/internal/sh"
)

// Checksummer is a tool that verifies SHA-256 digests in "sum --check" format.
type Checksummer int

const (
	// Sha256sum is GNU coreutils sha256sum.
	Sha256sum Checksummer = iota
	// Shasum is the perl shasum shipped with macOS.
	Shasum

	checksummerCount
)

type checksummerInfo struct {
	command string
	check   []string
}

var checksummers = [...]checksummerInfo{
	Sha256sum: {command: "sha256sum", check: []string{"sha256sum", "--check", "-"}},
	Shasum:    {command: "shasum", check: []string{"shasum", "-a", "256", "--check", "-"}},
}

// compile-time check that every checksum tool has an entry
var _ = [1]struct{}{}[len(checksummers)-int(checksummerCount)]

// AllChecksummers returns every checksum tool.
func AllChecksummers() []Checksummer {
	all := make([]Checksummer, checksummerCount)
	for i := range all {
		all[i] = Checksummer(i)
	}
	return all
}

// Command is the executable name.
func (c Checksummer) Command() string {
	return checksummers[c].command
}

func (c Checksummer) String() string {
	return c.Command()
}

// Probe succeeds when the tool is installed.
func (c Checksummer) Probe() *sh.Command {
	return sh.Cmd(sh.Raw(c.Command()), sh.Raw("--version"))
}

// Verify exits non-zero unless the file at path hashes to d. The per-file "OK" report is discarded;
// diagnostics still reach stderr.
// path is usually a quoted variable reference such as "$temp_dir/archive".
func (c Checksummer) Verify(d digest.Digest, path sh.Arg) sh.Term {
	line := sh.Cmd(sh.Raw("printf"), sh.Escape(`%s  %s\n`), sh.Escape(d.String()), path)
	check := sh.Cmd(sh.Words(checksummers[c].check...)...).Out(1, sh.ToFile("/dev/null"))
	return sh.Pipe(line, check)
}
