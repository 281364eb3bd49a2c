package platform

import (
	"github.com/sap-gg/commaslash/internal/sh"
)

// OS is an operating system family with its own shell conventions.
type OS int

const (
	Linux OS = iota
	Macos

	osCount
)

type osInfo struct {
	name         string
	cacheDirExpr string
	locker       Locker
	checksummer  Checksummer
	ownerFormat  []string
}

var oses = [...]osInfo{
	Linux: {
		name:         "linux",
		cacheDirExpr: "${XDG_CACHE_HOME:-$HOME/.cache}",
		locker:       Flock,
		checksummer:  Sha256sum,
		ownerFormat:  []string{"stat", "-c", "%u"},
	},
	Macos: {
		name:         "macos",
		cacheDirExpr: "$HOME/Library/Caches",
		locker:       Lockf,
		checksummer:  Shasum,
		ownerFormat:  []string{"stat", "-f", "%u"},
	},
}

// compile-time check that every OS has an entry
var _ = [1]struct{}{}[len(oses)-int(osCount)]

func (o OS) String() string {
	return oses[o].name
}

// CacheDirExpr is a shell expression, valid inside double quotes, for the user cache directory.
// It is expanded when the script runs, not when it is generated.
func (o OS) CacheDirExpr() string {
	return oses[o].cacheDirExpr
}

// Locker is the default advisory lock tool.
func (o OS) Locker() Locker {
	return oses[o].locker
}

// Checksummer is the default SHA-256 tool.
func (o OS) Checksummer() Checksummer {
	return oses[o].checksummer
}

// FileOwner prints the numeric owner uid of path.
func (o OS) FileOwner(path sh.Arg) *sh.Command {
	return sh.Cmd(sh.Words(oses[o].ownerFormat...)...).Arg(path)
}

// EffectiveUID prints the effective user id of the running shell.
func EffectiveUID() *sh.Command {
	return sh.Cmd(sh.Words("id", "-u")...)
}
