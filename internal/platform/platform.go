// Package platform is the closed catalog of supported (OS, architecture) pairs
// and the shell idioms each OS needs in a generated script.
//
// Every catalog here is a fixed-size table indexed by an enum. Adding a variant
// changes the enum's count constant, which breaks compilation of every table that
// was not extended alongside it.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform is a supported (OS, architecture) pair.
type Platform int

const (
	LinuxX86_64 Platform = iota
	LinuxAarch64
	MacosX86_64
	MacosAarch64

	platformCount
)

type platformInfo struct {
	id    string
	uname string
	os    OS
	// goos and goarch identify the platform in the Go runtime.
	goos, goarch string
}

var platforms = [...]platformInfo{
	LinuxX86_64:  {id: "linux-x86_64", uname: "Linux x86_64", os: Linux, goos: "linux", goarch: "amd64"},
	LinuxAarch64: {id: "linux-aarch64", uname: "Linux aarch64", os: Linux, goos: "linux", goarch: "arm64"},
	MacosX86_64:  {id: "macos-x86_64", uname: "Darwin x86_64", os: Macos, goos: "darwin", goarch: "amd64"},
	MacosAarch64: {id: "macos-aarch64", uname: "Darwin arm64", os: Macos, goos: "darwin", goarch: "arm64"},
}

// compile-time check that every platform has an entry
var _ = [1]struct{}{}[len(platforms)-int(platformCount)]

// All returns every platform in catalog order. Generated scripts list platforms in this order.
func All() []Platform {
	all := make([]Platform, platformCount)
	for i := range all {
		all[i] = Platform(i)
	}
	return all
}

// Parse looks a platform up by its identifier, e.g. "linux-x86_64".
func Parse(id string) (Platform, error) {
	for _, p := range All() {
		if platforms[p].id == id {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown platform %q (supported: %s)", id, strings.Join(IDs(), ", "))
}

// Host returns the platform this process runs on, if it is in the catalog.
func Host() (Platform, bool) {
	for _, p := range All() {
		if platforms[p].goos == runtime.GOOS && platforms[p].goarch == runtime.GOARCH {
			return p, true
		}
	}
	return 0, false
}

// IDs returns every platform identifier in catalog order.
func IDs() []string {
	ids := make([]string, platformCount)
	for i := range ids {
		ids[i] = platforms[i].id
	}
	return ids
}

// String returns the identifier used on the command line.
func (p Platform) String() string {
	if !p.valid() {
		return fmt.Sprintf("Platform(%d)", int(p))
	}
	return platforms[p].id
}

// Uname is the exact output of "uname -sm" on this platform.
func (p Platform) Uname() string {
	return platforms[p].uname
}

// OS returns the operating system the platform belongs to.
func (p Platform) OS() OS {
	return platforms[p].os
}

func (p Platform) valid() bool {
	return p >= 0 && p < platformCount
}
