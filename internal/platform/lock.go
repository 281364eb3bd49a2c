package platform

import (
	"strconv"

	"github.com/sap-gg/commaslash/internal/sh"
)

// Locker is an advisory lock tool operating on an already open file descriptor.
type Locker int

const (
	// Flock is util-linux flock(1).
	Flock Locker = iota
	// Lockf is the BSD lockf(1) shipped with macOS.
	Lockf

	lockerCount
)

type lockerInfo struct {
	command   string
	timeout   string
	probeArgs []string
}

var lockers = [...]lockerInfo{
	Flock: {command: "flock", timeout: "-w", probeArgs: []string{"flock", "--version"}},
	// lockf has no cheap way to check it exists.
	Lockf: {command: "lockf", timeout: "-t"},
}

// compile-time check that every lock tool has an entry
var _ = [1]struct{}{}[len(lockers)-int(lockerCount)]

// AllLockers returns every lock tool.
func AllLockers() []Locker {
	all := make([]Locker, lockerCount)
	for i := range all {
		all[i] = Locker(i)
	}
	return all
}

// Command is the executable name.
func (l Locker) Command() string {
	return lockers[l].command
}

func (l Locker) String() string {
	return l.Command()
}

// Lock waits up to timeoutSeconds for an exclusive lock on fd.
func (l Locker) Lock(timeoutSeconds, fd int) *sh.Command {
	info := lockers[l]
	return sh.Cmd(sh.Words(info.command, info.timeout, strconv.Itoa(timeoutSeconds), strconv.Itoa(fd))...)
}

// Probe returns a command that succeeds when the tool is installed, if there is one.
func (l Locker) Probe() (*sh.Command, bool) {
	info := lockers[l]
	if len(info.probeArgs) == 0 {
		return nil, false
	}
	return sh.Cmd(sh.Words(info.probeArgs...)...), true
}
