// Package archive describes the archive formats a generated script can unpack.
package archive

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sap-gg/commaslash/internal/sh"
)

// Format is an archive format, inferred from a download URL.
type Format int

const (
	Zip Format = iota

	formatCount
)

type formatInfo struct {
	name      string
	suffix    string
	command   string
	probeArgs []string
}

var formats = [...]formatInfo{
	Zip: {name: "zip", suffix: ".zip", command: "unzip", probeArgs: []string{"unzip", "-v"}},
}

// compile-time check that every format has an entry
var _ = [1]struct{}{}[len(formats)-int(formatCount)]

// All returns every supported format.
func All() []Format {
	all := make([]Format, formatCount)
	for i := range all {
		all[i] = Format(i)
	}
	return all
}

// FromURL infers the format from the URL's path suffix. The query string and
// fragment are ignored so signed download links still resolve.
func FromURL(rawURL string) (Format, error) {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	for _, f := range All() {
		if strings.HasSuffix(path, formats[f].suffix) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("cannot determine archive format for %q", rawURL)
}

func (f Format) String() string {
	return formats[f].name
}

// Suffix is the file name suffix FromURL matches.
func (f Format) Suffix() string {
	return formats[f].suffix
}

// Command is the extraction tool.
func (f Format) Command() string {
	return formats[f].command
}

// Probe succeeds when the extraction tool is installed.
func (f Format) Probe() *sh.Command {
	return sh.Cmd(sh.Words(formats[f].probeArgs...)...)
}

// Extract unpacks the archive at src into the directory dst, creating it.
func (f Format) Extract(src, dst sh.Arg) *sh.Command {
	switch f {
	case Zip:
		return sh.Cmd(sh.Raw("unzip"), sh.Raw("-qq"), src, sh.Raw("-d"), dst)
	}
	panic(fmt.Sprintf("archive: no extract command for %v", f))
}
