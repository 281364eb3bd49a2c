// Package relpath provides a validated slash-separated relative path.
package relpath

import (
	"fmt"
	"strings"
)

// Path is a non-empty relative path with no empty, "." or ".." segments.
// Construct it with New; the zero value is not valid.
type Path struct {
	s string
}

// New validates s.
func New(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("path must not be empty")
	}
	if strings.HasPrefix(s, "/") {
		return Path{}, fmt.Errorf("path must not start with /: %s", s)
	}
	if strings.HasSuffix(s, "/") {
		return Path{}, fmt.Errorf("path must not end with /: %s", s)
	}
	for _, segment := range strings.Split(s, "/") {
		switch segment {
		case "":
			return Path{}, fmt.Errorf("empty component in path: %s", s)
		case ".", "..":
			return Path{}, fmt.Errorf("component %s in path: %s", segment, s)
		}
	}
	return Path{s: s}, nil
}

// String returns the path as given.
func (p Path) String() string {
	return p.s
}

// Segments returns the slash-separated components.
func (p Path) Segments() []string {
	return strings.Split(p.s, "/")
}

// FileName returns the last segment.
func (p Path) FileName() string {
	return p.s[strings.LastIndex(p.s, "/")+1:]
}

// IsZero reports whether p was never validated.
func (p Path) IsZero() bool {
	return p.s == ""
}
