// Package spec turns per-platform spec strings and manifest files into a Resolved spec,
// the sole input of the script generator.
package spec

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/sap-gg/commaslash/internal/digest"
	"github.com/sap-gg/commaslash/internal/relpath"
)

// Spec string keys.
const (
	KeyURL    = "url"
	KeySize   = "size"
	KeySHA256 = "sha256"
	KeyPath   = "path"
)

// Fields is a parsed but not yet resolved target spec. Optional fields are nil when absent.
type Fields struct {
	URL    string
	Size   *uint64
	SHA256 *digest.Digest
	Path   relpath.Path
}

// Parse reads a whitespace-separated list of key=value items, e.g.
//
//	url=https://example.com/tool.zip size=1024 sha256=<64 hex chars> path=bin/tool
//
// url and path are mandatory here; size and sha256 are enforced by Resolve.
func Parse(s string) (*Fields, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty spec")
	}

	var f Fields
	seen := make(map[string]bool)

	for _, part := range strings.Fields(s) {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("spec item must be key=value; got: %s", part)
		}
		if key == "" {
			return nil, fmt.Errorf("empty key in spec item: %s", part)
		}
		switch key {
		case KeyURL, KeySize, KeySHA256, KeyPath:
		default:
			return nil, fmt.Errorf("unknown key: %s", key)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate %s", key)
		}
		seen[key] = true

		if err := f.set(key, value); err != nil {
			return nil, err
		}
	}

	if !seen[KeyURL] {
		return nil, fmt.Errorf("missing %s", KeyURL)
	}
	if !seen[KeyPath] {
		return nil, fmt.Errorf("missing %s", KeyPath)
	}
	return &f, nil
}

func (f *Fields) set(key, value string) error {
	if value == "" {
		return fmt.Errorf("empty %s", key)
	}
	if strings.IndexFunc(value, unicode.IsControl) >= 0 {
		return fmt.Errorf("%s contains control characters", key)
	}

	switch key {
	case KeyURL:
		f.URL = value
	case KeySize:
		size, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("could not parse size: %w", err)
		}
		f.Size = &size
	case KeySHA256:
		d, err := digest.Parse(value)
		if err != nil {
			return fmt.Errorf("sha256: %w", err)
		}
		f.SHA256 = &d
	case KeyPath:
		p, err := relpath.New(value)
		if err != nil {
			return err
		}
		f.Path = p
	}
	return nil
}
