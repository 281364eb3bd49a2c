package spec

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sap-gg/commaslash/internal/archive"
	"github.com/sap-gg/commaslash/internal/digest"
	"github.com/sap-gg/commaslash/internal/platform"
	"github.com/sap-gg/commaslash/internal/relpath"
)

// TargetSpec describes the archive to install on one platform.
type TargetSpec struct {
	URL    string
	Size   uint64
	Digest digest.Digest
	Path   relpath.Path
	Format archive.Format
}

// Resolve infers the archive format and enforces the fields Parse leaves optional.
func (f *Fields) Resolve() (*TargetSpec, error) {
	if f.URL == "" {
		return nil, fmt.Errorf("missing %s", KeyURL)
	}
	if f.Path.IsZero() {
		return nil, fmt.Errorf("missing %s", KeyPath)
	}
	format, err := archive.FromURL(f.URL)
	if err != nil {
		return nil, err
	}
	if f.Size == nil {
		return nil, fmt.Errorf("missing %s", KeySize)
	}
	if f.SHA256 == nil {
		return nil, fmt.Errorf("missing %s", KeySHA256)
	}
	return &TargetSpec{
		URL:    f.URL,
		Size:   *f.Size,
		Digest: *f.SHA256,
		Path:   f.Path,
		Format: format,
	}, nil
}

// ParseAndResolve is Parse followed by Resolve.
func ParseAndResolve(s string) (*TargetSpec, error) {
	f, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return f.Resolve()
}

// String renders t back into spec string form.
func (t *TargetSpec) String() string {
	return strings.Join([]string{
		KeyURL + "=" + t.URL,
		KeySize + "=" + strconv.FormatUint(t.Size, 10),
		KeySHA256 + "=" + t.Digest.String(),
		KeyPath + "=" + t.Path.String(),
	}, " ")
}

// Resolved maps platforms to their target specs. Iteration follows platform catalog order.
type Resolved struct {
	targets map[platform.Platform]*TargetSpec
}

// NewResolved returns an empty Resolved.
func NewResolved() *Resolved {
	return &Resolved{targets: make(map[platform.Platform]*TargetSpec)}
}

// Set adds or replaces the spec for p.
func (r *Resolved) Set(p platform.Platform, t *TargetSpec) {
	r.targets[p] = t
}

// Get returns the spec for p, if any.
func (r *Resolved) Get(p platform.Platform) (*TargetSpec, bool) {
	t, ok := r.targets[p]
	return t, ok
}

// Len is the number of platforms with a spec.
func (r *Resolved) Len() int {
	return len(r.targets)
}

// Platforms returns the platforms with a spec, in catalog order.
func (r *Resolved) Platforms() []platform.Platform {
	var out []platform.Platform
	for _, p := range platform.All() {
		if _, ok := r.targets[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that at least one platform is present.
func (r *Resolved) Validate() error {
	if r == nil || len(r.targets) == 0 {
		return fmt.Errorf("must specify at least one spec, e.g. --%s=...", platform.IDs()[0])
	}
	return nil
}

// ExeName is the file name of the first platform's executable.
func (r *Resolved) ExeName() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	first := r.targets[r.Platforms()[0]]
	return first.Path.FileName(), nil
}

// SensitiveValues returns URL passwords and query values, which are masked in logs.
func (r *Resolved) SensitiveValues() []string {
	var out []string
	for _, p := range r.Platforms() {
		u, err := url.Parse(r.targets[p].URL)
		if err != nil {
			continue
		}
		if password, ok := u.User.Password(); ok {
			out = append(out, password)
		}
		for _, values := range u.Query() {
			for _, v := range values {
				if v != "" {
					out = append(out, v)
				}
			}
		}
	}
	return out
}
