package spec

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"github.com/sap-gg/commaslash/internal"
	"github.com/sap-gg/commaslash/internal/digest"
	"github.com/sap-gg/commaslash/internal/platform"
	"github.com/sap-gg/commaslash/internal/relpath"
)

// Manifest is the structured form of a set of target specs, keyed by platform id.
//
//	version: 1
//	targets:
//	  linux-x86_64:
//	    url: https://example.com/tool-linux.zip
//	    size: 1024
//	    sha256: 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824
//	    path: bin/tool
type Manifest struct {
	// Version of the manifest format. Only version 1 is supported.
	Version int `yaml:"version" toml:"version"`

	Targets map[string]*ManifestTarget `yaml:"targets" toml:"targets" validate:"required,min=1,dive,required"`
}

// ManifestTarget mirrors the keys of a spec string.
type ManifestTarget struct {
	URL    string  `yaml:"url" toml:"url" validate:"required,url"`
	Size   *uint64 `yaml:"size" toml:"size" validate:"required"`
	SHA256 string  `yaml:"sha256" toml:"sha256" validate:"required"`
	Path   string  `yaml:"path" toml:"path" validate:"required"`
}

// Fields converts t into the same shape Parse produces.
func (t *ManifestTarget) Fields() (*Fields, error) {
	d, err := digest.Parse(t.SHA256)
	if err != nil {
		return nil, fmt.Errorf("sha256: %w", err)
	}
	p, err := relpath.New(t.Path)
	if err != nil {
		return nil, err
	}
	return &Fields{URL: t.URL, Size: t.Size, SHA256: &d, Path: p}, nil
}

// ManifestLoader decodes one manifest encoding into unresolved fields keyed by platform id.
type ManifestLoader interface {
	// Name is used in log output.
	Name() string

	Load(ctx context.Context, r io.Reader) (version int, targets map[string]*Fields, err error)
}

// LoaderRegistry maps file extensions to manifest loaders.
type LoaderRegistry struct {
	byExtension map[string]ManifestLoader
}

// NewLoaderRegistry constructs a registry. Extensions must start with a dot.
func NewLoaderRegistry(mappings map[string]ManifestLoader) (*LoaderRegistry, error) {
	byExt := make(map[string]ManifestLoader)
	for ext, l := range mappings {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || !strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("invalid extension key for manifest loader: %q", ext)
		}
		if l == nil {
			return nil, fmt.Errorf("manifest loader for %q cannot be nil", ext)
		}
		byExt[ext] = l
	}
	return &LoaderRegistry{byExtension: byExt}, nil
}

// DefaultLoaders returns the registry used by LoadManifest.
func DefaultLoaders() *LoaderRegistry {
	yamlLoader := &YAMLLoader{}
	r, err := NewLoaderRegistry(map[string]ManifestLoader{
		".yaml":       yamlLoader,
		".yml":        yamlLoader,
		".json":       yamlLoader,
		".toml":       &TOMLLoader{},
		".properties": &PropertiesLoader{},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// For returns the loader for a given filename.
func (r *LoaderRegistry) For(filename string) (ManifestLoader, bool) {
	l, ok := r.byExtension[strings.ToLower(filepath.Ext(filename))]
	return l, ok
}

// Extensions lists the registered extensions, sorted.
func (r *LoaderRegistry) Extensions() []string {
	out := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// LoadManifest reads the manifest at path with the default loaders and resolves every target.
func LoadManifest(ctx context.Context, path string) (*Resolved, error) {
	return DefaultLoaders().Load(ctx, path)
}

// Load reads the manifest at path and resolves every target.
func (r *LoaderRegistry) Load(ctx context.Context, path string) (*Resolved, error) {
	loader, ok := r.For(path)
	if !ok {
		return nil, fmt.Errorf("unsupported manifest format %q (supported: %s)",
			filepath.Ext(path), strings.Join(r.Extensions(), ", "))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %q: %w", path, err)
	}
	defer f.Close()

	log.Debug().Str("path", path).Str("loader", loader.Name()).Msg("loading manifest")

	version, targets, err := loader.Load(ctx, f)
	if err != nil {
		return nil, err
	}
	if version != internal.ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d (expected %d)",
			version, internal.ManifestVersion)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("manifest has no targets")
	}

	resolved := NewResolved()
	for id, fields := range targets {
		p, err := platform.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", id, err)
		}
		t, err := fields.Resolve()
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", id, err)
		}
		resolved.Set(p, t)
	}
	return resolved, nil
}

func structuredTargets(m *Manifest) (map[string]*Fields, error) {
	out := make(map[string]*Fields, len(m.Targets))
	for id, t := range m.Targets {
		if t == nil {
			return nil, fmt.Errorf("target %q is null", id)
		}
		fields, err := t.Fields()
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", id, err)
		}
		out[id] = fields
	}
	return out, nil
}

var _ ManifestLoader = (*YAMLLoader)(nil)

// YAMLLoader reads YAML manifests, and JSON ones since JSON is valid YAML.
type YAMLLoader struct{}

func (l *YAMLLoader) Name() string {
	return "yaml"
}

func (l *YAMLLoader) Load(ctx context.Context, r io.Reader) (int, map[string]*Fields, error) {
	var m Manifest
	if err := internal.NewYAMLDecoder(r).DecodeContext(ctx, &m); err != nil {
		if internal.IsDecodeErrorAndPrint(err) {
			return 0, nil, fmt.Errorf("parsing manifest")
		}
		return 0, nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := internal.ValidateStruct(&m); err != nil {
		return 0, nil, fmt.Errorf("validate manifest: %w", err)
	}
	targets, err := structuredTargets(&m)
	return m.Version, targets, err
}

var _ ManifestLoader = (*TOMLLoader)(nil)

// TOMLLoader reads TOML manifests with the same schema as YAMLLoader.
type TOMLLoader struct{}

func (l *TOMLLoader) Name() string {
	return "toml"
}

func (l *TOMLLoader) Load(ctx context.Context, r io.Reader) (int, map[string]*Fields, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	var m Manifest
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return 0, nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := internal.ValidateStruct(&m); err != nil {
		return 0, nil, fmt.Errorf("validate manifest: %w", err)
	}
	targets, err := structuredTargets(&m)
	return m.Version, targets, err
}

var _ ManifestLoader = (*PropertiesLoader)(nil)

// PropertiesLoader reads flat manifests where every key besides "version"
// is a platform id and its value a spec string:
//
//	version = 1
//	linux-x86_64 = url=https://example.com/tool.zip size=1024 sha256=... path=bin/tool
type PropertiesLoader struct{}

const propertiesVersionKey = "version"

func (l *PropertiesLoader) Name() string {
	return "properties"
}

func (l *PropertiesLoader) Load(ctx context.Context, r io.Reader) (int, map[string]*Fields, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, nil, fmt.Errorf("read manifest: %w", err)
	}
	// URLs may legitimately contain "${", so no expansion.
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return 0, nil, fmt.Errorf("decode manifest: %w", err)
	}

	rawVersion, ok := p.Get(propertiesVersionKey)
	if !ok {
		return 0, nil, fmt.Errorf("manifest is missing %q", propertiesVersionKey)
	}
	version, err := strconv.Atoi(strings.TrimSpace(rawVersion))
	if err != nil {
		return 0, nil, fmt.Errorf("could not parse manifest version: %w", err)
	}

	targets := make(map[string]*Fields)
	for _, key := range p.Keys() {
		if key == propertiesVersionKey {
			continue
		}
		value, _ := p.Get(key)
		fields, err := Parse(value)
		if err != nil {
			return 0, nil, fmt.Errorf("target %q: %w", key, err)
		}
		targets[key] = fields
	}
	return version, targets, nil
}
