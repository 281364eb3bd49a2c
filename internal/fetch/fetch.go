// Package fetch downloads spec archives ahead of time and checks them the way a generated
// script would, so a bad spec fails at release time instead of on a user's machine.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"

	"github.com/sap-gg/commaslash/internal"
	"github.com/sap-gg/commaslash/internal/digest"
	"github.com/sap-gg/commaslash/internal/relpath"
	"github.com/sap-gg/commaslash/internal/spec"
)

// Verifier fetches archives into a digest-keyed cache and validates them.
type Verifier struct {
	cacheDir string
	client   *http.Client
}

// NewVerifier creates a Verifier caching under the user cache directory.
func NewVerifier() (*Verifier, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("determining user cache directory: %w", err)
	}
	return NewVerifierAt(filepath.Join(cacheDir, internal.ToolName, "archives"))
}

// NewVerifierAt creates a Verifier caching under cacheDir.
func NewVerifierAt(cacheDir string) (*Verifier, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Verifier{cacheDir: cacheDir, client: http.DefaultClient}, nil
}

// Verify ensures the archive of ts matches its size and digest and contains its executable.
func (v *Verifier) Verify(ctx context.Context, ts *spec.TargetSpec) error {
	cachePath := filepath.Join(v.cacheDir, "sha256", ts.Digest.String())

	// the cache key is the digest, so a cached file has already been checked
	if _, err := os.Stat(cachePath); err == nil {
		log.Debug().
			Str("path", cachePath).
			Msg("archive found in cache")
	} else {
		log.Info().
			Str("url", ts.URL).
			Msg("archive not found in cache, downloading")
		if err := v.download(ctx, cachePath, ts); err != nil {
			return err
		}
	}

	return CheckExecutable(cachePath, ts.Path)
}

func (v *Verifier) download(ctx context.Context, cachePath string, ts *spec.TargetSpec) error {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(cachePath), "download-*")
	if err != nil {
		return fmt.Errorf("creating temp file for download: %w", err)
	}
	defer os.Remove(tmpFile.Name()) // clean up if it didn't get moved
	defer tmpFile.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	if err != nil {
		return fmt.Errorf("creating http request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("performing http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected http status: %s", resp.Status)
	}

	// download and hash on the fly
	actual, size, err := digest.OfReader(io.TeeReader(resp.Body, tmpFile))
	if err != nil {
		return fmt.Errorf("downloading archive: %w", err)
	}
	if uint64(size) != ts.Size {
		return fmt.Errorf("size mismatch: expected %d, got %d", ts.Size, size)
	}
	if actual != ts.Digest {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", ts.Digest, actual)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing download: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), cachePath); err != nil {
		return fmt.Errorf("moving file to cache: %w", err)
	}

	log.Info().
		Str("path", cachePath).
		Msg("archive downloaded and cached")
	return nil
}

// ErrNotExecutable is returned when the archive lacks the executable or it has no execute bit.
var ErrNotExecutable = errors.New("archive does not contain the executable")

// CheckExecutable reports whether the zip at archivePath holds exe as a regular file with an
// execute bit, which is what the generated script tests after extracting it.
func CheckExecutable(archivePath string, exe relpath.Path) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != exe.String() {
			continue
		}
		mode := f.Mode()
		if !mode.IsRegular() || mode.Perm()&0o111 == 0 {
			return fmt.Errorf("%w: %s has mode %s", ErrNotExecutable, exe, mode)
		}
		return nil
	}
	return fmt.Errorf("%w: %s not found", ErrNotExecutable, exe)
}
