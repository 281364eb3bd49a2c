// Package digest holds the SHA-256 value that names an installed archive.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Size is the length of a digest in bytes.
const Size = sha256.Size

// HexLen is the length of the textual form.
const HexLen = Size * 2

// Digest is a SHA-256 value. The zero value is a valid (all-zero) digest.
type Digest [Size]byte

// Parse decodes a hex digest. Upper-case input is accepted; String always yields lower case.
func Parse(s string) (Digest, error) {
	var d Digest
	if len(s) != HexLen {
		return d, fmt.Errorf("incorrect sha-256 length: got %d hex characters, want %d", len(s), HexLen)
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, fmt.Errorf("parse sha-256 from hex string: %w", err)
	}
	return d, nil
}

// String returns the lower-case hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// OfReader hashes everything read from r and reports the number of bytes consumed.
func OfReader(r io.Reader) (Digest, int64, error) {
	var d Digest
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return d, n, err
	}
	copy(d[:], h.Sum(nil))
	return d, n, nil
}

// OfFile computes the digest and size of the file at the specified path.
func OfFile(path string) (Digest, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, 0, err
	}
	defer f.Close()
	return OfReader(f)
}
