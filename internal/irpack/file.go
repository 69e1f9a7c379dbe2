package irpack

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"cflat/internal/ir"
)

// Digest is the sha256 content hash of a module's encoded form.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// HashModule computes the content digest of a module. Two modules with the
// same encoded form share a digest.
func HashModule(m *ir.Module) (Digest, error) {
	data, err := Marshal(m)
	if err != nil {
		return Digest{}, err
	}
	return sha256.Sum256(data), nil
}

// Save writes a module to path atomically.
func Save(path string, m *ir.Module) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}

// Load reads a module from path.
func Load(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
