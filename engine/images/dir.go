// Package images provides ImageResolver implementations.
package images

import (
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// DIR RESOLVER - Image references are file names under a base directory
// =============================================================================

// Dir resolves references as file names under a base directory. References
// must stay inside the directory; anything that escapes it is treated as
// nonexistent.
type Dir struct {
	Base string
}

func NewDir(base string) *Dir { return &Dir{Base: base} }

func (d *Dir) path(ref string) (string, bool) {
	p := filepath.Join(d.Base, filepath.Clean("/"+ref))
	if !strings.HasPrefix(p, filepath.Clean(d.Base)+string(os.PathSeparator)) {
		return "", false
	}
	return p, true
}

func (d *Dir) Exists(ref string) bool {
	p, ok := d.path(ref)
	if !ok {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (d *Dir) Read(ref string) ([]byte, error) {
	p, ok := d.path(ref)
	if !ok {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(p)
}
