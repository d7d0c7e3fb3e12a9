package hostfs

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
)

var ErrInvalidPath = errors.New("invalid host path")

var (
	rootMu sync.RWMutex
	root   = "/"
)

// SetRoot relocates every host path under dir. The default is the real
// filesystem root; staging environments and tests point it at a scratch
// directory instead.
func SetRoot(dir string) {
	rootMu.Lock()
	defer rootMu.Unlock()
	if dir == "" {
		dir = "/"
	}
	root = filepath.Clean(dir)
}

func Root() string {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// Abs maps an absolute host path (e.g. /home/authors/alice/public)
// into the effective path under the configured root.
func Abs(abs string) (string, error) {
	if abs == "" || !strings.HasPrefix(abs, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(abs)
	if !strings.HasPrefix(clean, "/") {
		return "", ErrInvalidPath
	}
	return filepath.Join(Root(), strings.TrimPrefix(clean, "/")), nil
}
