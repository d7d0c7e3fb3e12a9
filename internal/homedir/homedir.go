package homedir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hnrobert/bloghost/internal/category"
	"github.com/hnrobert/bloghost/internal/hostfs"
	"github.com/hnrobert/bloghost/internal/userdb"
)

// Author sub-tree: blogs is the private workspace, public is the only
// directory ever exposed through symlinks and ACL grants.
const (
	BlogsDir  = "blogs"
	PublicDir = "public"

	blogsMode  = 0700
	publicMode = 0755
)

// Manager creates and normalizes home directories. All operations are
// idempotent: re-applying to a correct directory changes nothing.
type Manager struct {
	DB *userdb.DB
}

func New(db *userdb.DB) *Manager {
	return &Manager{DB: db}
}

// Provision ensures the home directory for username exists with the
// category mode and username:username ownership, plus the author
// sub-tree for the AUTHORS category.
func (m *Manager) Provision(c category.Category, username string) error {
	uid, gid, err := m.DB.LookupIDs(username)
	if err != nil {
		return err
	}
	home, err := hostfs.Abs(filepath.Join(c.BaseDir(), username))
	if err != nil {
		return err
	}
	if err := ensureOwnedDir(home, os.FileMode(c.HomeMode()), uid, gid); err != nil {
		return fmt.Errorf("provision home for %s: %w", username, err)
	}
	if c != category.Authors {
		return nil
	}
	for _, sub := range []struct {
		name string
		mode os.FileMode
	}{
		{BlogsDir, blogsMode},
		{PublicDir, publicMode},
	} {
		if err := ensureOwnedDir(filepath.Join(home, sub.name), sub.mode, uid, gid); err != nil {
			return fmt.Errorf("provision %s for %s: %w", sub.name, username, err)
		}
	}
	return nil
}

func ensureOwnedDir(path string, mode os.FileMode, uid, gid int) error {
	if err := hostfs.EnsureDir(path, mode); err != nil {
		return err
	}
	// MkdirAll leaves an existing directory's mode alone; normalize it.
	if err := os.Chmod(path, mode); err != nil {
		return err
	}
	return os.Chown(path, uid, gid)
}
