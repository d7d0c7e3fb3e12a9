package symlinks

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hnrobert/bloghost/internal/category"
	"github.com/hnrobert/bloghost/internal/fsacl"
	"github.com/hnrobert/bloghost/internal/homedir"
	"github.com/hnrobert/bloghost/internal/hostfs"
	"github.com/hnrobert/bloghost/internal/logger"
	"github.com/hnrobert/bloghost/internal/userdb"
)

// AllBlogsDir is the per-user directory exposing every author's public tree.
const AllBlogsDir = "all_blogs"

const (
	permRWX = fsacl.PermRead | fsacl.PermWrite | fsacl.PermExecute
	permRX  = fsacl.PermRead | fsacl.PermExecute
)

// Builder rebuilds the moderator and all_blogs symlink trees. Each
// rebuild clears the existing symlinks first so the link set exactly
// matches the current assignments; non-symlink entries are left alone.
type Builder struct {
	DB  *userdb.DB
	ACL fsacl.Applier
}

func New(db *userdb.DB, acl fsacl.Applier) *Builder {
	return &Builder{DB: db, ACL: acl}
}

// RebuildModeratorView relinks mod's home directory to the public
// directory of every assigned author and grants the moderator group
// rwx (explicit and default) on each target. Authors without a public
// directory yet are skipped.
func (b *Builder) RebuildModeratorView(mod string, authors []string) error {
	linkDir, err := b.ensureLinkDir(filepath.Join(category.Mods.BaseDir(), mod), mod, 0750)
	if err != nil {
		return err
	}
	if err := clearSymlinks(linkDir); err != nil {
		return err
	}

	gid, err := b.DB.GroupGID(category.Mods.Group())
	if err != nil {
		return err
	}
	grant := fsacl.Entry{Tag: fsacl.TagGroup, Qualifier: uint32(gid), Perms: permRWX}

	for _, author := range authors {
		pub, ok, err := authorPublic(author)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := os.Symlink(pub, filepath.Join(linkDir, author)); err != nil {
			logger.Warn("moderator %s: link %s: %v", mod, author, err)
			continue
		}
		b.grantBoth(pub, grant, fmt.Sprintf("moderator %s -> %s", mod, author))
	}
	return nil
}

// RebuildAllBlogs relinks user's all_blogs directory to every author
// directory currently on disk that has a public subdirectory, and grants
// the user r-x (explicit and default) on each target. This is driven by
// the directories present under the authors base, not by desired state,
// so content of authors no longer declared stays visible.
func (b *Builder) RebuildAllBlogs(user string) error {
	uid, _, err := b.DB.LookupIDs(user)
	if err != nil {
		return err
	}
	dir := filepath.Join(category.Users.BaseDir(), user, AllBlogsDir)
	linkDir, err := b.ensureLinkDir(dir, user, 0755)
	if err != nil {
		return err
	}
	if err := clearSymlinks(linkDir); err != nil {
		return err
	}

	authorsBase, err := hostfs.Abs(category.Authors.BaseDir())
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(authorsBase)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	grant := fsacl.Entry{Tag: fsacl.TagUser, Qualifier: uint32(uid), Perms: permRX}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		author := e.Name()
		pub, ok, err := authorPublic(author)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := os.Symlink(pub, filepath.Join(linkDir, author)); err != nil {
			logger.Warn("all_blogs for %s: link %s: %v", user, author, err)
			continue
		}
		b.grantBoth(pub, grant, fmt.Sprintf("all_blogs %s -> %s", user, author))
	}
	return nil
}

func (b *Builder) ensureLinkDir(hostPath, owner string, mode os.FileMode) (string, error) {
	uid, gid, err := b.DB.LookupIDs(owner)
	if err != nil {
		return "", err
	}
	dir, err := hostfs.Abs(hostPath)
	if err != nil {
		return "", err
	}
	if err := hostfs.EnsureDir(dir, mode); err != nil {
		return "", err
	}
	if err := os.Chown(dir, uid, gid); err != nil {
		return "", err
	}
	return dir, nil
}

// grantBoth applies an explicit and a default ACL entry; a failed grant
// is logged and skipped, the pass continues.
func (b *Builder) grantBoth(path string, e fsacl.Entry, ctx string) {
	if err := b.ACL.Grant(path, e); err != nil {
		logger.Warn("acl grant failed (%s): %v", ctx, err)
	}
	if err := b.ACL.GrantDefault(path, e); err != nil {
		logger.Warn("default acl grant failed (%s): %v", ctx, err)
	}
}

// authorPublic resolves an author's public directory; ok is false when
// the directory does not exist yet.
func authorPublic(author string) (string, bool, error) {
	pub, err := hostfs.Abs(filepath.Join(category.Authors.BaseDir(), author, homedir.PublicDir))
	if err != nil {
		return "", false, err
	}
	st, err := os.Stat(pub)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if !st.IsDir() {
		return "", false, nil
	}
	return pub, true, nil
}

func clearSymlinks(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Type()&os.ModeSymlink == 0 {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
