package symlinks

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/bloghost/internal/fsacl"
	"github.com/hnrobert/bloghost/internal/hostfs"
	"github.com/hnrobert/bloghost/internal/userdb"
)

type grantRecord struct {
	path    string
	entry   fsacl.Entry
	inherit bool
}

type aclRecorder struct {
	grants []grantRecord
}

func (r *aclRecorder) Grant(path string, e fsacl.Entry) error {
	r.grants = append(r.grants, grantRecord{path: path, entry: e})
	return nil
}

func (r *aclRecorder) GrantDefault(path string, e fsacl.Entry) error {
	r.grants = append(r.grants, grantRecord{path: path, entry: e, inherit: true})
	return nil
}

func (r *aclRecorder) count(path string, tag fsacl.Tag, qual uint32, perms fsacl.Perm, inherit bool) int {
	n := 0
	for _, g := range r.grants {
		if g.path == path && g.entry.Tag == tag && g.entry.Qualifier == qual && g.entry.Perms == perms && g.inherit == inherit {
			n++
		}
	}
	return n
}

const modGID = 902

func setup(t *testing.T) (*userdb.DB, *aclRecorder, *Builder) {
	t.Helper()
	root := t.TempDir()
	hostfs.SetRoot(root)
	t.Cleanup(func() { hostfs.SetRoot("/") })

	uid, gid := os.Getuid(), os.Getgid()
	etc := filepath.Join(root, "etc")
	require.NoError(t, os.MkdirAll(etc, 0755))
	db := &userdb.DB{
		PasswdPath: filepath.Join(etc, "passwd"),
		ShadowPath: filepath.Join(etc, "shadow"),
		GroupPath:  filepath.Join(etc, "group"),
	}
	passwd := ""
	shadow := ""
	for _, name := range []string{"bob", "carol", "alice", "anna"} {
		passwd += fmt.Sprintf("%s:x:%d:%d::/home/x/%s:/bin/bash\n", name, uid, gid, name)
		shadow += name + ":!:19000:0:99999:7:::\n"
	}
	require.NoError(t, os.WriteFile(db.PasswdPath, []byte(passwd), 0644))
	require.NoError(t, os.WriteFile(db.ShadowPath, []byte(shadow), 0600))
	require.NoError(t, os.WriteFile(db.GroupPath, []byte(fmt.Sprintf("g_mod:x:%d:\n", modGID)), 0644))

	rec := &aclRecorder{}
	return db, rec, New(db, rec)
}

func mkAuthor(t *testing.T, name string, withPublic bool) string {
	t.Helper()
	dir := filepath.Join(hostfs.Root(), "home/authors", name)
	require.NoError(t, os.MkdirAll(dir, 0700))
	if !withPublic {
		return ""
	}
	pub := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(pub, 0755))
	return pub
}

func links(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if e.Type()&os.ModeSymlink != 0 {
			out = append(out, e.Name())
		}
	}
	return out
}

func TestModeratorViewExactness(t *testing.T) {
	_, rec, b := setup(t)
	alicePub := mkAuthor(t, "alice", true)
	mkAuthor(t, "anna", true)

	modDir := filepath.Join(hostfs.Root(), "home/mods/bob")
	require.NoError(t, os.MkdirAll(modDir, 0750))
	// Stale link and a regular file: the rebuild must remove only the link.
	require.NoError(t, os.Symlink("/nowhere", filepath.Join(modDir, "ghost")))
	require.NoError(t, os.WriteFile(filepath.Join(modDir, "notes.txt"), []byte("keep"), 0644))

	require.NoError(t, b.RebuildModeratorView("bob", []string{"alice"}))

	assert.Equal(t, []string{"alice"}, links(t, modDir))
	assert.FileExists(t, filepath.Join(modDir, "notes.txt"))

	target, err := os.Readlink(filepath.Join(modDir, "alice"))
	require.NoError(t, err)
	assert.Equal(t, alicePub, target)

	rwx := fsacl.PermRead | fsacl.PermWrite | fsacl.PermExecute
	assert.Equal(t, 1, rec.count(alicePub, fsacl.TagGroup, modGID, rwx, false))
	assert.Equal(t, 1, rec.count(alicePub, fsacl.TagGroup, modGID, rwx, true))
}

func TestModeratorViewSkipsAuthorWithoutPublic(t *testing.T) {
	_, rec, b := setup(t)
	mkAuthor(t, "alice", false)

	require.NoError(t, b.RebuildModeratorView("bob", []string{"alice"}))

	modDir := filepath.Join(hostfs.Root(), "home/mods/bob")
	assert.Empty(t, links(t, modDir))
	assert.Empty(t, rec.grants)
}

func TestModeratorViewEmptyAssignmentClearsTree(t *testing.T) {
	_, _, b := setup(t)
	mkAuthor(t, "alice", true)

	modDir := filepath.Join(hostfs.Root(), "home/mods/bob")
	require.NoError(t, b.RebuildModeratorView("bob", []string{"alice"}))
	require.NoError(t, b.RebuildModeratorView("bob", []string{}))
	assert.Empty(t, links(t, modDir))
}

func TestAllBlogsDrivenByDisk(t *testing.T) {
	db, rec, b := setup(t)
	alicePub := mkAuthor(t, "alice", true)
	mkAuthor(t, "anna", true)
	mkAuthor(t, "bare", false)

	require.NoError(t, b.RebuildAllBlogs("carol"))

	dir := filepath.Join(hostfs.Root(), "home/users/carol", AllBlogsDir)
	assert.ElementsMatch(t, []string{"alice", "anna"}, links(t, dir))

	uid, _, err := db.LookupIDs("carol")
	require.NoError(t, err)
	rx := fsacl.PermRead | fsacl.PermExecute
	assert.Equal(t, 1, rec.count(alicePub, fsacl.TagUser, uint32(uid), rx, false))
	assert.Equal(t, 1, rec.count(alicePub, fsacl.TagUser, uint32(uid), rx, true))
}

func TestAllBlogsIdempotent(t *testing.T) {
	_, _, b := setup(t)
	mkAuthor(t, "alice", true)

	require.NoError(t, b.RebuildAllBlogs("carol"))
	require.NoError(t, b.RebuildAllBlogs("carol"))

	dir := filepath.Join(hostfs.Root(), "home/users/carol", AllBlogsDir)
	assert.Equal(t, []string{"alice"}, links(t, dir))
}

func TestAllBlogsNoAuthorsBase(t *testing.T) {
	_, _, b := setup(t)
	require.NoError(t, b.RebuildAllBlogs("carol"))
	dir := filepath.Join(hostfs.Root(), "home/users/carol", AllBlogsDir)
	assert.Empty(t, links(t, dir))
}
