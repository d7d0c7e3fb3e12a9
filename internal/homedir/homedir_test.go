package homedir

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/bloghost/internal/category"
	"github.com/hnrobert/bloghost/internal/hostfs"
	"github.com/hnrobert/bloghost/internal/userdb"
)

// Fixture accounts carry the current uid/gid so chown stays permitted
// for an unprivileged test run.
func setup(t *testing.T) *userdb.DB {
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
	passwd := fmt.Sprintf("alice:x:%d:%d:Alice A:/home/authors/alice:/bin/bash\n"+
		"mia:x:%d:%d:Mia M:/home/mods/mia:/bin/bash\n", uid, gid, uid, gid)
	require.NoError(t, os.WriteFile(db.PasswdPath, []byte(passwd), 0644))
	require.NoError(t, os.WriteFile(db.ShadowPath, []byte("alice:!:19000:0:99999:7:::\nmia:!:19000:0:99999:7:::\n"), 0600))
	require.NoError(t, os.WriteFile(db.GroupPath, []byte(""), 0644))
	return db
}

func mode(t *testing.T, path string) os.FileMode {
	t.Helper()
	st, err := os.Stat(path)
	require.NoError(t, err)
	return st.Mode().Perm()
}

func TestProvisionAuthorTree(t *testing.T) {
	db := setup(t)
	m := New(db)

	require.NoError(t, m.Provision(category.Authors, "alice"))

	home := filepath.Join(hostfs.Root(), "home/authors/alice")
	assert.Equal(t, os.FileMode(0700), mode(t, home))
	assert.Equal(t, os.FileMode(0700), mode(t, filepath.Join(home, BlogsDir)))
	assert.Equal(t, os.FileMode(0755), mode(t, filepath.Join(home, PublicDir)))
}

func TestProvisionModeratorHomeMode(t *testing.T) {
	db := setup(t)
	m := New(db)

	require.NoError(t, m.Provision(category.Mods, "mia"))

	home := filepath.Join(hostfs.Root(), "home/mods/mia")
	assert.Equal(t, os.FileMode(0750), mode(t, home))
	assert.NoDirExists(t, filepath.Join(home, BlogsDir), "author sub-tree is authors-only")
}

func TestProvisionNormalizesExistingMode(t *testing.T) {
	db := setup(t)
	m := New(db)

	home := filepath.Join(hostfs.Root(), "home/authors/alice")
	require.NoError(t, os.MkdirAll(home, 0777))

	require.NoError(t, m.Provision(category.Authors, "alice"))
	assert.Equal(t, os.FileMode(0700), mode(t, home))
}

func TestProvisionIsIdempotent(t *testing.T) {
	db := setup(t)
	m := New(db)

	require.NoError(t, m.Provision(category.Authors, "alice"))
	require.NoError(t, m.Provision(category.Authors, "alice"))

	home := filepath.Join(hostfs.Root(), "home/authors/alice")
	assert.Equal(t, os.FileMode(0700), mode(t, home))
	assert.Equal(t, os.FileMode(0755), mode(t, filepath.Join(home, PublicDir)))
}

func TestProvisionUnknownUserFails(t *testing.T) {
	db := setup(t)
	m := New(db)
	assert.ErrorIs(t, m.Provision(category.Users, "ghost"), userdb.ErrUserNotFound)
}
