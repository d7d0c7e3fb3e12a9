package engine

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hnrobert/bloghost/internal/category"
	"github.com/hnrobert/bloghost/internal/fsacl"
	"github.com/hnrobert/bloghost/internal/hostfs"
	"github.com/hnrobert/bloghost/internal/logger"
)

const adminPerms = fsacl.PermRead | fsacl.PermWrite | fsacl.PermExecute

// grantAdmin adds the admin to every category group and grants it
// recursive rwx ACL on every base directory. Grants are additive only
// and best effort: each failure is logged and skipped.
func (e *Engine) grantAdmin(admin string, sum *Summary) {
	for _, c := range category.All() {
		if err := e.DB.AddMember(c.Group(), admin); err != nil {
			logger.Warn("admin %s: membership in %s: %v", admin, c.Group(), err)
			sum.Failed++
		}
	}

	uid, _, err := e.DB.LookupIDs(admin)
	if err != nil {
		logger.Warn("admin %s: uid lookup: %v", admin, err)
		sum.Failed++
		return
	}
	grant := fsacl.Entry{Tag: fsacl.TagUser, Qualifier: uint32(uid), Perms: adminPerms}

	for _, c := range category.All() {
		base, err := hostfs.Abs(c.BaseDir())
		if err != nil {
			logger.Warn("admin %s: base dir for %s: %v", admin, c, err)
			sum.Failed++
			continue
		}
		if _, err := os.Stat(base); os.IsNotExist(err) {
			continue
		}
		err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("admin %s: walk %s: %v", admin, path, err)
				sum.Failed++
				return nil
			}
			// Symlinks are skipped: the grant lands on the target via
			// its own containing tree.
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if err := e.ACL.Grant(path, grant); err != nil {
				logger.Warn("admin %s: acl on %s: %v", admin, path, err)
				sum.Failed++
			}
			if d.IsDir() {
				if err := e.ACL.GrantDefault(path, grant); err != nil {
					logger.Warn("admin %s: default acl on %s: %v", admin, path, err)
					sum.Failed++
				}
			}
			return nil
		})
		if err != nil {
			logger.Warn("admin %s: walk %s: %v", admin, base, err)
			sum.Failed++
		}
	}
}
