package userdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/hnrobert/bloghost/internal/hostfs"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrGroupNotFound = errors.New("group not found")
)

// System groups (one per category) are allocated in this GID range so
// they never collide with per-user groups, which start at 1000.
const (
	systemGIDMin = 900
	systemGIDMax = 1000
)

// DB mutates the account database by rewriting the passwd, shadow and
// group files directly.
type DB struct {
	PasswdPath string
	ShadowPath string
	GroupPath  string
}

func NewDefault() (*DB, error) {
	passwd, err := hostfs.Abs(hostfs.EtcPasswd)
	if err != nil {
		return nil, err
	}
	shadow, err := hostfs.Abs(hostfs.EtcShadow)
	if err != nil {
		return nil, err
	}
	group, err := hostfs.Abs(hostfs.EtcGroup)
	if err != nil {
		return nil, err
	}
	return &DB{PasswdPath: passwd, ShadowPath: shadow, GroupPath: group}, nil
}

func (db *DB) loadAll() (*PasswdFile, *ShadowFile, *GroupFile, error) {
	pw, err := LoadPasswd(db.PasswdPath)
	if err != nil {
		return nil, nil, nil, err
	}
	sh, err := LoadShadow(db.ShadowPath)
	if err != nil {
		return nil, nil, nil, err
	}
	gr, err := LoadGroup(db.GroupPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return pw, sh, gr, nil
}

func (db *DB) persist(pw *PasswdFile, sh *ShadowFile, gr *GroupFile) error {
	if pw != nil {
		if err := hostfs.WriteFileAtomic(db.PasswdPath, pw.Bytes(), 0644); err != nil {
			return err
		}
	}
	if sh != nil {
		if err := hostfs.WriteFileAtomic(db.ShadowPath, sh.Bytes(), 0600); err != nil {
			return err
		}
	}
	if gr != nil {
		if err := hostfs.WriteFileAtomic(db.GroupPath, gr.Bytes(), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether the account is present in the passwd file.
func (db *DB) Exists(username string) (bool, error) {
	pw, err := LoadPasswd(db.PasswdPath)
	if err != nil {
		return false, err
	}
	return pw.Find(username) != nil, nil
}

type CreateRequest struct {
	Username string
	Gecos    string // display name
	Home     string
	Group    string // supplementary category group, must already exist
	Password string // optional initial plaintext password
}

// Create adds a new account with a per-user primary group. The home
// directory itself is provisioned separately.
func (db *DB) Create(req CreateRequest) error {
	if !validUsername(req.Username) {
		return fmt.Errorf("invalid username: %q", req.Username)
	}
	pw, sh, gr, err := db.loadAll()
	if err != nil {
		return err
	}
	if pw.Find(req.Username) != nil || sh.Find(req.Username) != nil {
		return fmt.Errorf("user already exists: %s", req.Username)
	}

	primary := gr.Find(req.Username)
	if primary == nil {
		gid := gr.NextGID(1000)
		if err := gr.Add(GroupEntry{Name: req.Username, Passwd: "x", GID: gid}); err != nil {
			return err
		}
		primary = gr.Find(req.Username)
	}
	uid := pw.NextUID(1000)

	if err := pw.Add(PasswdEntry{
		Name:   req.Username,
		Passwd: "x",
		UID:    uid,
		GID:    primary.GID,
		Gecos:  req.Gecos,
		Home:   req.Home,
		Shell:  "/bin/bash",
	}); err != nil {
		return err
	}

	hash := lockedHash
	if req.Password != "" {
		hash, err = hashPassword(req.Password)
		if err != nil {
			return err
		}
	}
	days := fmt.Sprintf("%d", time.Now().Unix()/86400)
	if err := sh.Add(ShadowEntry{
		Name:       req.Username,
		Hash:       hash,
		LastChange: days,
		Min:        "0",
		Max:        "99999",
		Warn:       "7",
	}); err != nil {
		return err
	}

	if req.Group != "" {
		if err := gr.AddMember(req.Group, req.Username); err != nil {
			return err
		}
	}
	return db.persist(pw, sh, gr)
}

// EnsureGroup creates a system group if absent. Creating an existing
// group is a no-op.
func (db *DB) EnsureGroup(name string) error {
	gr, err := LoadGroup(db.GroupPath)
	if err != nil {
		return err
	}
	if gr.Find(name) != nil {
		return nil
	}
	gid, err := gr.NextSystemGID(systemGIDMin, systemGIDMax)
	if err != nil {
		return err
	}
	if err := gr.Add(GroupEntry{Name: name, Passwd: "x", GID: gid}); err != nil {
		return err
	}
	return db.persist(nil, nil, gr)
}

// AddMember adds user to group; membership is idempotent.
func (db *DB) AddMember(group, user string) error {
	gr, err := LoadGroup(db.GroupPath)
	if err != nil {
		return err
	}
	if gr.Find(group) == nil {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, group)
	}
	if err := gr.AddMember(group, user); err != nil {
		return err
	}
	return db.persist(nil, nil, gr)
}

// Lock forces the account's expiry into the past.
func (db *DB) Lock(username string) error {
	return db.setExpire(username, lockedExpireDay)
}

// Unlock clears the account's expiry.
func (db *DB) Unlock(username string) error {
	return db.setExpire(username, "")
}

func (db *DB) setExpire(username, expire string) error {
	sh, err := LoadShadow(db.ShadowPath)
	if err != nil {
		return err
	}
	if sh.Find(username) == nil {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err := sh.SetExpire(username, expire); err != nil {
		return err
	}
	return db.persist(nil, sh, nil)
}

// LookupIDs resolves an account's uid and primary gid.
func (db *DB) LookupIDs(username string) (uid, gid int, err error) {
	pw, err := LoadPasswd(db.PasswdPath)
	if err != nil {
		return 0, 0, err
	}
	e := pw.Find(username)
	if e == nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return e.UID, e.GID, nil
}

// GroupGID resolves a group's gid.
func (db *DB) GroupGID(name string) (int, error) {
	gr, err := LoadGroup(db.GroupPath)
	if err != nil {
		return 0, err
	}
	g := gr.Find(name)
	if g == nil {
		return 0, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	return g.GID, nil
}
