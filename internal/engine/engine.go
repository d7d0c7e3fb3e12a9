package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hnrobert/bloghost/internal/category"
	"github.com/hnrobert/bloghost/internal/config"
	"github.com/hnrobert/bloghost/internal/fsacl"
	"github.com/hnrobert/bloghost/internal/homedir"
	"github.com/hnrobert/bloghost/internal/hostfs"
	"github.com/hnrobert/bloghost/internal/logger"
	"github.com/hnrobert/bloghost/internal/symlinks"
	"github.com/hnrobert/bloghost/internal/userdb"
)

// Engine reconciles the live system with the desired state in one
// sequential pass.
type Engine struct {
	DB    *userdb.DB
	Homes *homedir.Manager
	Links *symlinks.Builder
	ACL   fsacl.Applier
}

func New(db *userdb.DB, acl fsacl.Applier) *Engine {
	return &Engine{
		DB:    db,
		Homes: homedir.New(db),
		Links: symlinks.New(db, acl),
		ACL:   acl,
	}
}

// Summary counts the corrective actions of one pass.
type Summary struct {
	Created   int
	Unlocked  int
	Locked    int
	Protected int // lock skipped on a protected identity
	Failed    int // recoverable per-item failures
}

// Run executes one reconciliation pass against the desired-state
// document at cfgPath. It returns an error only for fatal conditions
// (parse failure, account creation failure); per-item failures are
// logged, counted and skipped.
func (e *Engine) Run(cfgPath string) (*Summary, error) {
	runID := uuid.NewString()
	logger.Info("reconciliation run %s starting (config %s)", runID, cfgPath)

	ds, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}

	// Removal detection runs for USERS and AUTHORS only; MODS and
	// ADMINS accounts are never auto-locked.
	for _, c := range []category.Category{category.Users, category.Authors} {
		observed, err := Observe(c)
		if err != nil {
			return nil, err
		}
		e.lockRemoved(c, observed, ds.Users[c], sum)
	}

	for _, c := range category.All() {
		if err := e.DB.EnsureGroup(c.Group()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrGroupCreate, c.Group(), err)
		}
		if err := ensureBaseDir(c); err != nil {
			return nil, err
		}
		for _, u := range ds.Users[c] {
			if err := e.provision(c, u, sum); err != nil {
				return nil, err
			}
		}
	}

	for _, m := range ds.Users[category.Mods] {
		if err := e.Links.RebuildModeratorView(m.Username, ds.AuthorsFor(m.Username)); err != nil {
			logger.Error("moderator view for %s: %v", m.Username, err)
			sum.Failed++
		}
	}

	for _, u := range ds.Users[category.Users] {
		if err := e.Links.RebuildAllBlogs(u.Username); err != nil {
			logger.Error("all_blogs for %s: %v", u.Username, err)
			sum.Failed++
		}
	}

	for _, a := range ds.Users[category.Admins] {
		e.grantAdmin(a.Username, sum)
	}

	logger.Info("run %s done: created=%d unlocked=%d locked=%d protected=%d failed=%d",
		runID, sum.Created, sum.Unlocked, sum.Locked, sum.Protected, sum.Failed)
	return sum, nil
}

// ensureBaseDir creates a category's base directory. Homes are created
// beneath it with their own modes; the base itself stays root-owned and
// world-traversable.
func ensureBaseDir(c category.Category) error {
	base, err := hostfs.Abs(c.BaseDir())
	if err != nil {
		return err
	}
	return hostfs.EnsureDir(base, 0755)
}

// lockRemoved locks every observed account in c that the desired state
// no longer declares. Protected identities are exempt. Lock failures
// are tolerated.
func (e *Engine) lockRemoved(c category.Category, observed []string, desired []config.User, sum *Summary) {
	want := map[string]bool{}
	for _, u := range desired {
		want[u.Username] = true
	}
	for _, name := range observed {
		if want[name] {
			continue
		}
		if category.Protected(name) {
			logger.Info("skipping lock of protected identity %s (%s)", name, c)
			sum.Protected++
			continue
		}
		if err := e.DB.Lock(name); err != nil {
			logger.Error("lock %s (%s): %v", name, c, err)
			sum.Failed++
			continue
		}
		logger.Info("locked removed account %s (%s)", name, c)
		sum.Locked++
	}
}

// provision creates or unlocks one desired account and normalizes its
// home tree. Creation and home provisioning failures are fatal; a
// failed unlock is logged and the pass continues.
func (e *Engine) provision(c category.Category, u config.User, sum *Summary) error {
	exists, err := e.DB.Exists(u.Username)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAccountCreate, u.Username, err)
	}
	if exists {
		if err := e.DB.Unlock(u.Username); err != nil {
			logger.Warn("unlock %s (%s): %v", u.Username, c, err)
			sum.Failed++
		} else {
			sum.Unlocked++
		}
	} else {
		req := userdb.CreateRequest{
			Username: u.Username,
			Gecos:    u.Name,
			Home:     c.BaseDir() + "/" + u.Username,
			Group:    c.Group(),
			Password: u.Password,
		}
		if err := e.DB.Create(req); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrAccountCreate, u.Username, err)
		}
		logger.Info("created account %s (%s)", u.Username, c)
		sum.Created++
	}
	if err := e.Homes.Provision(c, u.Username); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAccountCreate, u.Username, err)
	}
	return nil
}
