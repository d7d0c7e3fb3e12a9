package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hnrobert/bloghost/internal/category"
	"github.com/hnrobert/bloghost/internal/logger"
)

// ErrParse marks a malformed desired-state document. Parse failures are
// fatal and abort the run before any mutation.
var ErrParse = errors.New("desired-state parse error")

// User is one declared account.
type User struct {
	Username string `yaml:"username"`
	Name     string `yaml:"name"`
	// Password is an optional initial plaintext password, hashed at
	// creation time only. Absent means the account starts with no
	// usable password.
	Password string `yaml:"password,omitempty"`
}

// Assignment links a moderator to the authors it reviews.
type Assignment struct {
	Username string   `yaml:"username"`
	Authors  []string `yaml:"authors"`
}

// DesiredState is the full declared state for one reconciliation pass.
type DesiredState struct {
	Users       map[category.Category][]User
	Assignments []Assignment
}

// AuthorsFor returns the author set assigned to a moderator. A moderator
// without an assignment entry gets an empty set, so its link tree is
// emptied rather than left stale.
func (d *DesiredState) AuthorsFor(mod string) []string {
	for _, a := range d.Assignments {
		if a.Username == mod {
			return a.Authors
		}
	}
	return []string{}
}

type document struct {
	Users      []User      `yaml:"users"`
	Authors    []User      `yaml:"authors"`
	Mods       []User      `yaml:"mods"`
	Admins     []User      `yaml:"admins"`
	Moderators []yaml.Node `yaml:"moderators"`
}

// Load reads and validates the desired-state document.
func Load(path string) (*DesiredState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	ds := &DesiredState{
		Users: map[category.Category][]User{
			category.Users:   emptyIfNil(doc.Users),
			category.Authors: emptyIfNil(doc.Authors),
			category.Mods:    emptyIfNil(doc.Mods),
			category.Admins:  emptyIfNil(doc.Admins),
		},
	}
	for _, c := range category.All() {
		if err := checkUnique(c, ds.Users[c]); err != nil {
			return nil, err
		}
	}

	// Assignment entries are decoded one by one: a single malformed
	// entry degrades to an empty author set for that moderator instead
	// of failing the whole load.
	for _, n := range doc.Moderators {
		var a Assignment
		if err := n.Decode(&a); err != nil || a.Username == "" {
			logger.Warn("ignoring malformed moderator assignment entry: %v", err)
			continue
		}
		if a.Authors == nil {
			a.Authors = []string{}
		}
		ds.Assignments = append(ds.Assignments, a)
	}
	return ds, nil
}

func emptyIfNil(us []User) []User {
	if us == nil {
		return []User{}
	}
	return us
}

func checkUnique(c category.Category, us []User) error {
	seen := map[string]bool{}
	for _, u := range us {
		if u.Username == "" {
			return fmt.Errorf("%w: %s entry with empty username", ErrParse, c)
		}
		if seen[u.Username] {
			return fmt.Errorf("%w: duplicate username %q in %s", ErrParse, u.Username, c)
		}
		seen[u.Username] = true
	}
	return nil
}
