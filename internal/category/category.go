package category

import "fmt"

// Category is the closed set of account classes the provisioner manages.
// Each value is bound to exactly one OS group and one base directory.
type Category int

const (
	Users Category = iota
	Authors
	Mods
	Admins
)

// All returns the categories in reconciliation order.
func All() []Category {
	return []Category{Users, Authors, Mods, Admins}
}

func (c Category) String() string {
	switch c {
	case Users:
		return "users"
	case Authors:
		return "authors"
	case Mods:
		return "mods"
	case Admins:
		return "admins"
	}
	panic(fmt.Sprintf("unknown category %d", int(c)))
}

// Group returns the OS group bound to the category.
func (c Category) Group() string {
	switch c {
	case Users:
		return "g_user"
	case Authors:
		return "g_author"
	case Mods:
		return "g_mod"
	case Admins:
		return "g_admin"
	}
	panic(fmt.Sprintf("unknown category %d", int(c)))
}

// BaseDir returns the absolute host path that holds the category's homes.
func (c Category) BaseDir() string {
	switch c {
	case Users:
		return "/home/users"
	case Authors:
		return "/home/authors"
	case Mods:
		return "/home/mods"
	case Admins:
		return "/home/admin"
	}
	panic(fmt.Sprintf("unknown category %d", int(c)))
}

// HomeMode is the mode applied to a home directory in the category.
func (c Category) HomeMode() uint32 {
	switch c {
	case Users, Authors, Admins:
		return 0700
	case Mods:
		return 0750
	}
	panic(fmt.Sprintf("unknown category %d", int(c)))
}

// protected identities are never locked, whatever the desired state says.
var protected = map[string]bool{
	"root":  true,
	"sysop": true,
}

// Protected reports whether username is exempt from the lock action.
func Protected(username string) bool {
	return protected[username]
}
