package fsacl

// Applier is the narrow interface the link and admin stages use to grant
// access. Grant adds one access entry; GrantDefault additionally makes
// the grant inheritable by files created later under a directory.
type Applier interface {
	Grant(path string, e Entry) error
	GrantDefault(path string, e Entry) error
}

// Xattr applies grants to the real filesystem.
type Xattr struct{}

func (Xattr) Grant(path string, e Entry) error {
	return Modify(path, e)
}

func (Xattr) GrantDefault(path string, e Entry) error {
	return ModifyDefault(path, e)
}
