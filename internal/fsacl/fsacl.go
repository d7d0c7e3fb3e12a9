package fsacl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"

	"golang.org/x/sys/unix"
)

// Tag identifies the kind of an ACL entry.
type Tag uint16

const (
	TagUserObj  Tag = 0x01
	TagUser     Tag = 0x02
	TagGroupObj Tag = 0x04
	TagGroup    Tag = 0x08
	TagMask     Tag = 0x10
	TagOther    Tag = 0x20
)

// Perm is an rwx permission triplet.
type Perm uint16

const (
	PermExecute Perm = 0x1
	PermWrite   Perm = 0x2
	PermRead    Perm = 0x4
)

// Entry is one ACL entry. Qualifier is the uid (TagUser) or gid
// (TagGroup); it is ignored for the other tags.
type Entry struct {
	Tag       Tag
	Qualifier uint32
	Perms     Perm
}

const (
	xattrAccess  = "system.posix_acl_access"
	xattrDefault = "system.posix_acl_default"

	aclVersion  = 2
	noQualifier = 0xFFFFFFFF
	entrySize   = 8
)

var errBadACL = errors.New("malformed posix acl xattr")

func encode(entries []Entry) []byte {
	sortEntries(entries)
	b := make([]byte, 4+entrySize*len(entries))
	binary.LittleEndian.PutUint32(b[0:4], aclVersion)
	off := 4
	for _, e := range entries {
		binary.LittleEndian.PutUint16(b[off:], uint16(e.Tag))
		binary.LittleEndian.PutUint16(b[off+2:], uint16(e.Perms))
		q := e.Qualifier
		if e.Tag != TagUser && e.Tag != TagGroup {
			q = noQualifier
		}
		binary.LittleEndian.PutUint32(b[off+4:], q)
		off += entrySize
	}
	return b
}

func decode(b []byte) ([]Entry, error) {
	if len(b) < 4 || binary.LittleEndian.Uint32(b[0:4]) != aclVersion {
		return nil, errBadACL
	}
	body := b[4:]
	if len(body)%entrySize != 0 {
		return nil, errBadACL
	}
	var out []Entry
	for off := 0; off < len(body); off += entrySize {
		out = append(out, Entry{
			Tag:       Tag(binary.LittleEndian.Uint16(body[off:])),
			Perms:     Perm(binary.LittleEndian.Uint16(body[off+2:])),
			Qualifier: binary.LittleEndian.Uint32(body[off+4:]),
		})
	}
	return out, nil
}

// The kernel rejects ACLs whose entries are out of canonical order:
// user_obj, user*, group_obj, group*, mask, other.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Tag != entries[j].Tag {
			return entries[i].Tag < entries[j].Tag
		}
		return entries[i].Qualifier < entries[j].Qualifier
	})
}

func getxattr(path, name string) ([]byte, error) {
	for {
		sz, err := unix.Getxattr(path, name, nil)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, sz)
		n, err := unix.Getxattr(path, name, buf)
		if err == unix.ERANGE {
			continue
		}
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}
}

// Get returns the access ACL of path. A file without an extended ACL
// yields the three base entries synthesized from its mode bits.
func Get(path string) ([]Entry, error) {
	b, err := getxattr(path, xattrAccess)
	if err == nil {
		return decode(b)
	}
	if err != unix.ENODATA && err != unix.ENOTSUP {
		return nil, fmt.Errorf("getxattr %s: %w", path, err)
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return baseEntries(uint16(st.Mode().Perm())), nil
}

// GetDefault returns the default ACL of a directory; nil if none is set.
func GetDefault(path string) ([]Entry, error) {
	b, err := getxattr(path, xattrDefault)
	if err != nil {
		if err == unix.ENODATA || err == unix.ENOTSUP {
			return nil, nil
		}
		return nil, fmt.Errorf("getxattr %s: %w", path, err)
	}
	return decode(b)
}

func baseEntries(mode uint16) []Entry {
	return []Entry{
		{Tag: TagUserObj, Perms: Perm(mode >> 6 & 7)},
		{Tag: TagGroupObj, Perms: Perm(mode >> 3 & 7)},
		{Tag: TagOther, Perms: Perm(mode & 7)},
	}
}

// merge replaces or appends e and recomputes the mask the way
// setfacl -m does: the union of the owning-group entry and every
// named entry.
func merge(acl []Entry, e Entry) []Entry {
	replaced := false
	for i := range acl {
		if acl[i].Tag == e.Tag && (e.Tag != TagUser && e.Tag != TagGroup || acl[i].Qualifier == e.Qualifier) {
			acl[i].Perms = e.Perms
			replaced = true
			break
		}
	}
	if !replaced {
		acl = append(acl, e)
	}

	var mask Perm
	hasNamed := false
	maskIdx := -1
	for i, a := range acl {
		switch a.Tag {
		case TagUser, TagGroup:
			mask |= a.Perms
			hasNamed = true
		case TagGroupObj:
			mask |= a.Perms
		case TagMask:
			maskIdx = i
		}
	}
	if hasNamed {
		if maskIdx >= 0 {
			acl[maskIdx].Perms = mask
		} else {
			acl = append(acl, Entry{Tag: TagMask, Perms: mask})
		}
	}
	return acl
}

// Modify adds (or updates) one entry in path's access ACL.
func Modify(path string, e Entry) error {
	acl, err := Get(path)
	if err != nil {
		return err
	}
	acl = merge(acl, e)
	if err := unix.Setxattr(path, xattrAccess, encode(acl), 0); err != nil {
		return fmt.Errorf("setxattr %s: %w", path, err)
	}
	return nil
}

// ModifyDefault adds (or updates) one entry in a directory's default
// ACL. An absent default ACL is seeded from the directory's mode, as
// setfacl -d -m does.
func ModifyDefault(path string, e Entry) error {
	acl, err := GetDefault(path)
	if err != nil {
		return err
	}
	if acl == nil {
		st, err := os.Stat(path)
		if err != nil {
			return err
		}
		acl = baseEntries(uint16(st.Mode().Perm()))
	}
	acl = merge(acl, e)
	if err := unix.Setxattr(path, xattrDefault, encode(acl), 0); err != nil {
		return fmt.Errorf("setxattr %s: %w", path, err)
	}
	return nil
}
