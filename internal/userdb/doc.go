package userdb

// Package userdb implements the account database primitives by operating
// directly on the passwd, shadow and group files (resolved through the
// configured host root).
//
// Lock state is a business convention carried in the shadow expire field:
// locked means the expiry day lies in the past, unlocked means the field
// is empty. Nothing else in the entry is touched, so a later unlock
// restores the account exactly.
//
// This package focuses on safe parsing and safe, atomic updates.
