package hostfs

// Package hostfs provides safe access helpers for the host filesystem.
//
// All paths the provisioner touches are absolute host paths mapped through
// a configurable root (BLOGHOST_ROOT), so a full reconciliation can be
// exercised against a scratch directory:
//   /etc/passwd   -> <root>/etc/passwd
//   /home/authors -> <root>/home/authors
//
// This package focuses on safe, atomic updates to shared files.
