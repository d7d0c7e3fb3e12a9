package engine

import (
	"os"

	"github.com/hnrobert/bloghost/internal/category"
	"github.com/hnrobert/bloghost/internal/hostfs"
)

// Observe lists the usernames previously provisioned in a category,
// inferred from the directories directly under its base dir. A missing
// base directory means a fresh system and yields an empty list.
func Observe(c category.Category) ([]string, error) {
	base, err := hostfs.Abs(c.BaseDir())
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
