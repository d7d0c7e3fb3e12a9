package main

import (
	"os"

	"github.com/hnrobert/bloghost/internal/engine"
	"github.com/hnrobert/bloghost/internal/fsacl"
	"github.com/hnrobert/bloghost/internal/hostfs"
	"github.com/hnrobert/bloghost/internal/logger"
	"github.com/hnrobert/bloghost/internal/userdb"
)

func main() {
	hostfs.SetRoot(os.Getenv("BLOGHOST_ROOT"))
	if err := logger.Init(os.Getenv("BLOGHOST_LOG_DIR")); err != nil {
		logger.Warn("file logging disabled: %v", err)
	}
	defer logger.Close()

	db, err := userdb.NewDefault()
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	cfg := getenvDefault("BLOGHOST_CONFIG", "bloghost.yaml")
	if _, err := engine.New(db, fsacl.Xattr{}).Run(cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
