// Package config centralizes the mesh's process-wide filesystem layout.
// These paths are the one exception the design allows to a plain
// construction-time argument: every node and the registry must agree on
// them without being wired together, so they are read once from the
// environment (optionally backed by a .env file) at process start.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

const (
	defaultLinkDir = "/tmp/kosmos/link/"
	defaultDBDir   = "/tmp/kosmos/db/"

	// RegistryName is the canonical name of the registry's own socket
	// file under LinkDir(), and of its own store under DBDir().
	RegistryName = "kosmos"
)

var loadEnvOnce sync.Once

// loadDotEnv best-effort loads a .env file from the working directory.
// Missing files are not an error; this only supplements real env vars.
func loadDotEnv() {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// LinkDir returns the directory holding every mesh Unix-socket file.
func LinkDir() string {
	loadDotEnv()
	if v := os.Getenv("KOSMOS_LINK_DIR"); v != "" {
		return ensureTrailingSlash(v)
	}
	return defaultLinkDir
}

// DBDir returns the directory holding every node's durable store.
func DBDir() string {
	loadDotEnv()
	if v := os.Getenv("KOSMOS_DB_DIR"); v != "" {
		return ensureTrailingSlash(v)
	}
	return defaultDBDir
}

// SocketPath returns the Unix-socket path for a canonical node name.
func SocketPath(name string) string {
	return filepath.Join(LinkDir(), name)
}

// StorePath returns the durable-store path for a node name.
func StorePath(name string) string {
	return filepath.Join(DBDir(), name)
}

func ensureTrailingSlash(p string) string {
	if len(p) == 0 || p[len(p)-1] == '/' {
		return p
	}
	return p + "/"
}
