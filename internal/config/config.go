package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var once sync.Once

// Load reads the optional .env file once, then answers from the process
// environment. Missing .env is fine; env vars still apply.
func Load() {
	once.Do(func() {
		_ = godotenv.Load()
	})
}

// DBPath returns the configured database path, or "" for the default.
func DBPath() string {
	Load()
	return os.Getenv("BMAD_DB_PATH")
}

// UnlocksPath returns the configured achievement-unlocks file, or "" for
// the default (next to the database).
func UnlocksPath() string {
	Load()
	return os.Getenv("BMAD_UNLOCKS_PATH")
}

// TagsPath returns the configured tags file, or "" for the default (next to
// the database).
func TagsPath() string {
	Load()
	return os.Getenv("BMAD_TAGS_PATH")
}

// DevMode reports whether per-write schema validation is on.
func DevMode() bool {
	Load()
	return os.Getenv("BMAD_DEV") == "1"
}
