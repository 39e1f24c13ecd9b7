package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvChromePath = "THREADSCRAPE_CHROME_PATH"
	EnvProxy      = "THREADSCRAPE_PROXY"
	EnvDBDir      = "THREADSCRAPE_DB_DIR"
	EnvUserAgent  = "THREADSCRAPE_USER_AGENT"
)

// LoadDotEnv loads variables from the given .env files, or from ./.env
// when none are given. Missing files are ignored. Variables already set in
// the process environment win over the file.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv copies THREADSCRAPE_* overrides into c. Unset or empty
// variables leave the current value alone. CLI flags are applied after
// this and take precedence.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvChromePath); v != "" {
		c.ChromePath = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		c.ProxyURL = v
	}
	if v := os.Getenv(EnvDBDir); v != "" {
		c.DBDir = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		c.UserAgent = v
	}
}
