package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".threadscrape"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads a site configuration file.
//
// Unknown keys are rejected so that a misspelled selector name does not
// silently fall back to the default. An empty file yields an empty
// configuration. Host keys are lower-cased; two keys that differ only in
// case are an error.
func LoadConfigFile(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	defer f.Close()

	cf := NewFile()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	sites := make(map[string]SiteConfig, len(cf.Sites))
	for host, sc := range cf.Sites {
		key := strings.ToLower(strings.TrimSpace(host))
		if _, dup := sites[key]; dup {
			return nil, fmt.Errorf("%w: host %q listed twice", ErrInvalidSiteConfig, key)
		}
		sites[key] = sc
	}
	cf.Sites = sites

	return cf, nil
}

// searchPaths lists where FindConfigFile looks, in order.
func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), "config.yaml"))
}

// FindConfigFile returns configPath if it exists, or when configPath is
// empty the first existing file among .threadscrape in the current
// directory, .threadscrape in the home directory, and config.yaml in the
// XDG config directory. It returns "" when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if isFile(configPath) {
			return configPath
		}
		return ""
	}

	for _, p := range searchPaths() {
		if isFile(p) {
			return p
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
