// Package config provides the crawl configuration: CLI-level options with
// their defaults and validation, the optional .threadscrape YAML file with
// per-site selectors and request settings, and THREADSCRAPE_* environment
// overrides loaded from .env files.
package config
