package config

import (
	"fmt"
	"maps"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nao1215/threadscrape/internal/model"
)

// validate is shared because validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// SiteConfig holds per-site crawl settings.
type SiteConfig struct {
	// Selectors override the built-in selectors field by field.
	Selectors model.Selectors `yaml:"selectors,omitempty"`

	// Cookie is sent with every page request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every page request.
	Headers map[string]string `yaml:"headers,omitempty" validate:"dive,keys,required,excludesall=:,endkeys"`

	// UserAgent overrides the browser user agent for this site.
	UserAgent string `yaml:"user_agent,omitempty"`

	// PageParam overrides the page query parameter for this site.
	PageParam string `yaml:"page_param,omitempty" validate:"omitempty,excludesall=&=#?"`
}

// File represents the structure of the .threadscrape configuration file.
type File struct {
	// Sites maps host names (e.g. "forum.example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// NewFile returns an empty configuration file.
func NewFile() *File {
	return &File{Sites: make(map[string]SiteConfig)}
}

// GetSiteConfig returns the configuration for host with defaults applied.
// Selectors always end up complete because the built-in set is the base.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Selectors = model.DefaultSelectors().Merge(cf.Defaults.Selectors)
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[strings.ToLower(host)]
	if !ok {
		return result
	}

	result.Selectors = result.Selectors.Merge(siteConfig.Selectors)
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if siteConfig.PageParam != "" {
		result.PageParam = siteConfig.PageParam
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	return result
}

// Validate checks the defaults and every site entry after merging.
func (cf *File) Validate() error {
	if err := validateSite("defaults", cf.GetSiteConfig("")); err != nil {
		return err
	}
	for host := range cf.Sites {
		if err := validateSite(host, cf.GetSiteConfig(host)); err != nil {
			return err
		}
	}
	return nil
}

func validateSite(name string, sc SiteConfig) error {
	if err := validate.Struct(sc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSiteConfig, name, err)
	}
	return nil
}
