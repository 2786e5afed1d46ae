// Package site resolves the site (and its locale) a submission came from.
// Notification emails use it to pick per-site recipients and templates.
package site

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Site is one configured front-end site.
type Site struct {
	Handle string
	Name   string
	URL    string
	Locale language.Tag
}

// Lang returns the base language code (for example "en" for en-US).
func (s Site) Lang() string {
	base, _ := s.Locale.Base()
	return base.String()
}

// Registry holds the configured sites. The first site is the default.
type Registry struct {
	sites []Site
}

// Config is the YAML shape of a site entry.
type Config struct {
	Handle string `yaml:"handle"`
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Locale string `yaml:"locale"`
}

// NewRegistry validates and stores the sites.
func NewRegistry(configs ...Config) (*Registry, error) {
	if len(configs) == 0 {
		configs = []Config{{Handle: "default", Name: "Default", URL: "/", Locale: "en"}}
	}
	r := &Registry{}
	seen := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		handle := strings.TrimSpace(cfg.Handle)
		if handle == "" {
			return nil, errors.New("site: handle is required")
		}
		if _, dup := seen[handle]; dup {
			return nil, fmt.Errorf("site: duplicate handle %q", handle)
		}
		seen[handle] = struct{}{}

		tag := language.English
		if raw := strings.TrimSpace(cfg.Locale); raw != "" {
			parsed, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
			if err != nil {
				return nil, fmt.Errorf("site: locale for %q: %w", handle, err)
			}
			tag = parsed
		}
		r.sites = append(r.sites, Site{
			Handle: handle,
			Name:   cfg.Name,
			URL:    strings.TrimSpace(cfg.URL),
			Locale: tag,
		})
	}
	return r, nil
}

// Load reads a YAML list of sites.
func Load(r io.Reader) (*Registry, error) {
	var configs []Config
	if err := yaml.NewDecoder(r).Decode(&configs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("site: decode: %w", err)
	}
	return NewRegistry(configs...)
}

// Default returns the first configured site.
func (r *Registry) Default() Site {
	return r.sites[0]
}

// All returns every site.
func (r *Registry) All() []Site {
	return append([]Site(nil), r.sites...)
}

// Get returns the site with handle.
func (r *Registry) Get(handle string) (Site, bool) {
	for _, s := range r.sites {
		if s.Handle == handle {
			return s, true
		}
	}
	return Site{}, false
}

// FindByURL returns the site whose URL is the longest prefix of raw. Relative
// site URLs ("/fr/") match on path only. Unknown or empty URLs resolve to the
// default site.
func (r *Registry) FindByURL(raw string) Site {
	target, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || raw == "" {
		return r.Default()
	}

	best, bestLen := r.Default(), -1
	for _, s := range r.sites {
		base, err := url.Parse(s.URL)
		if err != nil {
			continue
		}
		if base.Host != "" && !strings.EqualFold(base.Host, target.Host) {
			continue
		}
		prefix := strings.TrimSuffix(base.Path, "/")
		path := target.Path
		if path != prefix && !strings.HasPrefix(path, prefix+"/") {
			continue
		}
		score := len(base.Host) + len(prefix)
		if score > bestLen {
			best, bestLen = s, score
		}
	}
	return best
}
