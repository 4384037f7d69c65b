// Package yaml loads campaign configs from YAML files.
package yaml

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/fwojciec/leadcrawl"
	yamlv3 "gopkg.in/yaml.v3"
)

// Ensure Registry implements leadcrawl.CampaignRegistry at compile time.
var _ leadcrawl.CampaignRegistry = (*Registry)(nil)

// Registry holds campaign configs loaded once at startup. It is read-only
// after NewRegistry returns and safe for concurrent use.
type Registry struct {
	campaigns map[string]*leadcrawl.CampaignConfig
}

// NewRegistry loads every .yaml and .yml file at the root of fsys. Each file
// holds one campaign; the campaign's name comes from the file content, not
// the filename. Returns EINVALID if a file fails to parse or validate, or
// ECONFLICT if two files declare the same campaign name.
func NewRegistry(fsys fs.FS) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, leadcrawl.Errorf(leadcrawl.EINTERNAL, "reading campaign dir: %v", err)
	}

	campaigns := make(map[string]*leadcrawl.CampaignConfig)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, leadcrawl.Errorf(leadcrawl.EINTERNAL, "reading %s: %v", entry.Name(), err)
		}

		var config leadcrawl.CampaignConfig
		if err := yamlv3.Unmarshal(data, &config); err != nil {
			return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "parsing %s: %v", entry.Name(), err)
		}
		if err := config.Validate(); err != nil {
			return nil, leadcrawl.Errorf(leadcrawl.EINVALID, "%s: %v", entry.Name(), leadcrawl.ErrorMessage(err))
		}
		if _, ok := campaigns[config.Name]; ok {
			return nil, leadcrawl.Errorf(leadcrawl.ECONFLICT, "duplicate campaign %q in %s", config.Name, entry.Name())
		}
		campaigns[config.Name] = &config
	}

	return &Registry{campaigns: campaigns}, nil
}

// Get returns the config for the named campaign.
func (r *Registry) Get(name string) (*leadcrawl.CampaignConfig, error) {
	config, ok := r.campaigns[name]
	if !ok {
		return nil, leadcrawl.Errorf(leadcrawl.ENOTFOUND, "campaign %q not found", name)
	}
	return config, nil
}

// List returns all campaign names in lexical order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.campaigns))
	for name := range r.campaigns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
