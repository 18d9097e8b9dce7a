// Package catalog loads the static list of award categories and provider
// definitions. The catalog is immutable once loaded.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shilph/art/internal/domain/model"
	"github.com/shilph/art/internal/domain/port/driven"
)

//go:embed catalog.yaml
var embedded []byte

type fileConfig struct {
	Categories []string         `yaml:"categories"`
	Providers  []providerConfig `yaml:"providers"`
}

type providerConfig struct {
	Name              string        `yaml:"name"`
	Category          string        `yaml:"category"`
	Adapter           string        `yaml:"adapter"`
	ExpireAfterMonths int           `yaml:"expire_after_months"`
	Note              string        `yaml:"note"`
	Fields            []fieldConfig `yaml:"fields"`
}

type fieldConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

// Catalog answers which providers exist and which fields each requires.
type Catalog struct {
	categories []string
	providers  []model.ProviderDefinition
	byName     map[string]int
}

// Load parses the catalog compiled into the binary.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// Parse decodes and validates a YAML catalog. Providers are ordered by
// category (in declaration order) then by name.
func Parse(data []byte) (*Catalog, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if len(cfg.Categories) == 0 {
		return nil, errors.New("catalog declares no categories")
	}
	rank := make(map[string]int, len(cfg.Categories))
	for i, c := range cfg.Categories {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("category %d is empty", i)
		}
		if _, dup := rank[c]; dup {
			return nil, fmt.Errorf("duplicate category %q", c)
		}
		rank[c] = i
		cfg.Categories[i] = c
	}

	providers := make([]model.ProviderDefinition, 0, len(cfg.Providers))
	seen := make(map[string]bool, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := normalizeProvider(pc, rank)
		if err != nil {
			return nil, err
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate provider %q", p.Name)
		}
		seen[p.Name] = true
		providers = append(providers, p)
	}

	slices.SortStableFunc(providers, func(a, b model.ProviderDefinition) int {
		if d := rank[a.Category] - rank[b.Category]; d != 0 {
			return d
		}
		return strings.Compare(a.Name, b.Name)
	})

	byName := make(map[string]int, len(providers))
	for i, p := range providers {
		byName[p.Name] = i
	}

	return &Catalog{
		categories: cfg.Categories,
		providers:  providers,
		byName:     byName,
	}, nil
}

func normalizeProvider(pc providerConfig, rank map[string]int) (model.ProviderDefinition, error) {
	name := strings.TrimSpace(pc.Name)
	if name == "" {
		return model.ProviderDefinition{}, errors.New("provider with empty name")
	}
	if _, ok := rank[pc.Category]; !ok {
		return model.ProviderDefinition{}, fmt.Errorf("provider %q: unknown category %q", name, pc.Category)
	}
	if pc.Adapter == "" {
		return model.ProviderDefinition{}, fmt.Errorf("provider %q: missing adapter", name)
	}
	if pc.ExpireAfterMonths < 0 {
		return model.ProviderDefinition{}, fmt.Errorf("provider %q: negative expire_after_months", name)
	}
	if len(pc.Fields) == 0 {
		return model.ProviderDefinition{}, fmt.Errorf("provider %q: no fields", name)
	}

	fields := make([]model.Field, 0, len(pc.Fields))
	names := make(map[string]bool, len(pc.Fields))
	for _, fc := range pc.Fields {
		if fc.Name == "" || fc.Label == "" {
			return model.ProviderDefinition{}, fmt.Errorf("provider %q: field needs name and label", name)
		}
		if strings.Contains(fc.Name, model.FieldSeparator) || strings.Contains(fc.Label, model.FieldSeparator) {
			return model.ProviderDefinition{}, fmt.Errorf("provider %q: field %q contains the field separator", name, fc.Name)
		}
		if names[fc.Name] {
			return model.ProviderDefinition{}, fmt.Errorf("provider %q: duplicate field %q", name, fc.Name)
		}
		names[fc.Name] = true
		fields = append(fields, model.Field{Name: fc.Name, Label: fc.Label})
	}

	return model.ProviderDefinition{
		Category:          pc.Category,
		Name:              name,
		ExpireAfterMonths: pc.ExpireAfterMonths,
		Note:              strings.TrimSpace(pc.Note),
		AdapterID:         pc.Adapter,
		Fields:            fields,
	}, nil
}

// Categories returns the category names in display order.
func (c *Catalog) Categories() []string {
	return slices.Clone(c.categories)
}

// List returns every provider, grouped by category then sorted by name.
func (c *Catalog) List() []model.ProviderDefinition {
	out := make([]model.ProviderDefinition, len(c.providers))
	for i, p := range c.providers {
		p.Fields = slices.Clone(p.Fields)
		out[i] = p
	}
	return out
}

// Get returns the named provider or driven.ErrNotFound.
func (c *Catalog) Get(name string) (model.ProviderDefinition, error) {
	i, ok := c.byName[name]
	if !ok {
		return model.ProviderDefinition{}, fmt.Errorf("provider %q: %w", name, driven.ErrNotFound)
	}
	p := c.providers[i]
	p.Fields = slices.Clone(p.Fields)
	return p, nil
}

// Validate checks that every provider's adapter id is known to has. It
// reports all unknown ids at once, wrapped in driven.ErrAdapterNotFound.
func (c *Catalog) Validate(has func(adapterID string) bool) error {
	var missing []string
	for _, p := range c.providers {
		if !has(p.AdapterID) {
			missing = append(missing, fmt.Sprintf("%s (%s)", p.AdapterID, p.Name))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", driven.ErrAdapterNotFound, strings.Join(missing, ", "))
	}
	return nil
}
