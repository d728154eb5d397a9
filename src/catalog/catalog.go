// Package catalog is the curated lookup of trusted source domains keyed by topic.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/stake-plus/newsfilter/src/factcheck/domain"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrCategoryRequired = errors.New("catalog: category is required")
	ErrInvalidDomain    = errors.New("catalog: invalid domain")
)

// Category is a named list of domains.
type Category struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Domains     []string         `yaml:"domains,omitempty"`
	AutoDetect  bool             `yaml:"auto_detect,omitempty"`
	Patterns    []CompanyPattern `yaml:"patterns,omitempty"`
}

// CompanyPattern maps a company mention to its official domains.
type CompanyPattern struct {
	Company string   `yaml:"company"`
	Domains []string `yaml:"domains"`
}

// Store persists catalog changes.
type Store interface {
	LoadCatalog(ctx context.Context) ([]Category, error)
	AddDomain(ctx context.Context, category, domain, description string) error
	RemoveDomain(ctx context.Context, category, domain string) error
}

// Catalog is safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	categories map[string]*Category
	order      []string
	store      Store
	logger     *zap.Logger
}

type file struct {
	Categories []Category `yaml:"categories"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(defaultCategories(), nil, nil)
}

// New builds a catalog from categories. store may be nil for a read-only catalog.
func New(categories []Category, store Store, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		categories: map[string]*Category{},
		store:      store,
		logger:     logger.With(zap.String("component", "catalog")),
	}
	c.merge(categories)
	return c
}

// LoadFile reads a YAML catalog and layers it over the built-in categories.
func LoadFile(path string, logger *zap.Logger) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	c := New(defaultCategories(), nil, logger)
	c.merge(f.Categories)
	return c, nil
}

// Load layers the store contents over the catalog and keeps the store for later edits.
func (c *Catalog) Load(ctx context.Context, store Store) error {
	categories, err := store.LoadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("catalog: load store: %w", err)
	}
	c.mu.Lock()
	c.store = store
	c.mu.Unlock()
	c.merge(categories)
	c.logger.Info("catalog loaded from store", zap.Int("categories", len(categories)))
	return nil
}

func (c *Catalog) merge(categories []Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, in := range categories {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		cur, ok := c.categories[name]
		if !ok {
			cur = &Category{Name: name}
			c.categories[name] = cur
			c.order = append(c.order, name)
		}
		if in.Description != "" {
			cur.Description = in.Description
		}
		cur.AutoDetect = cur.AutoDetect || in.AutoDetect
		cur.Domains = lo.Uniq(append(cur.Domains, normalizeAll(in.Domains)...))
		for _, p := range in.Patterns {
			cur.Patterns = mergePattern(cur.Patterns, p)
		}
	}
}

func mergePattern(patterns []CompanyPattern, p CompanyPattern) []CompanyPattern {
	company := strings.ToLower(strings.TrimSpace(p.Company))
	if company == "" {
		return patterns
	}
	for i := range patterns {
		if patterns[i].Company == company {
			patterns[i].Domains = lo.Uniq(append(patterns[i].Domains, normalizeAll(p.Domains)...))
			return patterns
		}
	}
	return append(patterns, CompanyPattern{Company: company, Domains: normalizeAll(p.Domains)})
}

func normalizeAll(domains []string) []string {
	return lo.FilterMap(domains, func(d string, _ int) (string, bool) {
		return domain.Resolve(d)
	})
}

// DomainsForCategory returns a copy of the domains of a category.
func (c *Catalog) DomainsForCategory(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories[name]
	if !ok {
		return nil
	}
	return append([]string(nil), cat.Domains...)
}

// DomainsForTopic picks domains for a message: general news always, plus topical
// categories whose keywords occur in text or whose name matches hint.
func (c *Catalog) DomainsForTopic(text, hint string) []string {
	lower := strings.ToLower(text)
	hint = strings.ToLower(strings.TrimSpace(hint))

	out := c.DomainsForCategory(GeneralNews)
	for _, rule := range topicRules {
		if !containsAny(lower, rule.keywords) && !lo.Contains(rule.hints, hint) {
			continue
		}
		if rule.category == Technology {
			out = append(out, c.CompanyDomains(text)...)
		}
		out = append(out, c.DomainsForCategory(rule.category)...)
	}
	return lo.Uniq(out)
}

// CompanyDomains returns the official domains of companies mentioned in text.
func (c *Catalog) CompanyDomains(text string) []string {
	lower := strings.ToLower(text)
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, name := range c.order {
		for _, p := range c.categories[name].Patterns {
			if strings.Contains(lower, p.Company) {
				out = append(out, p.Domains...)
			}
		}
	}
	return lo.Uniq(out)
}

// BackupDomains is the list used when no model-proposed source is usable.
func (c *Catalog) BackupDomains(text string, limit int) []string {
	out := c.DomainsForTopic(text, "")
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Categories lists category descriptions, hiding auto-detected groups.
func (c *Catalog) Categories() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.categories))
	for name, cat := range c.categories {
		if cat.AutoDetect {
			continue
		}
		out[name] = cat.Description
	}
	return out
}

// Names returns category names in insertion order, auto-detected groups excluded.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Filter(c.order, func(name string, _ int) bool {
		return !c.categories[name].AutoDetect
	})
}

// AddDomain adds a domain to a category, creating the category when needed. It reports
// false when the domain was already present.
func (c *Catalog) AddDomain(ctx context.Context, category, raw, description string) (bool, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return false, ErrCategoryRequired
	}
	d, ok := domain.Resolve(raw)
	if !ok {
		return false, fmt.Errorf("%w %q", ErrInvalidDomain, raw)
	}
	if lo.Contains(c.DomainsForCategory(category), d) {
		return false, nil
	}
	if description == "" {
		description = "Custom category: " + category
	}
	if store := c.currentStore(); store != nil {
		if err := store.AddDomain(ctx, category, d, description); err != nil {
			return false, fmt.Errorf("catalog: persist %s/%s: %w", category, d, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cat, exists := c.categories[category]
	if !exists {
		cat = &Category{Name: category, Description: description}
		c.categories[category] = cat
		c.order = append(c.order, category)
	}
	cat.Domains = append(cat.Domains, d)
	return true, nil
}

// RemoveDomain removes a domain from a category. It reports false when the domain
// was not present.
func (c *Catalog) RemoveDomain(ctx context.Context, category, raw string) (bool, error) {
	d, ok := domain.Resolve(raw)
	if !ok {
		return false, fmt.Errorf("%w %q", ErrInvalidDomain, raw)
	}
	if !lo.Contains(c.DomainsForCategory(category), d) {
		return false, nil
	}
	if store := c.currentStore(); store != nil {
		if err := store.RemoveDomain(ctx, category, d); err != nil {
			return false, fmt.Errorf("catalog: persist removal %s/%s: %w", category, d, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cat, exists := c.categories[category]; exists {
		cat.Domains = lo.Without(cat.Domains, d)
	}
	return true, nil
}

func (c *Catalog) currentStore() Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

func containsAny(text string, keywords []string) bool {
	return lo.SomeBy(keywords, func(k string) bool { return strings.Contains(text, k) })
}
