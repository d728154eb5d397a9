package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	categories []Category
	added      []string
	removed    []string
	err        error
}

func (m *memoryStore) LoadCatalog(context.Context) ([]Category, error) { return m.categories, m.err }

func (m *memoryStore) AddDomain(_ context.Context, category, domain, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.added = append(m.added, category+"/"+domain)
	return nil
}

func (m *memoryStore) RemoveDomain(_ context.Context, category, domain string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, category+"/"+domain)
	return nil
}

func TestDomainsForTopic(t *testing.T) {
	c := Default()
	general := c.DomainsForCategory(GeneralNews)
	require.NotEmpty(t, general)

	tests := []struct {
		name    string
		text    string
		hint    string
		want    []string
		without []string
	}{
		{
			name:    "plain text gets general news only",
			text:    "Something happened somewhere today",
			want:    general,
			without: []string{"cbr.ru", "variety.com", "techcrunch.com"},
		},
		{
			name: "finance keywords",
			text: "Курс доллара вырос на 5% после заявления ЦБ",
			want: []string{"cbr.ru", "moex.com", "bloomberg.com"},
		},
		{
			name: "company mention adds official and technology sites",
			text: "Discord launches a new feature",
			want: []string{"support.discord.com", "techcrunch.com"},
		},
		{
			name: "science keywords",
			text: "Новая вакцина прошла исследование",
			want: []string{"who.int", "nature.com"},
		},
		{
			name: "entertainment hint",
			text: "Nothing topical here",
			hint: "развлечения",
			want: []string{"variety.com"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.DomainsForTopic(tt.text, tt.hint)
			assert.Equal(t, general, got[:len(general)], "general news first")
			for _, d := range tt.want {
				assert.Contains(t, got, d)
			}
			for _, d := range tt.without {
				assert.NotContains(t, got, d)
			}
			seen := map[string]bool{}
			for _, d := range got {
				assert.False(t, seen[d], "duplicate %s", d)
				seen[d] = true
			}
		})
	}
}

func TestCompanyDomains(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"tesla.com", "ir.tesla.com"}, c.CompanyDomains("TESLA recalls cars"))
	assert.Empty(t, c.CompanyDomains("nothing here"))
}

func TestBackupDomainsLimit(t *testing.T) {
	c := Default()
	assert.Len(t, c.BackupDomains("курс доллара", 4), 4)
	assert.Equal(t, c.DomainsForCategory(GeneralNews)[:4], c.BackupDomains("курс доллара", 4))
}

func TestCategoriesHidesAutoDetect(t *testing.T) {
	c := Default()
	cats := c.Categories()
	assert.Contains(t, cats, Finance)
	assert.NotContains(t, cats, CompanySpecifics)
	assert.NotContains(t, c.Names(), CompanySpecifics)
	assert.Equal(t, GeneralNews, c.Names()[0])
}

func TestAddRemoveDomain(t *testing.T) {
	store := &memoryStore{}
	c := New(defaultCategories(), store, nil)
	ctx := context.Background()

	added, err := c.AddDomain(ctx, "gaming", "https://www.IGN.com/news", "")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"ign.com"}, c.DomainsForCategory("gaming"))
	assert.Equal(t, "Custom category: gaming", c.Categories()["gaming"])

	added, err = c.AddDomain(ctx, "gaming", "ign.com", "")
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := c.RemoveDomain(ctx, "gaming", "ign.com")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, c.DomainsForCategory("gaming"))

	removed, err = c.RemoveDomain(ctx, "gaming", "ign.com")
	require.NoError(t, err)
	assert.False(t, removed)

	assert.Equal(t, []string{"gaming/ign.com"}, store.added)
	assert.Equal(t, []string{"gaming/ign.com"}, store.removed)

	_, err = c.AddDomain(ctx, "gaming", "not a domain", "")
	assert.Error(t, err)
	_, err = c.AddDomain(ctx, " ", "ign.com", "")
	assert.Error(t, err)
}

func TestAddDomainStoreFailureLeavesCatalogUnchanged(t *testing.T) {
	c := New(defaultCategories(), &memoryStore{err: errors.New("db down")}, nil)
	_, err := c.AddDomain(context.Background(), Finance, "cbonds.ru", "")
	require.Error(t, err)
	assert.NotContains(t, c.DomainsForCategory(Finance), "cbonds.ru")
}

func TestLoadMergesStore(t *testing.T) {
	c := Default()
	store := &memoryStore{categories: []Category{
		{Name: Finance, Domains: []string{"www.cbonds.ru", "cbr.ru"}},
		{Name: CompanySpecifics, Patterns: []CompanyPattern{{Company: "Yandex", Domains: []string{"yandex.ru"}}}},
	}}
	require.NoError(t, c.Load(context.Background(), store))

	finance := c.DomainsForCategory(Finance)
	assert.Contains(t, finance, "cbonds.ru")
	assert.Equal(t, 1, countOf(finance, "cbr.ru"))
	assert.Equal(t, []string{"yandex.ru"}, c.CompanyDomains("yandex news"))

	_, err := c.AddDomain(context.Background(), Finance, "frankmedia.ru", "")
	require.NoError(t, err)
	assert.Equal(t, []string{Finance + "/frankmedia.ru"}, store.added)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
categories:
  - name: gaming
    description: Game publishers
    domains: [ign.com, "https://www.polygon.com/"]
  - name: finance
    domains: [cbonds.ru]
`), 0o600))

	c, err := LoadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ign.com", "polygon.com"}, c.DomainsForCategory("gaming"))
	assert.Equal(t, "Game publishers", c.Categories()["gaming"])
	assert.Contains(t, c.DomainsForCategory(Finance), "cbonds.ru")
	assert.Contains(t, c.DomainsForCategory(Finance), "cbr.ru")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func countOf(list []string, v string) int {
	n := 0
	for _, s := range list {
		if s == v {
			n++
		}
	}
	return n
}
