package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stake-plus/newsfilter/src/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SourceCategory is a persisted catalog category.
type SourceCategory struct {
	ID          uint32 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:64;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
	AutoDetect  bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

// SourceDomain is a trusted domain within a category.
type SourceDomain struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	CategoryID uint32 `gorm:"uniqueIndex:idx_category_domain;not null"`
	Domain     string `gorm:"size:253;uniqueIndex:idx_category_domain;not null"`
	CreatedAt  time.Time
}

// CompanyPattern maps a company mention to one of its official domains.
type CompanyPattern struct {
	ID         uint32 `gorm:"primaryKey;autoIncrement"`
	CategoryID uint32 `gorm:"index;not null"`
	Company    string `gorm:"size:64;not null"`
	Domain     string `gorm:"size:253;not null"`
}

// CatalogStore persists catalog edits in MySQL.
type CatalogStore struct {
	db *gorm.DB
}

var _ catalog.Store = (*CatalogStore)(nil)

// NewCatalogStore wraps db.
func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// LoadCatalog returns every persisted category with its domains and company patterns.
func (s *CatalogStore) LoadCatalog(ctx context.Context) ([]catalog.Category, error) {
	db := s.db.WithContext(ctx)

	var categories []SourceCategory
	if err := db.Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var domains []SourceDomain
	if err := db.Order("id").Find(&domains).Error; err != nil {
		return nil, fmt.Errorf("load domains: %w", err)
	}
	var patterns []CompanyPattern
	if err := db.Order("id").Find(&patterns).Error; err != nil {
		return nil, fmt.Errorf("load company patterns: %w", err)
	}

	byID := make(map[uint32]*catalog.Category, len(categories))
	out := make([]catalog.Category, len(categories))
	for i, c := range categories {
		out[i] = catalog.Category{Name: c.Name, Description: c.Description, AutoDetect: c.AutoDetect}
		byID[c.ID] = &out[i]
	}
	for _, d := range domains {
		if cat, ok := byID[d.CategoryID]; ok {
			cat.Domains = append(cat.Domains, d.Domain)
		}
	}
	for _, p := range patterns {
		cat, ok := byID[p.CategoryID]
		if !ok {
			continue
		}
		cat.Patterns = appendPattern(cat.Patterns, p.Company, p.Domain)
	}
	return out, nil
}

func appendPattern(patterns []catalog.CompanyPattern, company, domain string) []catalog.CompanyPattern {
	for i := range patterns {
		if patterns[i].Company == company {
			patterns[i].Domains = append(patterns[i].Domains, domain)
			return patterns
		}
	}
	return append(patterns, catalog.CompanyPattern{Company: company, Domains: []string{domain}})
}

// AddDomain stores domain under category, creating the category on first use.
// Adding an existing domain is a no-op.
func (s *CatalogStore) AddDomain(ctx context.Context, category, domain, description string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat SourceCategory
		if err := tx.Where("name = ?", category).First(&cat).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			cat = SourceCategory{Name: category, Description: description}
			if createErr := tx.Create(&cat).Error; createErr != nil {
				return createErr
			}
		}

		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&SourceDomain{
			CategoryID: cat.ID,
			Domain:     domain,
		}).Error
	})
}

// RemoveDomain deletes domain from category. Unknown categories are not an error.
func (s *CatalogStore) RemoveDomain(ctx context.Context, category, domain string) error {
	db := s.db.WithContext(ctx)
	var cat SourceCategory
	if err := db.Where("name = ?", category).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return db.Where("category_id = ? AND domain = ?", cat.ID, domain).Delete(&SourceDomain{}).Error
}
