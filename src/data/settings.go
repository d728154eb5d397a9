package data

import (
	"context"

	"gorm.io/gorm"
)

// Setting is a named configuration override stored in the database.
type Setting struct {
	ID     uint16 `gorm:"primaryKey"`
	Name   string `gorm:"size:64;uniqueIndex;not null"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null;default:1"`
}

// LoadSettings returns all active settings by name.
func LoadSettings(ctx context.Context, db *gorm.DB) (map[string]string, error) {
	var settings []Setting
	if err := db.WithContext(ctx).Where("active = ?", 1).Find(&settings).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Name] = s.Value
	}
	return out, nil
}
