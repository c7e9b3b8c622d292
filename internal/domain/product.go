package domain

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Slug       string    `gorm:"uniqueIndex;size:140"`
	Name       string    `gorm:"size:180"`
	Category   string    `gorm:"size:100"`
	ShortDesc  string    `gorm:"type:text"`
	ProviderID string    `gorm:"size:140;index"`
	Active     bool      `gorm:"default:true;index"`
	Images     []Image
	Prices     []PricedVariant
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Image struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;index"`
	URL       string    `gorm:"size:255"`
	Alt       string    `gorm:"size:140"`
	CreatedAt time.Time
}

type ProductFilter struct {
	Page     int
	PageSize int
	Sort     string
	Query    string
	Category string
	Active   *bool
}
