package domain

import "time"

// Page is a static marketing/informational page (about, contact, shipping...).
type Page struct {
	Slug      string `gorm:"primaryKey;size:80"`
	Title     string `gorm:"size:140"`
	Body      string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
