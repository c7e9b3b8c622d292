package domain

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"uniqueIndex;size:140"`
	Name      string    `gorm:"size:140"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
