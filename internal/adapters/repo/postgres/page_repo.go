package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/merchkit/storefront/internal/domain"
)

type PageRepo struct{ db *gorm.DB }

func NewPageRepo(db *gorm.DB) *PageRepo { return &PageRepo{db: db} }

func (r *PageRepo) Save(ctx context.Context, p *domain.Page) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PageRepo) FindBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	var p domain.Page
	if err := r.db.WithContext(ctx).First(&p, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PageRepo) List(ctx context.Context) ([]domain.Page, error) {
	var list []domain.Page
	if err := r.db.WithContext(ctx).Order("slug asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
