package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/merchkit/storefront/internal/domain"
	"github.com/merchkit/storefront/internal/variant"
)

type CatalogUC struct {
	Products domain.ProductRepo
	Gateway  domain.PaymentGateway
}

func (uc *CatalogUC) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	if f.PageSize == 0 {
		f.PageSize = 20
	}
	return uc.Products.List(ctx, f)
}

func (uc *CatalogUC) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	if slug == "" {
		return nil, errors.New("empty slug")
	}
	return uc.Products.FindBySlug(ctx, slug)
}

func (uc *CatalogUC) Categories(ctx context.Context) ([]string, error) {
	return uc.Products.DistinctCategories(ctx)
}

// Resolve picks the active variant of a product for the requested color/size.
func (uc *CatalogUC) Resolve(p *domain.Product, color, size string) variant.Selection {
	if p == nil {
		return variant.Selection{}
	}
	return variant.Select(p.Prices, color, size)
}

// SyncPrices pulls the provider's flat price list and upserts local products
// and priced variants. Products unseen before are created with a slug derived
// from the provider name.
func (uc *CatalogUC) SyncPrices(ctx context.Context) (created, updated int, err error) {
	if uc.Gateway == nil {
		return 0, 0, errors.New("payment gateway not configured")
	}
	list, err := uc.Gateway.ListPrices(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, cp := range list {
		if cp.ProductRef == "" || cp.PriceID == "" {
			continue
		}
		p, err := uc.Products.FindByProviderID(ctx, cp.ProductRef)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return created, updated, err
		}
		if p == nil {
			p = &domain.Product{
				ID:         uuid.New(),
				Slug:       slugify(cp.ProductName, cp.ProductRef),
				Name:       cp.ProductName,
				ShortDesc:  cp.ProductDesc,
				ProviderID: cp.ProductRef,
				Active:     cp.Active,
			}
			if err := uc.Products.Save(ctx, p); err != nil {
				return created, updated, err
			}
			imgs := make([]domain.Image, 0, len(cp.Images))
			for _, u := range cp.Images {
				imgs = append(imgs, domain.Image{ID: uuid.New(), URL: u, Alt: cp.ProductName})
			}
			if err := uc.Products.AddImages(ctx, p.ID, imgs); err != nil {
				return created, updated, err
			}
			created++
		} else {
			changed := false
			if cp.ProductName != "" && p.Name != cp.ProductName {
				p.Name = cp.ProductName
				changed = true
			}
			if p.ShortDesc != cp.ProductDesc {
				p.ShortDesc = cp.ProductDesc
				changed = true
			}
			if p.Active != cp.Active {
				p.Active = cp.Active
				changed = true
			}
			if changed {
				if err := uc.Products.Save(ctx, p); err != nil {
					return created, updated, err
				}
			}
			updated++
		}
		pv := &domain.PricedVariant{
			ID:         cp.PriceID,
			ProductID:  p.ID,
			UnitAmount: cp.UnitAmount,
			Currency:   strings.ToUpper(cp.Currency),
			Metadata:   cp.Metadata,
			Active:     cp.Active,
		}
		if err := uc.Products.SavePrice(ctx, pv); err != nil {
			return created, updated, err
		}
	}
	return created, updated, nil
}

func slugify(name, fallback string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	if s == "" {
		s = strings.ToLower(fallback)
	}
	return s
}
