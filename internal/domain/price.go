package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Metadata keys this application understands. The provider may attach any
// number of extra keys; those travel along untouched.
const (
	MetaColor           = "color"
	MetaSize            = "size"
	MetaImageURL        = "image_url"
	MetaPrintfulVariant = "printful_variant_id"
)

var recognizedMeta = []string{MetaColor, MetaSize, MetaImageURL, MetaPrintfulVariant}

// PricedVariant is one price record from the payment provider's flat price
// list. The ID is the provider's price id. It is read-only from this side:
// the catalog sync overwrites it wholesale, nothing else mutates it.
type PricedVariant struct {
	ID         string            `gorm:"primaryKey;size:140"`
	ProductID  uuid.UUID         `gorm:"type:uuid;index"`
	UnitAmount *int64            `gorm:"type:bigint"`
	Currency   string            `gorm:"size:3"`
	Metadata   map[string]string `gorm:"type:jsonb;serializer:json"`
	Active     bool              `gorm:"default:true;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p PricedVariant) meta(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(p.Metadata[key])
}

func (p PricedVariant) Color() string { return p.meta(MetaColor) }

func (p PricedVariant) Size() string { return p.meta(MetaSize) }

func (p PricedVariant) ImageURL() string { return p.meta(MetaImageURL) }

// Recognized filters the metadata bag down to the keys the storefront acts
// on. The full key set is never assumed to be known statically.
func (p PricedVariant) Recognized() map[string]string {
	out := map[string]string{}
	for _, k := range recognizedMeta {
		if v := p.meta(k); v != "" {
			out[k] = v
		}
	}
	return out
}
