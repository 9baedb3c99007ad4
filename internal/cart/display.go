package cart

import (
	"github.com/vastra-group/storefront-api/internal/db"
	"github.com/vastra-group/storefront-api/internal/pricing"
)

// Display item kinds.
const (
	KindVariant       = "VARIANT"
	KindSimpleProduct = "SIMPLE_PRODUCT"
)

// DisplayDetails is the storefront-facing projection of a cart line. Variant
// fields take precedence over product fields wherever the variant sets them;
// size, colour and SKU only exist on variants and stay null for simple
// products.
type DisplayDetails struct {
	Kind      string        `json:"kind"`
	Title     string        `json:"title"`
	Image     *string       `json:"image,omitempty"`
	Size      *string       `json:"size"`
	Color     *string       `json:"color"`
	Sku       *string       `json:"sku"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Mrp       pricing.Money `json:"mrp"`
}

// Display builds the projection for a product with an optional variant.
func Display(product db.Product, variant *db.ProductVariant) DisplayDetails {
	if variant == nil {
		d := DisplayDetails{
			Kind:      KindSimpleProduct,
			Title:     product.Title,
			UnitPrice: pricing.FirstPrice(product.SellingPrice, product.Mrp),
			Mrp:       product.Mrp,
		}
		if product.ImageURL.Valid {
			v := product.ImageURL.String
			d.Image = &v
		}
		return d
	}
	d := DisplayDetails{
		Kind:      KindVariant,
		Title:     product.Title,
		UnitPrice: pricing.FirstPrice(variant.SellingPrice, variant.Mrp, product.SellingPrice, product.Mrp),
		Mrp:       pricing.FirstPrice(variant.Mrp, product.Mrp),
	}
	if variant.Name != "" {
		d.Title = product.Title + " - " + variant.Name
	}
	if variant.Size.Valid {
		v := variant.Size.String
		d.Size = &v
	}
	if variant.Color.Valid {
		v := variant.Color.String
		d.Color = &v
	}
	if variant.Sku.Valid {
		v := variant.Sku.String
		d.Sku = &v
	}
	switch {
	case variant.ImageURL.Valid:
		v := variant.ImageURL.String
		d.Image = &v
	case product.ImageURL.Valid:
		v := product.ImageURL.String
		d.Image = &v
	}
	return d
}
