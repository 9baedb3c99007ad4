package cart

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vastra-group/storefront-api/internal/db"
)

func TestDisplaySimpleProduct(t *testing.T) {
	product := db.Product{
		Title:        "Tee",
		SellingPrice: 300,
		Mrp:          500,
		ImageURL:     pgtype.Text{String: "https://cdn/img.png", Valid: true},
	}
	d := Display(product, nil)
	if d.Kind != KindSimpleProduct {
		t.Fatalf("expected SIMPLE_PRODUCT, got %s", d.Kind)
	}
	if d.Title != "Tee" || d.UnitPrice != 300 || d.Mrp != 500 {
		t.Fatalf("unexpected projection: %+v", d)
	}
	if d.Image == nil || *d.Image != "https://cdn/img.png" {
		t.Fatalf("expected product image, got %+v", d.Image)
	}
}

func TestDisplayVariantOverridesProduct(t *testing.T) {
	product := db.Product{
		Title:        "Tee",
		SellingPrice: 300,
		Mrp:          500,
		ImageURL:     pgtype.Text{String: "https://cdn/product.png", Valid: true},
	}
	variant := &db.ProductVariant{
		Name:         "XL / Red",
		SellingPrice: 350,
		Mrp:          550,
		ImageURL:     pgtype.Text{String: "https://cdn/variant.png", Valid: true},
	}
	d := Display(product, variant)
	if d.Kind != KindVariant {
		t.Fatalf("expected VARIANT, got %s", d.Kind)
	}
	if d.Title != "Tee - XL / Red" {
		t.Fatalf("unexpected title %q", d.Title)
	}
	if d.UnitPrice != 350 || d.Mrp != 550 {
		t.Fatalf("expected variant prices to win, got %+v", d)
	}
	if d.Image == nil || *d.Image != "https://cdn/variant.png" {
		t.Fatalf("expected variant image, got %+v", d.Image)
	}
}

func TestDisplayVariantAttributes(t *testing.T) {
	product := db.Product{Title: "Tee", SellingPrice: 300, Mrp: 500}
	variant := &db.ProductVariant{
		Name:  "XL / Red",
		Sku:   pgtype.Text{String: "TEE-XL-RED", Valid: true},
		Size:  pgtype.Text{String: "XL", Valid: true},
		Color: pgtype.Text{String: "Red", Valid: true},
	}
	d := Display(product, variant)
	if d.Size == nil || *d.Size != "XL" {
		t.Fatalf("expected size XL, got %+v", d.Size)
	}
	if d.Color == nil || *d.Color != "Red" {
		t.Fatalf("expected colour Red, got %+v", d.Color)
	}
	if d.Sku == nil || *d.Sku != "TEE-XL-RED" {
		t.Fatalf("expected sku TEE-XL-RED, got %+v", d.Sku)
	}
}

func TestDisplaySimpleProductLeavesVariantFieldsNull(t *testing.T) {
	d := Display(db.Product{Title: "Mug", SellingPrice: 120}, nil)
	if d.Size != nil || d.Color != nil || d.Sku != nil {
		t.Fatalf("simple products carry no variant attributes: %+v", d)
	}
}

func TestDisplayVariantFallsBackToProductFields(t *testing.T) {
	product := db.Product{
		Title:        "Tee",
		SellingPrice: 300,
		Mrp:          500,
		ImageURL:     pgtype.Text{String: "https://cdn/product.png", Valid: true},
	}
	variant := &db.ProductVariant{Name: "M"}
	d := Display(product, variant)
	if d.UnitPrice != 300 {
		t.Fatalf("expected product selling price fallback, got %d", d.UnitPrice)
	}
	if d.Mrp != 500 {
		t.Fatalf("expected product mrp fallback, got %d", d.Mrp)
	}
	if d.Image == nil || *d.Image != "https://cdn/product.png" {
		t.Fatalf("expected product image fallback, got %+v", d.Image)
	}
}
