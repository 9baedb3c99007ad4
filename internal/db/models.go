package db

import "github.com/jackc/pgx/v5/pgtype"

// Prices are stored as integer minor units (paise). A zero price means the
// seller never set one; price resolution treats it as absent.

type Category struct {
	ID          pgtype.UUID
	Name        string
	Description pgtype.Text
	ImageURL    pgtype.Text
	IsActive    bool
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type Product struct {
	ID           pgtype.UUID
	Title        string
	Description  pgtype.Text
	CategoryID   pgtype.UUID
	SellingPrice int64
	Mrp          int64
	ImageURL     pgtype.Text
	IsActive     bool
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type ProductVariant struct {
	ID           pgtype.UUID
	ProductID    pgtype.UUID
	Name         string
	Sku          pgtype.Text
	Size         pgtype.Text
	Color        pgtype.Text
	SellingPrice int64
	Mrp          int64
	ImageURL     pgtype.Text
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type Coupon struct {
	ID            pgtype.UUID
	Code          string
	Description   pgtype.Text
	DiscountType  string
	DiscountValue int64
	MinOrderValue int64
	MaxDiscount   pgtype.Int8
	ValidFrom     pgtype.Timestamptz
	ValidUntil    pgtype.Timestamptz
	IsActive      bool
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

type CouponScope struct {
	ID         pgtype.UUID
	CouponID   pgtype.UUID
	ProductID  pgtype.UUID
	VariantID  pgtype.UUID
	CategoryID pgtype.UUID
}

type CartItem struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	VariantID pgtype.UUID
	Quantity  int32
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type WishlistItem struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	ProductID pgtype.UUID
	VariantID pgtype.UUID
	CreatedAt pgtype.Timestamptz
}

type Pincode struct {
	ID        pgtype.UUID
	Pincode   string
	City      pgtype.Text
	State     pgtype.Text
	DeletedAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Policy struct {
	ID        pgtype.UUID
	Kind      string
	Content   string
	UpdatedAt pgtype.Timestamptz
}

type ReturnReason struct {
	ID        pgtype.UUID
	Reason    string
	IsActive  bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type ReturnRequest struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	OrderID   string
	ReasonID  pgtype.UUID
	Status    string
	Comment   pgtype.Text
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}
