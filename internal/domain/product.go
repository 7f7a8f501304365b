package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// The API contract exposes precio_base as a JSON number, not a string.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a menu item. JSON field names follow the published Spanish API
// contract; column names stay English like the rest of the schema.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"nombre" db:"name"`
	Description string          `json:"descripcion" db:"description"`
	BasePrice   decimal.Decimal `json:"precio_base" db:"base_price"`
	ImagePath   string          `json:"imagen_path" db:"image_path"`
	Available   bool            `json:"disponible" db:"available"`
	CategoryID  uuid.UUID       `json:"id_categoria" db:"category_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductCard is the condensed representation used by menu list views.
type ProductCard struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Name       string          `json:"nombre" db:"name"`
	BasePrice  decimal.Decimal `json:"precio_base" db:"base_price"`
	ImagePath  string          `json:"imagen_path" db:"image_path"`
	Available  bool            `json:"disponible" db:"available"`
	CategoryID uuid.UUID       `json:"id_categoria" db:"category_id"`
}

// Category groups products on the menu
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"nombre" db:"name"`
	Description string    `json:"descripcion" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Allergen is a tag attached to products (gluten, lactosa, ...).
type Allergen struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"nombre" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProductOption is a selectable add-on or variant of a product. Options with
// the same Type belong to the same choice group (e.g. "tamaño", "extras").
type ProductOption struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ProductID  uuid.UUID       `json:"id_producto" db:"product_id"`
	Name       string          `json:"nombre" db:"name"`
	Type       string          `json:"tipo" db:"option_type"`
	ExtraPrice decimal.Decimal `json:"precio_extra" db:"extra_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// OptionGroup holds a product's options of a single type, in display order.
type OptionGroup struct {
	Type    string           `json:"tipo"`
	Options []*ProductOption `json:"opciones"`
}

// ProductWithOptions is the detail view served by the /opciones endpoint.
type ProductWithOptions struct {
	Product
	OptionGroups []OptionGroup `json:"grupos_opciones"`
}

// ProductWithAllergens is the detail view served by the /alergenos endpoint.
type ProductWithAllergens struct {
	Product
	Allergens []*Allergen `json:"alergenos"`
}
