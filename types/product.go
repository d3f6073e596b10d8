package types

import "time"

// Product represents a catalog entry in the eshop.
// The JSON field names are the public API contract.
type Product struct {
	// ID is the unique identifier of the product.
	ID int `json:"id" db:"id"`

	// Name is the human-readable product name. It is the only required
	// field on create and update.
	Name string `json:"name" db:"name"`

	// Genre is an optional free-form category label.
	Genre string `json:"genre" db:"genre"`

	// UnitPrice is the price of a single unit. Negative values are not
	// expected but are not rejected by the store.
	UnitPrice float64 `json:"unitPrice" db:"unit_price"`

	// UnitInStock is the number of units currently in stock.
	UnitInStock int `json:"unitInStock" db:"unit_in_stock"`

	// ReleaseDate is the calendar date the product was or will be released.
	// Serialized as an ISO-8601 date, e.g. "2022-01-01".
	ReleaseDate Date `json:"releaseDate" db:"release_date"`

	// ImageUri is an opaque reference to the product image. It is set by
	// the image upload endpoint and is immutable through PUT.
	ImageUri string `json:"imageUri" db:"image_uri"`

	// CreatedAt is the timestamp at which the product was created.
	// Not part of the public payload.
	CreatedAt time.Time `json:"-" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the product.
	// Not part of the public payload.
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}
