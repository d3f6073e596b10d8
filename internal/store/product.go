package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/eshop-api/products/types"
)

// ProductRepository handles persistence for products.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context) ([]types.Product, error) {
	const query = `
		SELECT id, name, genre, unit_price, unit_in_stock, release_date, image_uri, created_at, updated_at
		FROM products
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]types.Product, 0)
	for rows.Next() {
		var product types.Product
		var genre, imageURI sql.NullString
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&genre,
			&product.UnitPrice,
			&product.UnitInStock,
			&product.ReleaseDate,
			&imageURI,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		product.Genre = genre.String
		product.ImageUri = imageURI.String
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) Get(ctx context.Context, id int) (types.Product, error) {
	const query = `
		SELECT id, name, genre, unit_price, unit_in_stock, release_date, image_uri, created_at, updated_at
		FROM products
		WHERE id = $1`
	var product types.Product
	var genre, imageURI sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&genre,
		&product.UnitPrice,
		&product.UnitInStock,
		&product.ReleaseDate,
		&imageURI,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	product.Genre = genre.String
	product.ImageUri = imageURI.String
	return product, nil
}

func (r *ProductRepository) Create(ctx context.Context, product types.Product) (types.Product, error) {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	const query = `
		INSERT INTO products (name, genre, unit_price, unit_in_stock, release_date, image_uri, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		nullString(product.Genre),
		product.UnitPrice,
		product.UnitInStock,
		product.ReleaseDate,
		nullString(product.ImageUri),
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID); err != nil {
		return types.Product{}, err
	}

	return product, nil
}

// Update replaces name, genre, unit price, and units in stock on an existing
// row. Release date and image URI are intentionally left untouched; the image
// reference changes only through UpdateImageURI.
func (r *ProductRepository) Update(ctx context.Context, product types.Product) (types.Product, error) {
	product.UpdatedAt = time.Now()

	const query = `
		UPDATE products
		SET name = $1,
			genre = $2,
			unit_price = $3,
			unit_in_stock = $4,
			updated_at = $5
		WHERE id = $6
		RETURNING release_date, image_uri`
	var imageURI sql.NullString
	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		nullString(product.Genre),
		product.UnitPrice,
		product.UnitInStock,
		product.UpdatedAt,
		product.ID,
	).Scan(&product.ReleaseDate, &imageURI)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Product{}, ErrNotFound
		}
		return types.Product{}, err
	}
	product.ImageUri = imageURI.String

	return product, nil
}

// UpdateImageURI sets the image reference for an existing product.
func (r *ProductRepository) UpdateImageURI(ctx context.Context, id int, imageURI string) error {
	const query = `
		UPDATE products
		SET image_uri = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, imageURI, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM products WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
