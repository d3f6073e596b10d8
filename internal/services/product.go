package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/eshop-api/products/types"
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context) ([]types.Product, error)
	Get(ctx context.Context, id int) (types.Product, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Update(ctx context.Context, product types.Product) (types.Product, error)
	UpdateImageURI(ctx context.Context, id int, imageURI string) error
	Delete(ctx context.Context, id int) error
}

// ImageStore uploads and removes product images in object storage.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// EventPublisher sends catalog events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// ProductService encapsulates product use-cases. The image store and event
// publisher are optional; when nil, image uploads are rejected and event
// publishing is skipped.
type ProductService struct {
	repo   ProductRepository
	images ImageStore
	events EventPublisher
	logger *slog.Logger
}

func NewProductService(repo ProductRepository, images ImageStore, events EventPublisher, logger *slog.Logger) *ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{
		repo:   repo,
		images: images,
		events: events,
		logger: logger,
	}
}

func (s *ProductService) List(ctx context.Context) ([]types.Product, error) {
	return s.repo.List(ctx)
}

func (s *ProductService) Get(ctx context.Context, id int) (types.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, product types.Product) (types.Product, error) {
	if err := validateProduct(product); err != nil {
		return types.Product{}, err
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return types.Product{}, err
	}

	s.publishEvent(ctx, eventActionCreated, created.ID, created.ImageUri)
	return created, nil
}

// Update replaces name, genre, unit price, and units in stock on the
// existing record. The identifier, release date, and image reference are
// immutable through this path.
func (s *ProductService) Update(ctx context.Context, product types.Product) (types.Product, error) {
	if err := validateProduct(product); err != nil {
		return types.Product{}, err
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return types.Product{}, err
	}

	s.publishEvent(ctx, eventActionUpdated, updated.ID, updated.ImageUri)
	return updated, nil
}

// Delete removes the product. The deletion event carries the last image
// URI so the worker can garbage-collect the stored object.
func (s *ProductService) Delete(ctx context.Context, id int) error {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publishEvent(ctx, eventActionDeleted, id, product.ImageUri)
	return nil
}

// AttachImage stores the image bytes under a content-addressed key and
// persists the resulting URI on the product.
func (s *ProductService) AttachImage(ctx context.Context, id int, filename string, data []byte, contentType string) (types.Product, error) {
	if s.images == nil {
		return types.Product{}, ErrStorageDisabled
	}
	if len(data) == 0 {
		return types.Product{}, newValidationError(FieldError{Field: "image", Message: "must not be empty"})
	}

	previous, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Product{}, err
	}

	key := imageObjectKey(id, filename, data)
	if err := s.images.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Product{}, err
	}

	imageURI := fmt.Sprintf("/%s/%s", s.images.Bucket(), key)
	if err := s.repo.UpdateImageURI(ctx, id, imageURI); err != nil {
		return types.Product{}, err
	}

	s.removeStoredImage(ctx, id, previous.ImageUri, imageURI)
	s.publishEvent(ctx, eventActionUpdated, id, imageURI)
	return s.repo.Get(ctx, id)
}

// removeStoredImage deletes the object behind a replaced image URI.
// Best-effort: the new image is already persisted, so a failure here only
// leaves an orphan behind.
func (s *ProductService) removeStoredImage(ctx context.Context, id int, previousURI, currentURI string) {
	if previousURI == currentURI {
		return
	}
	key, ok := objectKey(s.images.Bucket(), previousURI)
	if !ok {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to remove replaced product image", "product_id", id, "key", key, "error", err)
	}
}

func validateProduct(product types.Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return newValidationError(FieldError{Field: "name", Message: "must not be blank"})
	}
	return nil
}

func imageObjectKey(id int, filename string, data []byte) string {
	hash := sha256.Sum256(data)
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("products/%d/%s%s", id, hex.EncodeToString(hash[:8]), ext)
}

// objectKey extracts the storage key from an image URI of the form
// "/{bucket}/{key}". URIs pointing outside the given bucket, such as ones
// set verbatim through the create payload, are not ours to manage.
func objectKey(bucket, imageURI string) (string, bool) {
	if bucket == "" {
		return "", false
	}
	prefix := "/" + bucket + "/"
	key := strings.TrimPrefix(imageURI, prefix)
	if key == imageURI || key == "" {
		return "", false
	}
	return key, true
}
