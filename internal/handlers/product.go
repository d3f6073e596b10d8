package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eshop-api/products/internal/services"
	"github.com/eshop-api/products/types"
)

const (
	maxImageMemory = 8 << 20
	maxImageBytes  = 16 << 20
	formFieldImage = "image"
)

// ProductHandler provides HTTP handlers for the product catalog.
type ProductHandler struct {
	productService *services.ProductService
}

// NewProductHandler constructs a handler with the provided service.
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRouter registers product routes on the given router. Reads are
// public; mutations require a bearer token.
func ProductRouter(r chi.Router, productService *services.ProductService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewProductHandler(productService)

	r.Get("/", handler.ListProducts)
	r.With(authMiddleware).Post("/", handler.CreateProduct)
	r.Route("/{productID}", func(r chi.Router) {
		r.Get("/", handler.GetProduct)
		r.With(authMiddleware).Put("/", handler.UpdateProduct)
		r.With(authMiddleware).Delete("/", handler.DeleteProduct)
		r.With(authMiddleware).Post("/image", handler.UploadProductImage)
	})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProductRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.productService.Create(r.Context(), req.toProduct(0))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, created)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	req, err := decodeProductRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.productService.Update(r.Context(), req.toProduct(id))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadProductImage accepts a multipart image file, stores it in the
// configured object store, and returns the product with its new image URI.
func (h *ProductHandler) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}

	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.productService.AttachImage(r.Context(), id, header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// ProductRequest is the JSON payload for create and update. Any id in the
// body is ignored; the path parameter is authoritative on update.
type ProductRequest struct {
	Name        string     `json:"name"`
	Genre       string     `json:"genre"`
	UnitPrice   float64    `json:"unitPrice"`
	UnitInStock int        `json:"unitInStock"`
	ReleaseDate types.Date `json:"releaseDate"`
	ImageUri    string     `json:"imageUri"`
}

func (req ProductRequest) toProduct(id int) types.Product {
	return types.Product{
		ID:          id,
		Name:        req.Name,
		Genre:       req.Genre,
		UnitPrice:   req.UnitPrice,
		UnitInStock: req.UnitInStock,
		ReleaseDate: req.ReleaseDate,
		ImageUri:    req.ImageUri,
	}
}

func decodeProductRequest(r *http.Request) (ProductRequest, error) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ProductRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	return req, nil
}

func parseProductID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "productID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
