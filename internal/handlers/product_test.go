package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeImageStore struct {
	objects map[string][]byte
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: make(map[string][]byte)}
}

func (s *fakeImageStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeImageStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeImageStore) Bucket() string {
	return "eshop-images"
}

type productPayload struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Genre       string  `json:"genre"`
	UnitPrice   float64 `json:"unitPrice"`
	UnitInStock int     `json:"unitInStock"`
	ReleaseDate string  `json:"releaseDate"`
	ImageUri    string  `json:"imageUri"`
}

func sampleProductBody() map[string]any {
	return map[string]any{
		"name":        "PRODUCT NAME",
		"genre":       "PRODUCT GENRE",
		"unitPrice":   22,
		"unitInStock": 2,
		"releaseDate": "2022-01-01",
		"imageUri":    "IMAGE URI",
	}
}

func doRequest(t *testing.T, router http.Handler, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createSampleProduct(t *testing.T, env testEnv, bearer string) productPayload {
	t.Helper()

	recorder := doRequest(t, env.router, http.MethodPost, "/products", bearer, sampleProductBody())
	if recorder.Code != http.StatusOK {
		t.Fatalf("create status %d: %s", recorder.Code, recorder.Body.String())
	}

	var created productPayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return created
}

func TestProductLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	bearer := registerAndToken(t, env, "admin@example.com", "s3cret!")

	created := createSampleProduct(t, env, bearer)
	if created.ID == 0 {
		t.Fatalf("expected an assigned id")
	}
	if created.Name != "PRODUCT NAME" || created.Genre != "PRODUCT GENRE" ||
		created.UnitPrice != 22 || created.UnitInStock != 2 ||
		created.ReleaseDate != "2022-01-01" || created.ImageUri != "IMAGE URI" {
		t.Fatalf("create response mismatch: %+v", created)
	}

	recorder := doRequest(t, env.router, http.MethodGet, fmt.Sprintf("/products/%d", created.ID), "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get status %d", recorder.Code)
	}
	var fetched productPayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched != created {
		t.Fatalf("round-trip mismatch: got %+v want %+v", fetched, created)
	}

	update := map[string]any{
		"name":        "PRODUCT NAME UPDATED",
		"genre":       "PRODUCT GENRE UPDATED",
		"unitPrice":   222,
		"unitInStock": 22,
		"releaseDate": "2030-12-31",
		"imageUri":    "IGNORED",
	}
	recorder = doRequest(t, env.router, http.MethodPut, fmt.Sprintf("/products/%d", created.ID), bearer, update)
	if recorder.Code != http.StatusOK {
		t.Fatalf("update status %d: %s", recorder.Code, recorder.Body.String())
	}
	var updated productPayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update response: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("id changed on update: got %d want %d", updated.ID, created.ID)
	}
	if updated.Name != "PRODUCT NAME UPDATED" || updated.Genre != "PRODUCT GENRE UPDATED" ||
		updated.UnitPrice != 222 || updated.UnitInStock != 22 {
		t.Fatalf("replaced fields not applied: %+v", updated)
	}
	if updated.ReleaseDate != created.ReleaseDate || updated.ImageUri != created.ImageUri {
		t.Fatalf("release date and image uri must survive updates: %+v", updated)
	}

	recorder = doRequest(t, env.router, http.MethodDelete, fmt.Sprintf("/products/%d", created.ID), bearer, nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", recorder.Code)
	}

	recorder = doRequest(t, env.router, http.MethodGet, fmt.Sprintf("/products/%d", created.ID), "", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", recorder.Code)
	}
}

func TestListProducts_Public(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	bearer := registerAndToken(t, env, "admin@example.com", "s3cret!")
	createSampleProduct(t, env, bearer)
	createSampleProduct(t, env, bearer)

	recorder := doRequest(t, env.router, http.MethodGet, "/products", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list status %d", recorder.Code)
	}

	var products []productPayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
}

func TestGetProduct_UnknownID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)

	for _, path := range []string{"/products/999", "/products/abc"} {
		recorder := doRequest(t, env.router, http.MethodGet, path, "", nil)
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", path, recorder.Code)
		}
	}
}

func TestProductMutations_RequireBearer(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	bearer := registerAndToken(t, env, "admin@example.com", "s3cret!")
	created := createSampleProduct(t, env, bearer)

	cases := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/products", sampleProductBody()},
		{http.MethodPut, fmt.Sprintf("/products/%d", created.ID), sampleProductBody()},
		{http.MethodDelete, fmt.Sprintf("/products/%d", created.ID), nil},
	}
	for _, tc := range cases {
		recorder := doRequest(t, env.router, tc.method, tc.path, "", tc.body)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: expected 401, got %d", tc.method, tc.path, recorder.Code)
		}

		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		recorder = httptest.NewRecorder()
		env.router.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s with garbage token: expected 401, got %d", tc.method, tc.path, recorder.Code)
		}
	}
}

func TestCreateProduct_BlankName(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	bearer := registerAndToken(t, env, "admin@example.com", "s3cret!")

	body := sampleProductBody()
	body["name"] = "   "
	recorder := doRequest(t, env.router, http.MethodPost, "/products", bearer, body)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}

	var resp ValidationErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode validation response: %v", err)
	}
	if len(resp.FieldErrors) != 1 || resp.FieldErrors[0].Field != "name" {
		t.Fatalf("expected a name field error, got %+v", resp.FieldErrors)
	}
}

func TestUpdateProduct_UnknownID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	bearer := registerAndToken(t, env, "admin@example.com", "s3cret!")

	recorder := doRequest(t, env.router, http.MethodPut, "/products/999", bearer, sampleProductBody())
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestDeleteProduct_UnknownID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	bearer := registerAndToken(t, env, "admin@example.com", "s3cret!")

	recorder := doRequest(t, env.router, http.MethodDelete, "/products/999", bearer, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestUploadProductImage(t *testing.T) {
	t.Parallel()

	images := newFakeImageStore()
	env := newTestEnv(images)
	bearer := registerAndToken(t, env, "admin@example.com", "s3cret!")
	created := createSampleProduct(t, env, bearer)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "cover.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/products/%d/image", created.ID), &body)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("upload status %d: %s", recorder.Code, recorder.Body.String())
	}

	var updated productPayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if updated.ImageUri == created.ImageUri || updated.ImageUri == "" {
		t.Fatalf("expected a new image uri, got %q", updated.ImageUri)
	}
	if len(images.objects) != 1 {
		t.Fatalf("expected 1 stored object, got %d", len(images.objects))
	}
}

func TestUploadProductImage_StorageDisabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	bearer := registerAndToken(t, env, "admin@example.com", "s3cret!")
	created := createSampleProduct(t, env, bearer)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "cover.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/products/%d/image", created.ID), &body)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when storage is disabled, got %d", recorder.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)

	recorder := doRequest(t, env.router, http.MethodGet, "/healthz", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("healthz status %d", recorder.Code)
	}
}
