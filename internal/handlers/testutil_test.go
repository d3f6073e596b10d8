package handlers

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eshop-api/products/internal/services"
	"github.com/eshop-api/products/internal/store"
	"github.com/eshop-api/products/internal/token"
	"github.com/eshop-api/products/types"
)

type fakeUserRepo struct {
	byEmail map[string]types.User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: make(map[string]types.User),
		nextID:  1,
	}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if _, ok := r.byEmail[user.Email]; ok {
		return types.User{}, store.ErrConflict
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.byEmail[user.Email] = user
	return user, nil
}

type fakeProductRepo struct {
	byID   map[int]types.Product
	nextID int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		byID:   make(map[int]types.Product),
		nextID: 1,
	}
}

func (r *fakeProductRepo) List(_ context.Context) ([]types.Product, error) {
	products := make([]types.Product, 0, len(r.byID))
	for id := 1; id < r.nextID; id++ {
		if product, ok := r.byID[id]; ok {
			products = append(products, product)
		}
	}
	return products, nil
}

func (r *fakeProductRepo) Get(_ context.Context, id int) (types.Product, error) {
	product, ok := r.byID[id]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	return product, nil
}

func (r *fakeProductRepo) Create(_ context.Context, product types.Product) (types.Product, error) {
	product.ID = r.nextID
	r.nextID++
	r.byID[product.ID] = product
	return product, nil
}

// Update mirrors the SQL contract: only name, genre, unit price, and units
// in stock are replaced.
func (r *fakeProductRepo) Update(_ context.Context, product types.Product) (types.Product, error) {
	existing, ok := r.byID[product.ID]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	existing.Name = product.Name
	existing.Genre = product.Genre
	existing.UnitPrice = product.UnitPrice
	existing.UnitInStock = product.UnitInStock
	r.byID[product.ID] = existing
	return existing, nil
}

func (r *fakeProductRepo) UpdateImageURI(_ context.Context, id int, imageURI string) error {
	existing, ok := r.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	existing.ImageUri = imageURI
	r.byID[id] = existing
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type testEnv struct {
	router *chi.Mux
	tokens *token.Service
	users  *fakeUserRepo
}

// newTestEnv wires the full route table over in-memory repositories,
// mirroring server.New without the database.
func newTestEnv(images services.ImageStore) testEnv {
	tokens := token.NewService("test-secret", time.Hour)
	users := newFakeUserRepo()
	products := newFakeProductRepo()

	authService := services.NewAuthService(users, tokens)
	productService := services.NewProductService(products, images, nil, nil)

	authMiddleware := RequireAuth(tokens)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/products", func(r chi.Router) {
		ProductRouter(r, productService, authMiddleware)
	})
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authService, tokens)
	})

	return testEnv{
		router: router,
		tokens: tokens,
		users:  users,
	}
}
