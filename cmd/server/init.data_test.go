package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	authmodels "soug_elwahah/internal/api/auth/models"
	catalogmodels "soug_elwahah/internal/api/catalog/models"
	catalogsvc "soug_elwahah/internal/api/catalog/service"
	"soug_elwahah/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeSeeder struct {
	slugs    map[string]bool
	products []catalogsvc.CreateProductInput
}

func (f *fakeSeeder) CreateStore(_ context.Context, actor authmodels.Actor, in catalogsvc.CreateStoreInput) (*catalogmodels.Store, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	if f.slugs[in.Slug] {
		return nil, common.ErrMongoDuplicate
	}
	f.slugs[in.Slug] = true
	return &catalogmodels.Store{ID: primitive.NewObjectID(), OwnerID: in.OwnerID, Slug: in.Slug}, nil
}

func (f *fakeSeeder) CreateProduct(_ context.Context, _ authmodels.Actor, in catalogsvc.CreateProductInput) (*catalogmodels.Product, error) {
	f.products = append(f.products, in)
	return &catalogmodels.Product{ID: primitive.NewObjectID(), StoreID: in.StoreID, SKU: in.SKU}, nil
}

const seedYAML = `
stores:
  - ownerId: "65a1f0c2e4b0a1b2c3d4e5f1"
    name: "A"
    slug: "a"
    deliveryFee: 10
    products:
      - {sku: "A-1", name: "one", price: 5, stock: 3}
      - {sku: "A-2", name: "two", price: 7, stock: 0}
  - ownerId: "65a1f0c2e4b0a1b2c3d4e5f2"
    name: "B"
    slug: "b"
    products:
      - {sku: "B-1", name: "three", price: 1, stock: 1}
`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSeedCatalog_SkipsExistingStores(t *testing.T) {
	seed, err := loadSeed(writeSeed(t, seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Stores, 2)

	f := &fakeSeeder{slugs: map[string]bool{"b": true}}
	stores, products, err := seedCatalog(context.Background(), f, seed)
	require.NoError(t, err)
	assert.Equal(t, 1, stores)
	assert.Equal(t, 2, products)
	assert.Equal(t, "A-1", f.products[0].SKU)
	assert.Equal(t, 3, f.products[0].Stock)
}

func TestSeedCatalog_RejectsBadOwner(t *testing.T) {
	seed, err := loadSeed(writeSeed(t, "stores:\n  - {ownerId: \"nope\", name: x, slug: x}\n"))
	require.NoError(t, err)

	_, _, err = seedCatalog(context.Background(), &fakeSeeder{slugs: map[string]bool{}}, seed)
	assert.Error(t, err)
}

func TestLoadSeed_ShippedCatalogParses(t *testing.T) {
	seed, err := loadSeed(filepath.Join("..", "..", "config", "seed", "catalog.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, seed.Stores)
	for _, st := range seed.Stores {
		_, err := primitive.ObjectIDFromHex(st.OwnerID)
		assert.NoError(t, err, st.Slug)
	}
}
