package main

import (
	"context"
	"fmt"
	"os"

	authmodels "soug_elwahah/internal/api/auth/models"
	catalogmodels "soug_elwahah/internal/api/catalog/models"
	catalogsvc "soug_elwahah/internal/api/catalog/service"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"
)

// catalogSeed là nội dung file seed danh mục
type catalogSeed struct {
	Stores []struct {
		OwnerID     string   `yaml:"ownerId"`
		Name        string   `yaml:"name"`
		Slug        string   `yaml:"slug"`
		DeliveryFee *float64 `yaml:"deliveryFee"`
		Currency    string   `yaml:"currency"`
		Products    []struct {
			SKU   string  `yaml:"sku"`
			Name  string  `yaml:"name"`
			Price float64 `yaml:"price"`
			Stock int     `yaml:"stock"`
		} `yaml:"products"`
	} `yaml:"stores"`
}

// catalogSeeder là phần catalog service mà seed dùng
type catalogSeeder interface {
	CreateStore(ctx context.Context, actor authmodels.Actor, in catalogsvc.CreateStoreInput) (*catalogmodels.Store, error)
	CreateProduct(ctx context.Context, actor authmodels.Actor, in catalogsvc.CreateProductInput) (*catalogmodels.Product, error)
}

func loadSeed(path string) (*catalogSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed catalogSeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return &seed, nil
}

// seedCatalog tạo cửa hàng và sản phẩm mẫu; cửa hàng đã có (trùng slug) thì bỏ qua cả sản phẩm của nó.
// Trả về số cửa hàng và sản phẩm đã tạo.
func seedCatalog(ctx context.Context, catalog catalogSeeder, seed *catalogSeed) (int, int, error) {
	system := authmodels.Actor{Roles: authmodels.NewRoleSet(authmodels.RoleAdmin), ActiveRole: authmodels.RoleAdmin}
	log := logger.WithModule("init")

	stores, products := 0, 0
	for _, st := range seed.Stores {
		owner, err := primitive.ObjectIDFromHex(st.OwnerID)
		if err != nil {
			return stores, products, fmt.Errorf("store %s: invalid ownerId %q", st.Slug, st.OwnerID)
		}
		store, err := catalog.CreateStore(ctx, system, catalogsvc.CreateStoreInput{
			OwnerID:     owner,
			Name:        st.Name,
			Slug:        st.Slug,
			DeliveryFee: st.DeliveryFee,
			Currency:    st.Currency,
		})
		if common.IsDuplicate(err) {
			log.WithField("slug", st.Slug).Info("Cửa hàng đã tồn tại, bỏ qua")
			continue
		}
		if err != nil {
			return stores, products, fmt.Errorf("store %s: %w", st.Slug, err)
		}
		stores++

		for _, p := range st.Products {
			_, err := catalog.CreateProduct(ctx, system, catalogsvc.CreateProductInput{
				StoreID: store.ID,
				SKU:     p.SKU,
				Name:    p.Name,
				Price:   p.Price,
				Stock:   p.Stock,
			})
			if common.IsDuplicate(err) {
				continue
			}
			if err != nil {
				return stores, products, fmt.Errorf("product %s: %w", p.SKU, err)
			}
			products++
		}
	}
	return stores, products, nil
}

// InitDefaultData nạp danh mục mẫu khi chạy ở INITMODE
func InitDefaultData(ctx context.Context, catalog catalogSeeder, path string) {
	log := logger.GetAppLogger()
	log.Info("🔄 [INIT] Starting InitDefaultData...")

	seed, err := loadSeed(resolvePath(path))
	if err != nil {
		log.WithError(err).Warn("❌ [INIT] Không đọc được file seed, bỏ qua")
		return
	}
	stores, products, err := seedCatalog(ctx, catalog, seed)
	if err != nil {
		log.WithError(err).Error("❌ [INIT] Seed danh mục thất bại")
		return
	}
	log.Infof("✅ [INIT] Seed danh mục xong: %d cửa hàng, %d sản phẩm", stores, products)
}
