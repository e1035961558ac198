package catalogsvc

import (
	"context"
	"strings"
	"time"

	authmodels "soug_elwahah/internal/api/auth/models"
	basemodels "soug_elwahah/internal/api/base/models"
	catalogmodels "soug_elwahah/internal/api/catalog/models"
	"soug_elwahah/internal/common"
	"soug_elwahah/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoreRepository là kho lưu cửa hàng
type StoreRepository interface {
	Insert(ctx context.Context, store *catalogmodels.Store) error
	Get(ctx context.Context, id primitive.ObjectID) (*catalogmodels.Store, error)
}

// ProductRepository là kho lưu sản phẩm và tồn kho
type ProductRepository interface {
	Insert(ctx context.Context, p *catalogmodels.Product) error
	Get(ctx context.Context, id primitive.ObjectID) (*catalogmodels.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]catalogmodels.Product, error)
	ListByStore(ctx context.Context, storeID primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[catalogmodels.Product], error)
	Decrement(ctx context.Context, id primitive.ObjectID, qty int) error
	Increment(ctx context.Context, id primitive.ObjectID, qty int) error
	SetStock(ctx context.Context, id primitive.ObjectID, stock int, updatedAt int64) (*catalogmodels.Product, error)
}

// CreateStoreInput là dữ liệu tạo cửa hàng
type CreateStoreInput struct {
	OwnerID     primitive.ObjectID // admin tạo hộ; rỗng → actor
	Name        string
	Slug        string
	DeliveryFee *float64
	Currency    string
}

// CreateProductInput là dữ liệu tạo sản phẩm
type CreateProductInput struct {
	StoreID primitive.ObjectID
	SKU     string
	Name    string
	Price   float64
	Stock   int
}

// CatalogService là nghiệp vụ catalog; order service dùng nó để đọc sản phẩm và giữ tồn kho
type CatalogService struct {
	stores          StoreRepository
	products        ProductRepository
	defaultCurrency string
	now             func() time.Time
}

// NewCatalogService tạo CatalogService
func NewCatalogService(stores StoreRepository, products ProductRepository, defaultCurrency string) *CatalogService {
	return &CatalogService{
		stores:          stores,
		products:        products,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

// CreateStore tạo cửa hàng cho user vai trò store (hoặc admin tạo hộ)
func (s *CatalogService) CreateStore(ctx context.Context, actor authmodels.Actor, in CreateStoreInput) (*catalogmodels.Store, error) {
	owner := actor.UserID
	switch {
	case actor.IsAdmin():
		if !in.OwnerID.IsZero() {
			owner = in.OwnerID
		}
	case actor.Is(authmodels.RoleStore):
	default:
		return nil, common.ErrForbidden
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Slug) == "" || (in.DeliveryFee != nil && *in.DeliveryFee < 0) {
		return nil, common.ErrInvalidInput
	}

	currency := in.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	ts := s.now().UnixMilli()
	store := &catalogmodels.Store{
		ID:          primitive.NewObjectID(),
		OwnerID:     owner,
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.ToLower(strings.TrimSpace(in.Slug)),
		DeliveryFee: in.DeliveryFee,
		Currency:    currency,
		IsActive:    true,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.stores.Insert(ctx, store); err != nil {
		return nil, err
	}
	logger.LogAction(ctx, logger.AuditAction{
		Action: "store_create", UserID: actor.UserID.Hex(), Role: string(actor.ActiveRole),
		ResourceType: "store", ResourceID: store.ID.Hex(),
	})
	return store, nil
}

// GetStore trả về cửa hàng theo id
func (s *CatalogService) GetStore(ctx context.Context, id primitive.ObjectID) (*catalogmodels.Store, error) {
	return s.stores.Get(ctx, id)
}

func (s *CatalogService) authorizeStore(ctx context.Context, actor authmodels.Actor, storeID primitive.ObjectID) (*catalogmodels.Store, error) {
	store, err := s.stores.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || (actor.Is(authmodels.RoleStore) && store.OwnerID == actor.UserID) {
		return store, nil
	}
	return nil, common.ErrForbidden
}

// CreateProduct thêm sản phẩm vào cửa hàng của actor
func (s *CatalogService) CreateProduct(ctx context.Context, actor authmodels.Actor, in CreateProductInput) (*catalogmodels.Product, error) {
	if _, err := s.authorizeStore(ctx, actor, in.StoreID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.SKU) == "" || in.Price < 0 || in.Stock < 0 {
		return nil, common.ErrInvalidInput
	}

	ts := s.now().UnixMilli()
	p := &catalogmodels.Product{
		ID:        primitive.NewObjectID(),
		StoreID:   in.StoreID,
		SKU:       strings.TrimSpace(in.SKU),
		Name:      strings.TrimSpace(in.Name),
		Price:     in.Price,
		Stock:     in.Stock,
		IsActive:  true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.products.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts liệt kê sản phẩm đang bán của cửa hàng (public)
func (s *CatalogService) ListProducts(ctx context.Context, storeID primitive.ObjectID, page, limit int64) (*basemodels.PaginateResult[catalogmodels.Product], error) {
	page, limit = basemodels.NormalizePage(page, limit)
	return s.products.ListByStore(ctx, storeID, page, limit)
}

// SetStock đặt lại tồn kho của sản phẩm (chủ cửa hàng hoặc admin)
func (s *CatalogService) SetStock(ctx context.Context, actor authmodels.Actor, productID primitive.ObjectID, stock int) (*catalogmodels.Product, error) {
	if stock < 0 {
		return nil, common.ErrInvalidInput
	}
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeStore(ctx, actor, p.StoreID); err != nil {
		return nil, err
	}
	updated, err := s.products.SetStock(ctx, productID, stock, s.now().UnixMilli())
	if err != nil {
		return nil, err
	}
	logger.LogAction(ctx, logger.AuditAction{
		Action: "stock_set", UserID: actor.UserID.Hex(), Role: string(actor.ActiveRole),
		ResourceType: "product", ResourceID: productID.Hex(),
		Details: map[string]interface{}{"from": p.Stock, "to": stock},
	})
	return updated, nil
}

// FindProducts đọc các sản phẩm theo id (dùng khi tạo đơn)
func (s *CatalogService) FindProducts(ctx context.Context, ids []primitive.ObjectID) ([]catalogmodels.Product, error) {
	return s.products.FindByIDs(ctx, ids)
}

// Decrement giữ tồn kho cho một dòng hàng
func (s *CatalogService) Decrement(ctx context.Context, productID primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return common.ErrInvalidInput
	}
	return s.products.Decrement(ctx, productID, qty)
}

// Increment trả lại tồn kho
func (s *CatalogService) Increment(ctx context.Context, productID primitive.ObjectID, qty int) error {
	if qty <= 0 {
		return common.ErrInvalidInput
	}
	return s.products.Increment(ctx, productID, qty)
}
