// Package cataloghdl chứa HTTP handler cho domain catalog.
package cataloghdl

import (
	basehdl "soug_elwahah/internal/api/base/handler"
	catalogdto "soug_elwahah/internal/api/catalog/dto"
	catalogsvc "soug_elwahah/internal/api/catalog/service"
	"soug_elwahah/internal/utility"

	"github.com/gofiber/fiber/v3"
)

// CatalogHandler xử lý route cửa hàng, sản phẩm, tồn kho
type CatalogHandler struct {
	service *catalogsvc.CatalogService
}

func NewCatalogHandler(service *catalogsvc.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// HandleCreateStore tạo cửa hàng
// @Router /catalog/stores [post]
func (h *CatalogHandler) HandleCreateStore(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req catalogdto.StoreCreateInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		store, err := h.service.CreateStore(c.Context(), actor, catalogsvc.CreateStoreInput{
			OwnerID:     utility.String2ObjectID(req.OwnerID),
			Name:        req.Name,
			Slug:        req.Slug,
			DeliveryFee: req.DeliveryFee,
			Currency:    req.Currency,
		})
		return basehdl.HandleCreated(c, store, err)
	})
}

// HandleCreateProduct tạo sản phẩm
// @Router /catalog/products [post]
func (h *CatalogHandler) HandleCreateProduct(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req catalogdto.ProductCreateInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		product, err := h.service.CreateProduct(c.Context(), actor, catalogsvc.CreateProductInput{
			StoreID: utility.String2ObjectID(req.StoreID),
			SKU:     req.SKU,
			Name:    req.Name,
			Price:   req.Price,
			Stock:   req.Stock,
		})
		return basehdl.HandleCreated(c, product, err)
	})
}

// HandleListProducts liệt kê sản phẩm của cửa hàng (public)
// @Router /catalog/stores/{storeId}/products [get]
func (h *CatalogHandler) HandleListProducts(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		storeID, err := basehdl.ParseObjectID(c, "storeId")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		page, limit := basehdl.ParsePage(c)
		result, err := h.service.ListProducts(c.Context(), storeID, page, limit)
		return basehdl.HandleResponse(c, result, err)
	})
}

// HandleSetStock cập nhật tồn kho
// @Router /catalog/products/{id}/stock [put]
func (h *CatalogHandler) HandleSetStock(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, err := basehdl.Actor(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		productID, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var req catalogdto.StockUpdateInput
		if err := basehdl.ParseBody(c, &req); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		product, err := h.service.SetStock(c.Context(), actor, productID, *req.Stock)
		return basehdl.HandleResponse(c, product, err)
	})
}
