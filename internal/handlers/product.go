// internal/handlers/product.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/javajoker/curated-market/internal/i18n"
	"github.com/javajoker/curated-market/internal/middleware"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ProductSearchParams{
		PaginationParams: params,
		Category:         c.Query("category"),
	}

	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := decimal.NewFromString(priceMinStr); err == nil {
			searchParams.PriceMin = &priceMin
		}
	}

	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := decimal.NewFromString(priceMaxStr); err == nil {
			searchParams.PriceMax = &priceMax
		}
	}

	if tags := c.Query("tags"); tags != "" {
		searchParams.Tags = strings.Split(tags, ",")
	}

	if inStockStr := c.Query("in_stock"); inStockStr != "" {
		if inStock, err := strconv.ParseBool(inStockStr); err == nil {
			searchParams.InStock = inStock
		}
	}

	products, total, err := h.productService.SearchProducts(c.Request.Context(), searchParams)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, products, total, params)
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), caller, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyProductCreated, gin.H{"product": product})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id", "product ID")
	if !ok {
		return
	}

	viewer := viewerFrom(c)

	product, err := h.productService.GetProduct(c.Request.Context(), viewer, id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"product": product})
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "product ID")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), caller, id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyProductUpdated, gin.H{"product": product})
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "product ID")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), caller, id); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyProductDeleted, nil)
}

// GET /sellers/:id/products
func (h *ProductHandler) GetSellerProducts(c *gin.Context) {
	sellerID, ok := uuidParam(c, "id", "seller ID")
	if !ok {
		return
	}

	viewer := viewerFrom(c)

	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.GetSellerProducts(c.Request.Context(), viewer, sellerID,
		models.ProductStatus(c.Query("status")), params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, products, total, params)
}

// GET /products/mine
func (h *ProductHandler) GetMyProducts(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	status := models.ProductStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		utils.BadRequestResponse(c, "", gin.H{"status": c.Query("status")})
		return
	}

	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.GetSellerProducts(c.Request.Context(), &caller, caller.UserID, status, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, products, total, params)
}
