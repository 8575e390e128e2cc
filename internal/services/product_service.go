// internal/services/product_service.go
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=255"`
	Description string          `json:"description" validate:"required,min=10"`
	Category    string          `json:"category" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Tags        []string        `json:"tags,omitempty" validate:"max=20,dive,max=50"`
}

// UpdateProductRequest covers the seller-editable fields. Status and stock are
// absent: status moves only through curator reviews.
type UpdateProductRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description *string          `json:"description,omitempty" validate:"omitempty,min=10"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0"`
	Tags        []string         `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	Category string
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	Tags     []string
	InStock  bool
}

var productSortFields = []string{"created_at", "updated_at", "title", "price", "sales_count", "rating", "review_score"}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// CreateProduct submits a listing for curation; it always starts pending.
func (s *ProductService) CreateProduct(ctx context.Context, caller Caller, req *CreateProductRequest) (*models.Product, error) {
	if err := Require(caller.Role, CapProductCreate); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var seller models.User
	if err := findByID(db, &seller, caller.UserID, "user"); err != nil {
		return nil, err
	}
	if seller.Status != models.UserStatusActive {
		return nil, apperrors.Forbidden("seller account is not active")
	}

	product := &models.Product{
		SellerID:    seller.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		Tags:        pq.StringArray(req.Tags),
		Status:      models.ProductStatusPending,
	}
	if err := db.Omit(clause.Associations).Create(product).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"seller_id":  seller.ID,
	}).Info("Product submitted for curation")

	return product, nil
}

// GetProduct hides non-approved products from everyone except the seller,
// curators and admins. viewer is nil for anonymous requests.
func (s *ProductService) GetProduct(ctx context.Context, viewer *Caller, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := findByID(preload(s.db.WithContext(ctx), "Seller"), &product, id, "product"); err != nil {
		return nil, err
	}

	if !product.Status.Orderable() && !canSeeUnlisted(viewer, &product) {
		return nil, apperrors.NotFound("product")
	}
	return &product, nil
}

func canSeeUnlisted(viewer *Caller, product *models.Product) bool {
	if viewer == nil {
		return false
	}
	switch viewer.Role {
	case models.RoleAdmin, models.RoleCurator:
		return true
	}
	return viewer.UserID == product.SellerID
}

func (s *ProductService) UpdateProduct(ctx context.Context, caller Caller, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := Require(caller.Role, CapProductCreate); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var product models.Product
	if err := findByID(db, &product, id, "product"); err != nil {
		return nil, err
	}
	if product.SellerID != caller.UserID {
		return nil, apperrors.Forbidden("only the seller can update this product")
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Price != nil {
		updates["price"] = req.Price.Round(2)
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}

	if len(updates) > 0 {
		if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.TransactionFailure(err)
		}
	}

	if err := findByID(db, &product, id, "product"); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct soft-deletes a listing that has never been ordered.
func (s *ProductService) DeleteProduct(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := Require(caller.Role, CapProductCreate); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	var product models.Product
	if err := findByID(db, &product, id, "product"); err != nil {
		return err
	}
	if product.SellerID != caller.UserID && !caller.IsAdmin() {
		return apperrors.Forbidden("only the seller can delete this product")
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Where("product_id = ?", id).Count(&orderCount).Error; err != nil {
		return apperrors.TransactionFailure(err)
	}
	if orderCount > 0 {
		return apperrors.InvalidState("cannot delete a product that has orders")
	}

	if err := db.Delete(&product).Error; err != nil {
		return apperrors.TransactionFailure(err)
	}
	return nil
}

// SearchProducts lists approved products only.
func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("status = ?", models.ProductStatusApproved)

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}
	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}
	if len(params.Tags) > 0 {
		query = query.Where("tags && ?", pq.StringArray(params.Tags))
	}
	if params.InStock {
		query = query.Where("stock > 0")
	}

	var products []models.Product
	total, err := paginate(query, params.PaginationParams, productSortFields, &products, "Seller")
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return products, total, nil
}

// GetSellerProducts shows every status to the seller and admins, approved only to others.
func (s *ProductService) GetSellerProducts(ctx context.Context, viewer *Caller, sellerID uuid.UUID, status models.ProductStatus, params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("seller_id = ?", sellerID)

	owner := viewer != nil && (viewer.UserID == sellerID || viewer.IsAdmin())
	switch {
	case !owner:
		query = query.Where("status = ?", models.ProductStatusApproved)
	case status != "":
		query = query.Where("status = ?", status)
	}
	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}

	var products []models.Product
	total, err := paginate(query, params, append(productSortFields, "status"), &products)
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return products, total, nil
}
