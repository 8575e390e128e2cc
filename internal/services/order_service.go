// internal/services/order_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/config"
	"github.com/javajoker/curated-market/internal/database"
	"github.com/javajoker/curated-market/internal/metrics"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/utils"
)

type OrderService struct {
	db                  *gorm.DB
	restockOnCancel     bool
	notificationService *NotificationService
	now                 func() time.Time
}

type PlaceOrderRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=credit_card paypal bank_transfer"`
}

type UpdatePaymentStatusRequest struct {
	Status models.PaymentStatus `json:"status" validate:"required,oneof=completed cancelled failed"`
}

func NewOrderService(db *gorm.DB, cfg config.OrderConfig, notificationService *NotificationService) *OrderService {
	return &OrderService{
		db:                  db,
		restockOnCancel:     cfg.RestockOnCancel,
		notificationService: notificationService,
		now:                 time.Now,
	}
}

// PlaceOrder reserves one unit of an approved product for the caller. The order
// row and the stock decrement commit together or not at all.
func (s *OrderService) PlaceOrder(ctx context.Context, caller Caller, productID uuid.UUID, req *PlaceOrderRequest) (*models.Order, error) {
	order, err := s.placeOrder(ctx, caller, productID, req)
	metrics.Orders.WithLabelValues(metrics.Outcome(string(apperrors.KindOf(err)))).Inc()
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":       order.ID,
		"transaction_id": order.TransactionID,
		"product_id":     order.ProductID,
		"customer_id":    order.CustomerID,
		"amount":         order.Amount.StringFixed(2),
	}).Info("Order placed")

	s.notificationService.notifyQuietly(ctx, NotificationRequest{
		UserID:       order.SellerID,
		Type:         models.NotificationOrderPlaced,
		Title:        "New order",
		Message:      fmt.Sprintf("Order %s was placed for %s.", order.TransactionID, order.Product.Title),
		ResourceType: "order",
		ResourceID:   &order.ID,
	})

	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, caller Caller, productID uuid.UUID, req *PlaceOrderRequest) (*models.Order, error) {
	if err := Require(caller.Role, CapOrderPlace); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var order *models.Order
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := lockByID(tx, &product, productID, "product"); err != nil {
			return err
		}
		if !product.Status.Orderable() {
			return apperrors.InvalidState("product is not approved for sale")
		}
		if product.SellerID == caller.UserID {
			return apperrors.Forbidden("sellers cannot buy their own products")
		}

		transactionID, err := utils.GenerateTransactionID(s.now())
		if err != nil {
			return err
		}

		order = &models.Order{
			CustomerID:    caller.UserID,
			ProductID:     product.ID,
			SellerID:      product.SellerID,
			Amount:        product.Price,
			PaymentStatus: models.PaymentStatusPending,
			PaymentMethod: req.PaymentMethod,
			TransactionID: transactionID,
		}
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		// The insert above is discarded with the transaction when stock is gone.
		if product.Stock < 1 {
			return apperrors.InsufficientStock(product.Title)
		}
		result := tx.Model(&models.Product{}).
			Where("id = ? AND stock >= 1", product.ID).
			UpdateColumn("stock", gorm.Expr("stock - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.InsufficientStock(product.Title)
		}

		product.Stock--
		order.Product = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdatePaymentStatus moves a pending order to completed, cancelled or failed.
// Customers may complete or cancel their own orders; admins may apply any move.
// Cancelled and failed orders return their unit to stock when restocking is enabled.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, caller Caller, orderID uuid.UUID, req *UpdatePaymentStatusRequest) (*models.Order, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	next := req.Status

	var order models.Order
	restocked := false
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := lockByID(tx, &order, orderID, "order"); err != nil {
			return err
		}

		if !caller.IsAdmin() {
			if order.CustomerID != caller.UserID {
				return apperrors.Forbidden("only the customer or an admin can update this order")
			}
			if next == models.PaymentStatusFailed {
				return apperrors.Forbidden("only an admin can mark a payment as failed")
			}
		}

		if !order.PaymentStatus.CanTransition(next) {
			return apperrors.InvalidState(fmt.Sprintf("order payment cannot move from %s to %s", order.PaymentStatus, next))
		}

		now := s.now()
		updates := map[string]interface{}{"payment_status": next}
		if next == models.PaymentStatusCompleted {
			updates["paid_at"] = now
			order.PaidAt = &now
		} else {
			updates["closed_at"] = now
			order.ClosedAt = &now
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}
		order.PaymentStatus = next

		switch {
		case next == models.PaymentStatusCompleted:
			if err := tx.Model(&models.Product{}).Where("id = ?", order.ProductID).
				UpdateColumn("sales_count", gorm.Expr("sales_count + 1")).Error; err != nil {
				return err
			}
		case next.ReleasesStock() && s.restockOnCancel:
			if err := tx.Model(&models.Product{}).Where("id = ?", order.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + 1")).Error; err != nil {
				return err
			}
			restocked = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.PaymentTransitions.WithLabelValues(string(next)).Inc()

	logrus.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"status":    next,
		"restocked": restocked,
		"actor_id":  caller.UserID,
	}).Info("Order payment status changed")

	s.notificationService.notifyQuietly(ctx, NotificationRequest{
		UserID:       order.SellerID,
		Type:         models.NotificationOrderUpdated,
		Title:        "Order updated",
		Message:      fmt.Sprintf("Order %s is now %s.", order.TransactionID, next),
		ResourceType: "order",
		ResourceID:   &order.ID,
	})

	return &order, nil
}

// GetOrder is visible to the customer, the product's seller and admins.
func (s *OrderService) GetOrder(ctx context.Context, caller Caller, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := findByID(s.db.WithContext(ctx).Preload("Product"), &order, orderID, "order"); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && order.CustomerID != caller.UserID && order.SellerID != caller.UserID {
		return nil, apperrors.Forbidden("not allowed to view this order")
	}
	return &order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, caller Caller, status models.PaymentStatus, params utils.PaginationParams) ([]models.Order, int64, error) {
	return s.listOrders(ctx, "customer_id = ?", caller.UserID, status, params)
}

func (s *OrderService) ListSellerOrders(ctx context.Context, caller Caller, status models.PaymentStatus, params utils.PaginationParams) ([]models.Order, int64, error) {
	if err := Require(caller.Role, CapProductCreate); err != nil {
		return nil, 0, err
	}
	return s.listOrders(ctx, "seller_id = ?", caller.UserID, status, params)
}

func (s *OrderService) listOrders(ctx context.Context, owner string, userID uuid.UUID, status models.PaymentStatus, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where(owner, userID)
	if status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var orders []models.Order
	total, err := paginate(query, params, []string{"created_at", "amount"}, &orders, "Product")
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return orders, total, nil
}
