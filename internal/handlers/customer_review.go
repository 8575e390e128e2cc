// internal/handlers/customer_review.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/curated-market/internal/i18n"
	"github.com/javajoker/curated-market/internal/middleware"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

type CustomerReviewHandler struct {
	customerReviewService *services.CustomerReviewService
}

func NewCustomerReviewHandler(customerReviewService *services.CustomerReviewService) *CustomerReviewHandler {
	return &CustomerReviewHandler{
		customerReviewService: customerReviewService,
	}
}

// POST /products/:id/reviews
func (h *CustomerReviewHandler) CreateReview(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "id", "product ID")
	if !ok {
		return
	}

	var req services.CreateCustomerReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.customerReviewService.CreateReview(c.Request.Context(), caller, productID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyCustomerReviewCreated, gin.H{"review": review})
}

// GET /products/:id/reviews
func (h *CustomerReviewHandler) ListProductReviews(c *gin.Context) {
	productID, ok := uuidParam(c, "id", "product ID")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	reviews, total, err := h.customerReviewService.ListProductReviews(c.Request.Context(), productID, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, reviews, total, params)
}

// POST /reviews/:id/response
func (h *CustomerReviewHandler) RespondToReview(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	reviewID, ok := uuidParam(c, "id", "review ID")
	if !ok {
		return
	}

	var req services.RespondToReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.customerReviewService.RespondToReview(c.Request.Context(), caller, reviewID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeySellerResponseCreated, gin.H{"response": response})
}
