// internal/handlers/review.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/curated-market/internal/i18n"
	"github.com/javajoker/curated-market/internal/middleware"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// POST /products/:id/curation
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "id", "product ID")
	if !ok {
		return
	}

	var req services.SubmitReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	outcome, err := h.reviewService.SubmitReview(c.Request.Context(), caller, productID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyReviewSubmitted, outcome)
}

// GET /products/:id/curation
func (h *ReviewHandler) ListProductReviews(c *gin.Context) {
	productID, ok := uuidParam(c, "id", "product ID")
	if !ok {
		return
	}

	reviews, err := h.reviewService.ListProductReviews(c.Request.Context(), viewerFrom(c), productID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"reviews": reviews})
}

// GET /curation/reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := uuidParam(c, "id", "review ID")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), viewerFrom(c), id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"review": review})
}

// GET /curation/reviews
func (h *ReviewHandler) ListMyReviews(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	reviews, total, err := h.reviewService.ListCuratorReviews(c.Request.Context(), caller.UserID, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, reviews, total, params)
}

// GET /curation/queue
func (h *ReviewHandler) GetQueue(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	products, total, err := h.reviewService.ListReviewQueue(c.Request.Context(), caller, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, products, total, params)
}
