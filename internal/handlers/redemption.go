// internal/handlers/redemption.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/curated-market/internal/i18n"
	"github.com/javajoker/curated-market/internal/middleware"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

type RedemptionHandler struct {
	redemptionService *services.RedemptionService
}

func NewRedemptionHandler(redemptionService *services.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{
		redemptionService: redemptionService,
	}
}

// GET /redeemables
func (h *RedemptionHandler) ListCatalog(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	items, total, err := h.redemptionService.ListCatalog(c.Request.Context(), params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, items, total, params)
}

// GET /redeemables/:id
func (h *RedemptionHandler) GetRedeemable(c *gin.Context) {
	id, ok := uuidParam(c, "id", "redeemable ID")
	if !ok {
		return
	}

	caller, _ := middleware.CallerFrom(c)
	item, err := h.redemptionService.GetRedeemable(c.Request.Context(), caller, id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"redeemable": item})
}

// POST /redeemables/:id/redeem
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "redeemable ID")
	if !ok {
		return
	}

	redemption, err := h.redemptionService.Redeem(c.Request.Context(), caller, id)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyRedemptionCompleted, gin.H{"redemption": redemption})
}

// GET /redemptions
func (h *RedemptionHandler) ListMyRedemptions(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	redemptions, total, err := h.redemptionService.ListMyRedemptions(c.Request.Context(), caller, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, redemptions, total, params)
}

// POST /admin/redeemables
func (h *RedemptionHandler) CreateRedeemable(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	var req services.CreateRedeemableRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.redemptionService.CreateRedeemable(c.Request.Context(), caller, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, i18n.KeyRedeemableCreated, gin.H{"redeemable": item})
}

// PUT /admin/redeemables/:id
func (h *RedemptionHandler) UpdateRedeemable(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", "redeemable ID")
	if !ok {
		return
	}

	var req services.UpdateRedeemableRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.redemptionService.UpdateRedeemable(c.Request.Context(), caller, id, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyRedeemableUpdated, gin.H{"redeemable": item})
}
