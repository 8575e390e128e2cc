// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/curated-market/internal/middleware"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

type UserHandler struct {
	userService   *services.UserService
	pointsService *services.PointsService
}

func NewUserHandler(userService *services.UserService, pointsService *services.PointsService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		pointsService: pointsService,
	}
}

// GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := uuidParam(c, "id", "user ID")
	if !ok {
		return
	}

	profile, err := h.userService.GetPublicProfile(c.Request.Context(), userID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"user": profile})
}

// PUT /users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	var req services.UpdateUserProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user})
}

// GET /users/points
func (h *UserHandler) GetPointsSummary(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	summary, err := h.userService.GetPointsSummary(c.Request.Context(), caller.UserID)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, summary)
}

// GET /users/points/history
func (h *UserHandler) GetPointsHistory(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	entries, total, err := h.pointsService.GetHistory(c.Request.Context(), caller.UserID, params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, entries, total, params)
}
