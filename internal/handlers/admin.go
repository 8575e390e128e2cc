// internal/handlers/admin.go
package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/curated-market/internal/i18n"
	"github.com/javajoker/curated-market/internal/middleware"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	stats, err := h.adminService.GetDashboardStats(c.Request.Context(), caller)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := services.AdminUserFilter{
		PaginationParams: params,
	}

	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}

	if status := c.Query("status"); status != "" {
		s := models.UserStatus(status)
		filter.Status = &s
	}

	if approved := c.Query("curator_approved"); approved != "" {
		if v, err := strconv.ParseBool(approved); err == nil {
			filter.IsCuratorApproved = &v
		}
	}

	if createdAfter := c.Query("created_after"); createdAfter != "" {
		if t, err := time.Parse("2006-01-02", createdAfter); err == nil {
			filter.CreatedAfter = &t
		}
	}

	if createdBefore := c.Query("created_before"); createdBefore != "" {
		if t, err := time.Parse("2006-01-02", createdBefore); err == nil {
			filter.CreatedBefore = &t
		}
	}

	users, total, err := h.adminService.GetUsers(c.Request.Context(), caller, filter)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, users, total, params)
}

// PUT /admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "id", "user ID")
	if !ok {
		return
	}

	var req services.UpdateUserRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUserRole(c.Request.Context(), caller, userID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyAdminActionSuccess, gin.H{"user": user})
}

// PUT /admin/users/:id/curator-approval
func (h *AdminHandler) SetCuratorApproval(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "id", "user ID")
	if !ok {
		return
	}

	var req services.CuratorApprovalRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.SetCuratorApproval(c.Request.Context(), caller, userID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyAdminActionSuccess, gin.H{"user": user})
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "id", "user ID")
	if !ok {
		return
	}

	var req services.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUserStatus(c.Request.Context(), caller, userID, &req)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	utils.SuccessMessageResponse(c, i18n.KeyAdminActionSuccess, gin.H{"user": user})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	logs, total, err := h.adminService.GetAuditLogs(c.Request.Context(), caller, c.Query("resource_type"), params)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	paginated(c, logs, total, params)
}
