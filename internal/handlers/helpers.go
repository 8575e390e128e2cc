// internal/handlers/helpers.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/curated-market/internal/i18n"
	"github.com/javajoker/curated-market/internal/middleware"
	"github.com/javajoker/curated-market/internal/services"
	"github.com/javajoker/curated-market/internal/utils"
)

// bindJSON decodes the body; services run struct validation themselves.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, what), nil)
		return uuid.Nil, false
	}
	return id, true
}

// viewerFrom returns the optional caller on routes mounted behind OptionalAuth.
func viewerFrom(c *gin.Context) *services.Caller {
	if caller, ok := middleware.CallerFrom(c); ok {
		return &caller
	}
	return nil
}

func paginated(c *gin.Context, data interface{}, total int64, params utils.PaginationParams) {
	utils.PaginatedResponse(c, utils.CreatePaginationResult(data, total, params))
}
