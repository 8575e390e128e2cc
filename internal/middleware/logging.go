// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/curated-market/internal/models"
)

// Request fields that never reach the audit log.
var redactedFields = []string{"password", "refresh_token"}

func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for reads and health checks
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		auditLog := buildAuditLog(c, requestBody)
		go func() {
			if err := db.Create(auditLog).Error; err != nil {
				logrus.WithError(err).Error("Failed to create audit log")
			}
		}()
	}
}

func buildAuditLog(c *gin.Context, requestBody []byte) *models.AuditLog {
	var userUUID *uuid.UUID
	if caller, ok := CallerFrom(c); ok {
		userUUID = &caller.UserID
	}

	var requestData map[string]interface{}
	if len(requestBody) > 0 {
		if err := json.Unmarshal(requestBody, &requestData); err == nil {
			for _, field := range redactedFields {
				if _, ok := requestData[field]; ok {
					requestData[field] = "[REDACTED]"
				}
			}
		}
	}

	auditLog := &models.AuditLog{
		UserID:       userUUID,
		Action:       c.Request.Method + " " + c.Request.URL.Path,
		ResourceType: extractResourceType(c.Request.URL.Path),
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		NewValues:    models.JSONB(requestData),
	}

	// Extract resource ID from URL if present
	if resourceID := extractResourceID(c.Request.URL.Path); resourceID != "" {
		if parsed, err := uuid.Parse(resourceID); err == nil {
			auditLog.ResourceID = &parsed
		}
	}
	return auditLog
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "v1" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func extractResourceID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, part := range parts {
		if _, err := uuid.Parse(part); err == nil {
			return part
		}
	}
	return ""
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if caller, ok := CallerFrom(c); ok {
			fields["user_id"] = caller.UserID
			fields["role"] = caller.Role
		}

		entry := logrus.WithFields(fields)
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}
