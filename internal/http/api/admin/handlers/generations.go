package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postforge/postforge/internal/models"
	"gorm.io/gorm"
)

// GenerationHandler exposes generation history for reporting.
type GenerationHandler struct {
	db *gorm.DB // Database handle for generation rows.
}

// NewGenerationHandler constructs a generation handler.
func NewGenerationHandler(db *gorm.DB) *GenerationHandler {
	return &GenerationHandler{db: db}
}

// List returns generation records, newest first. Supports chat_id,
// failed, and since (RFC 3339) filters.
func (h *GenerationHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.Generation{})

	if raw := strings.TrimSpace(c.Query("chat_id")); raw != "" {
		chatID, errParse := strconv.ParseInt(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
			return
		}
		query = query.Where("chat_id = ?", chatID)
	}
	if raw := strings.TrimSpace(c.Query("failed")); raw != "" {
		failed, errParse := strconv.ParseBool(raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid failed flag"})
			return
		}
		query = query.Where("failed = ?", failed)
	}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		since, errParse := time.Parse(time.RFC3339, raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
			return
		}
		query = query.Where("requested_at >= ?", since.UTC())
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count generations failed"})
		return
	}

	page, pageSize := pagination(c)
	var rows []models.Generation
	errFind := query.Order("requested_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list generations failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":              row.ID,
			"chat_id":         row.ChatID,
			"platform":        row.Platform,
			"content_type":    row.ContentType,
			"language":        row.Language,
			"model":           row.Model,
			"prompt_chars":    row.PromptChars,
			"output_chars":    row.OutputChars,
			"failed":          row.Failed,
			"duration_millis": row.DurationMillis,
			"requested_at":    row.RequestedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"generations": out, "total": total, "page": page, "page_size": pageSize})
}
