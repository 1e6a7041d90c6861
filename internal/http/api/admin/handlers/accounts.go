package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/postforge/postforge/internal/ledger"
	"github.com/postforge/postforge/internal/models"
	"gorm.io/gorm"
)

// AccountHandler manages bot end-user accounts.
type AccountHandler struct {
	db     *gorm.DB       // Database handle for account queries.
	ledger *ledger.Ledger // Quota ledger for plan and lock mutations.
}

// NewAccountHandler constructs an account handler.
func NewAccountHandler(db *gorm.DB, ldg *ledger.Ledger) *AccountHandler {
	return &AccountHandler{db: db, ledger: ldg}
}

// List returns accounts, newest first, optionally filtered by plan.
func (h *AccountHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.Account{})

	if plan := strings.TrimSpace(c.Query("plan")); plan != "" {
		parsed, ok := models.ParsePlanTier(plan)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
			return
		}
		query = query.Where("plan = ?", parsed)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count accounts failed"})
		return
	}

	page, pageSize := pagination(c)
	var rows []models.Account
	errFind := query.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list accounts failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, formatAccount(&row))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out, "total": total, "page": page, "page_size": pageSize})
}

// Get returns one account with its live quota snapshot.
func (h *AccountHandler) Get(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var account models.Account
	errFind := h.db.WithContext(c.Request.Context()).Where("chat_id = ?", chatID).First(&account).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	resp := formatAccount(&account)
	if snap, errPeek := h.ledger.Peek(c.Request.Context(), chatID); errPeek == nil {
		resp["unlimited"] = snap.Unlimited
		resp["remaining_today"] = snap.Remaining
	}
	c.JSON(http.StatusOK, resp)
}

// setPlanRequest captures the payload for a plan change.
type setPlanRequest struct {
	Plan string `json:"plan"` // Target plan tier.
}

// SetPlan changes the account's plan tier, creating the account if needed.
func (h *AccountHandler) SetPlan(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var body setPlanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	plan, okPlan := models.ParsePlanTier(body.Plan)
	if !okPlan {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
		return
	}

	if errSet := h.ledger.SetPlan(c.Request.Context(), chatID, plan); errSet != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "set plan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "plan": plan})
}

// Unlock releases a stuck reservation lock and refunds the charge.
func (h *AccountHandler) Unlock(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	if errUnlock := h.ledger.Rollback(c.Request.Context(), chatID); errUnlock != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unlock failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// chatIDParam parses the chat_id path segment, writing the error response
// itself on failure.
func chatIDParam(c *gin.Context) (int64, bool) {
	chatID, errParse := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, false
	}
	return chatID, true
}

// pagination reads page/page_size query params with sane bounds.
func pagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}

// formatAccount formats an account row into response JSON.
func formatAccount(a *models.Account) gin.H {
	resp := gin.H{
		"chat_id":         a.ChatID,
		"plan":            a.Plan,
		"used_today":      a.UsedToday,
		"last_reset_date": a.LastResetDate,
		"created_at":      a.CreatedAt,
	}
	if a.LockedAt != nil {
		resp["locked_at"] = a.LockedAt
	}
	return resp
}
