package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postforge/postforge/internal/ledger"
	"github.com/postforge/postforge/internal/models"
	"gorm.io/gorm"
)

// PaymentHandler reviews manually submitted payment proofs.
type PaymentHandler struct {
	db     *gorm.DB       // Database handle for payment rows.
	ledger *ledger.Ledger // Quota ledger for granting plans on approval.
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(db *gorm.DB, ldg *ledger.Ledger) *PaymentHandler {
	return &PaymentHandler{db: db, ledger: ldg}
}

// List returns payments, newest first, optionally filtered by status.
func (h *PaymentHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.Payment{})

	switch strings.ToLower(strings.TrimSpace(c.Query("status"))) {
	case "":
	case "pending":
		query = query.Where("status = ?", models.PaymentStatusPending)
	case "approved":
		query = query.Where("status = ?", models.PaymentStatusApproved)
	case "rejected":
		query = query.Where("status = ?", models.PaymentStatusRejected)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count payments failed"})
		return
	}

	page, pageSize := pagination(c)
	var rows []models.Payment
	errFind := query.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list payments failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, formatPayment(&row))
	}
	c.JSON(http.StatusOK, gin.H{"payments": out, "total": total, "page": page, "page_size": pageSize})
}

// approvePaymentRequest captures the payload for payment approval.
type approvePaymentRequest struct {
	Plan string `json:"plan"` // Plan to grant; defaults to monthly.
}

// Approve accepts a pending payment and grants the plan to the account.
func (h *PaymentHandler) Approve(c *gin.Context) {
	paymentID, ok := paymentIDParam(c)
	if !ok {
		return
	}

	// An empty body is fine and grants the default plan.
	var body approvePaymentRequest
	if c.Request.ContentLength > 0 {
		if errBind := c.ShouldBindJSON(&body); errBind != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	plan := models.PlanMonthly
	if strings.TrimSpace(body.Plan) != "" {
		parsed, okPlan := models.ParsePlanTier(body.Plan)
		if !okPlan {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
			return
		}
		plan = parsed
	}

	payment, errReview := h.review(c, paymentID, models.PaymentStatusApproved, plan)
	if errReview != nil {
		return
	}

	if errSet := h.ledger.SetPlan(c.Request.Context(), payment.ChatID, plan); errSet != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "grant plan failed"})
		return
	}
	c.JSON(http.StatusOK, formatPayment(payment))
}

// Reject declines a pending payment.
func (h *PaymentHandler) Reject(c *gin.Context) {
	paymentID, ok := paymentIDParam(c)
	if !ok {
		return
	}

	payment, errReview := h.review(c, paymentID, models.PaymentStatusRejected, "")
	if errReview != nil {
		return
	}
	c.JSON(http.StatusOK, formatPayment(payment))
}

// review transitions a pending payment to its final status. Error
// responses are written here; callers only check the returned error.
func (h *PaymentHandler) review(c *gin.Context, paymentID uint64, status models.PaymentStatus, plan models.PlanTier) (*models.Payment, error) {
	var payment models.Payment

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.First(&payment, paymentID).Error; errFind != nil {
			return errFind
		}
		if payment.Status != models.PaymentStatusPending {
			return errAlreadyReviewed
		}

		now := time.Now().UTC()
		payment.Status = status
		payment.PlanGranted = plan
		payment.ReviewedAt = &now
		if adminID, okAdmin := c.Get("adminID"); okAdmin {
			if id, okCast := adminID.(uint64); okCast {
				payment.ReviewedBy = &id
			}
		}
		return tx.Save(&payment).Error
	})
	if errTx != nil {
		switch {
		case errors.Is(errTx, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case errors.Is(errTx, errAlreadyReviewed):
			c.JSON(http.StatusConflict, gin.H{"error": "already reviewed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "review failed"})
		}
		return nil, errTx
	}
	return &payment, nil
}

var errAlreadyReviewed = errors.New("payment already reviewed")

func paymentIDParam(c *gin.Context) (uint64, bool) {
	paymentID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return 0, false
	}
	return paymentID, true
}

// formatPayment formats a payment row into response JSON.
func formatPayment(p *models.Payment) gin.H {
	resp := gin.H{
		"id":         p.ID,
		"reference":  p.Reference,
		"chat_id":    p.ChatID,
		"status":     int(p.Status),
		"note":       p.Note,
		"created_at": p.CreatedAt,
	}
	if p.FileID != "" {
		resp["file_id"] = p.FileID
	}
	if p.PlanGranted != "" {
		resp["plan_granted"] = p.PlanGranted
	}
	if p.ReviewedAt != nil {
		resp["reviewed_at"] = p.ReviewedAt
	}
	if p.ReviewedBy != nil {
		resp["reviewed_by"] = p.ReviewedBy
	}
	return resp
}
