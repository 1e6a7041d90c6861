package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/postforge/postforge/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// handlePaymentProof stores a submitted screenshot or TXN note and
// pings the admins for review.
func (b *Bot) handlePaymentProof(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.sessions.clear(chatID)

	if b.db == nil {
		b.send(ctx, chatID, msgInternalError)
		return
	}

	payment := models.Payment{
		Reference: uuid.NewString(),
		ChatID:    chatID,
		Status:    models.PaymentStatusPending,
	}
	if len(msg.Photo) > 0 {
		// The last entry is the largest resolution.
		payment.FileID = msg.Photo[len(msg.Photo)-1].FileID
		payment.Note = strings.TrimSpace(msg.Caption)
	} else {
		payment.Note = strings.TrimSpace(msg.Text)
	}

	if errCreate := b.db.WithContext(ctx).Create(&payment).Error; errCreate != nil {
		log.WithError(errCreate).Error("bot: persist payment proof failed")
		b.send(ctx, chatID, msgInternalError)
		return
	}

	b.send(ctx, chatID, msgProofReceived)
	b.notifyAdmins(ctx, fmt.Sprintf(
		"💳 Payment proof from chat %d (ref %s).\nApprove: /approve %d [monthly|lifetime]\nReject: /reject %d",
		chatID, payment.Reference, chatID, chatID))
}

// handleApprove processes "/approve <chatID> [plan]" from an admin chat.
func (b *Bot) handleApprove(ctx context.Context, msg *tgbotapi.Message) {
	if !b.ledger.IsAdmin(msg.Chat.ID) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.send(ctx, msg.Chat.ID, "Usage: /approve <chatID> [monthly|lifetime]")
		return
	}
	targetChatID, errParse := strconv.ParseInt(args[0], 10, 64)
	if errParse != nil {
		b.send(ctx, msg.Chat.ID, "Invalid chat ID.")
		return
	}

	plan := models.PlanMonthly
	if len(args) > 1 {
		parsed, ok := models.ParsePlanTier(args[1])
		if !ok {
			b.send(ctx, msg.Chat.ID, "Unknown plan. Use monthly or lifetime.")
			return
		}
		plan = parsed
	}

	if errSet := b.ledger.SetPlan(ctx, targetChatID, plan); errSet != nil {
		log.WithError(errSet).Error("bot: approve set plan failed")
		b.send(ctx, msg.Chat.ID, msgInternalError)
		return
	}
	if errReview := b.reviewPendingPayment(ctx, targetChatID, models.PaymentStatusApproved, plan); errReview != nil {
		log.WithError(errReview).Warn("bot: mark payment approved failed")
	}

	b.send(ctx, targetChatID, msgPlanActivated)
	b.send(ctx, msg.Chat.ID, fmt.Sprintf("✅ Chat %d upgraded to %s.", targetChatID, plan))
}

// handleReject processes "/reject <chatID>" from an admin chat.
func (b *Bot) handleReject(ctx context.Context, msg *tgbotapi.Message) {
	if !b.ledger.IsAdmin(msg.Chat.ID) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.send(ctx, msg.Chat.ID, "Usage: /reject <chatID>")
		return
	}
	targetChatID, errParse := strconv.ParseInt(args[0], 10, 64)
	if errParse != nil {
		b.send(ctx, msg.Chat.ID, "Invalid chat ID.")
		return
	}

	if errReview := b.reviewPendingPayment(ctx, targetChatID, models.PaymentStatusRejected, ""); errReview != nil {
		log.WithError(errReview).Warn("bot: mark payment rejected failed")
	}

	b.send(ctx, targetChatID, msgPaymentRejected)
	b.send(ctx, msg.Chat.ID, fmt.Sprintf("❌ Payment from chat %d rejected.", targetChatID))
}

// reviewPendingPayment closes the newest pending payment for the chat.
func (b *Bot) reviewPendingPayment(ctx context.Context, chatID int64, status models.PaymentStatus, plan models.PlanTier) error {
	if b.db == nil {
		return nil
	}

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		errFind := tx.Where("chat_id = ? AND status = ?", chatID, models.PaymentStatusPending).
			Order("id DESC").First(&payment).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return nil
			}
			return errFind
		}

		now := time.Now().UTC()
		payment.Status = status
		payment.PlanGranted = plan
		payment.ReviewedAt = &now
		return tx.Save(&payment).Error
	})
}
