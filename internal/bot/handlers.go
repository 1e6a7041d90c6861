package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/postforge/postforge/internal/generate"
	"github.com/postforge/postforge/internal/ledger"
	"github.com/postforge/postforge/internal/models"
	"github.com/postforge/postforge/internal/usage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.allowChat(ctx, chatID) {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.sessions.clear(chatID)
			reply := tgbotapi.NewMessage(chatID, msgWelcome)
			reply.ParseMode = tgbotapi.ModeMarkdown
			reply.ReplyMarkup = mainKeyboard()
			b.deliver(ctx, reply)
		case "approve":
			b.handleApprove(ctx, msg)
		case "reject":
			b.handleReject(ctx, msg)
		}
		return
	}

	sess := b.sessions.snapshot(chatID)

	if sess.AwaitingPaymentProof {
		if len(msg.Photo) > 0 || strings.TrimSpace(msg.Text) != "" {
			b.handlePaymentProof(ctx, msg)
			return
		}
	}

	if strings.Contains(strings.ToUpper(msg.Text), "PAID") {
		b.sessions.update(chatID, func(s *session) {
			*s = session{AwaitingPaymentProof: true}
		})
		b.send(ctx, chatID, msgSendProof)
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	// Ack first so the client stops its spinner.
	if _, errAck := b.api.Request(tgbotapi.NewCallback(q.ID, "")); errAck != nil {
		log.WithError(errAck).Warn("bot: answer callback failed")
	}

	if !b.allowChat(ctx, chatID) {
		return
	}

	data := q.Data
	switch {
	case data == callbackLimit:
		b.handleLimit(ctx, chatID)
	case data == callbackPaid:
		b.sendMarkdown(ctx, chatID, msgPaidPlans)
	case data == callbackGenerate:
		b.handleGenerateMenu(ctx, chatID)
	case strings.HasPrefix(data, callbackPlatformPrefix):
		b.handlePlatformChoice(ctx, chatID, strings.TrimPrefix(data, callbackPlatformPrefix))
	case strings.HasPrefix(data, callbackTypePrefix):
		b.handleTypeChoice(ctx, chatID, strings.TrimPrefix(data, callbackTypePrefix))
	case strings.HasPrefix(data, callbackLanguagePrefix):
		b.handleLanguageChoice(ctx, chatID, strings.TrimPrefix(data, callbackLanguagePrefix))
	}
}

func (b *Bot) handleLimit(ctx context.Context, chatID int64) {
	snap, errPeek := b.ledger.Peek(ctx, chatID)
	if errPeek != nil {
		log.WithError(errPeek).Error("bot: peek failed")
		b.send(ctx, chatID, msgInternalError)
		return
	}

	remaining := strconv.Itoa(snap.Remaining)
	if snap.Unlimited {
		remaining = "Unlimited"
	}
	b.sendMarkdown(ctx, chatID, fmt.Sprintf("📊 *Your Limit*\n\nPlan: *%s*\nRemaining today: *%s*", snap.Plan, remaining))
}

// isPaid reports whether the chat gets the paid menu options.
func (b *Bot) isPaid(ctx context.Context, chatID int64) bool {
	if b.ledger.IsAdmin(chatID) {
		return true
	}
	snap, errPeek := b.ledger.Peek(ctx, chatID)
	if errPeek != nil {
		log.WithError(errPeek).Warn("bot: peek failed, assuming free tier")
		return false
	}
	return snap.Plan != models.PlanFree
}

func (b *Bot) handleGenerateMenu(ctx context.Context, chatID int64) {
	snap, errPeek := b.ledger.Peek(ctx, chatID)
	if errPeek != nil {
		log.WithError(errPeek).Error("bot: peek failed")
		b.send(ctx, chatID, msgInternalError)
		return
	}
	if !snap.Unlimited && snap.Remaining <= 0 {
		b.sendMarkdown(ctx, chatID, msgLimitReached)
		return
	}

	b.sessions.update(chatID, func(s *session) { *s = session{} })
	b.sendKeyboard(ctx, chatID, msgChoosePlatform, platformKeyboard(b.isPaid(ctx, chatID)))
}

func (b *Bot) handlePlatformChoice(ctx context.Context, chatID int64, raw string) {
	platform, ok := generate.ParsePlatform(raw)
	if !ok {
		return
	}
	b.sessions.update(chatID, func(s *session) { s.Platform = platform })
	b.sendKeyboard(ctx, chatID, msgChooseType, typeKeyboard(b.isPaid(ctx, chatID)))
}

func (b *Bot) handleTypeChoice(ctx context.Context, chatID int64, raw string) {
	contentType, ok := generate.ParseContentType(raw)
	if !ok {
		return
	}
	b.sessions.update(chatID, func(s *session) { s.Type = contentType })
	b.sendKeyboard(ctx, chatID, msgChooseLanguage, languageKeyboard())
}

func (b *Bot) handleLanguageChoice(ctx context.Context, chatID int64, raw string) {
	language, ok := generate.ParseLanguage(raw)
	if !ok {
		return
	}

	sess := b.sessions.snapshot(chatID)
	if sess.Platform == "" || sess.Type == "" {
		b.send(ctx, chatID, msgSessionExpired)
		return
	}
	b.sessions.clear(chatID)

	b.runGeneration(ctx, chatID, generate.Request{
		Platform: sess.Platform,
		Type:     sess.Type,
		Language: language,
	})
}

// runGeneration reserves one unit of allowance, performs the upstream
// call outside the ledger lock, and always finalizes the reservation
// with Commit or Rollback.
func (b *Bot) runGeneration(ctx context.Context, chatID int64, req generate.Request) {
	result, errReserve := b.ledger.TryReserve(ctx, chatID)
	if errReserve != nil {
		log.WithError(errReserve).Error("bot: reserve failed")
		b.send(ctx, chatID, msgInternalError)
		return
	}
	if !result.Reserved {
		switch result.Reason {
		case ledger.DenyInProgress:
			b.send(ctx, chatID, msgInProgress)
		default:
			b.sendMarkdown(ctx, chatID, msgLimitReached)
		}
		return
	}

	// The reservation is finalized on every exit path, panics included.
	finalized := false
	defer func() {
		if finalized {
			return
		}
		if errRollback := b.ledger.Rollback(context.Background(), chatID); errRollback != nil {
			log.WithError(errRollback).Error("bot: rollback failed")
		}
	}()

	b.send(ctx, chatID, msgGenerating)

	prompt := generate.BuildPrompt(req)
	started := time.Now()
	text, errGenerate := b.gen.Generate(ctx, prompt)
	elapsed := time.Since(started)

	record := usage.Record{
		ChatID:      chatID,
		Platform:    string(req.Platform),
		ContentType: string(req.Type),
		Language:    string(req.Language),
		Model:       b.gen.Model(),
		PromptChars: len(prompt),
		Duration:    elapsed,
		RequestedAt: started.UTC(),
	}

	if errGenerate != nil {
		log.WithError(errGenerate).Warn("bot: generation failed")
		record.Failed = true
		if b.recorder != nil {
			b.recorder.Record(record)
		}
		if errRollback := b.ledger.Rollback(ctx, chatID); errRollback != nil {
			log.WithError(errRollback).Error("bot: rollback failed")
		}
		finalized = true
		b.send(ctx, chatID, msgUpstreamBusy)
		return
	}

	if errCommit := b.ledger.Commit(ctx, chatID); errCommit != nil {
		log.WithError(errCommit).Error("bot: commit failed")
	}
	finalized = true

	record.OutputChars = len(text)
	if b.recorder != nil {
		b.recorder.Record(record)
	}

	b.sendMarkdown(ctx, chatID, "✍️ *Content Ready*\n\n"+text)
}
