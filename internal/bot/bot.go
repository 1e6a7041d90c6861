package bot

import (
	"context"
	"fmt"

	"github.com/postforge/postforge/internal/generate"
	"github.com/postforge/postforge/internal/ledger"
	"github.com/postforge/postforge/internal/ratelimit"
	"github.com/postforge/postforge/internal/usage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// telegramSendRate bounds outbound messages across all chats. The Bot
// API caps broadcasts at roughly 30 messages per second.
const telegramSendRate = 30

// Bot wires the Telegram update loop to the ledger, the generation
// client, and the payment workflow.
type Bot struct {
	api *tgbotapi.BotAPI
	db  *gorm.DB

	ledger   *ledger.Ledger
	gen      *generate.Client
	recorder *usage.Recorder
	limits   *ratelimit.Manager
	sessions *sessionStore

	sendLimiter  *rate.Limiter
	adminChatIDs []int64
}

// New constructs a Bot from an authorized API client and its
// collaborators.
func New(api *tgbotapi.BotAPI, db *gorm.DB, ldg *ledger.Ledger, gen *generate.Client, recorder *usage.Recorder, limits *ratelimit.Manager, adminChatIDs []int64) (*Bot, error) {
	if api == nil {
		return nil, fmt.Errorf("bot: nil api client")
	}
	if ldg == nil {
		return nil, fmt.Errorf("bot: nil ledger")
	}
	if gen == nil {
		return nil, fmt.Errorf("bot: nil generation client")
	}
	return &Bot{
		api:          api,
		db:           db,
		ledger:       ldg,
		gen:          gen,
		recorder:     recorder,
		limits:       limits,
		sessions:     newSessionStore(),
		sendLimiter:  rate.NewLimiter(rate.Limit(telegramSendRate), telegramSendRate),
		adminChatIDs: adminChatIDs,
	}, nil
}

// Run consumes Telegram updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	log.Infof("bot: running as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("bot: update handler panic: %v", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// allowChat applies the per-chat incoming rate limit.
func (b *Bot) allowChat(ctx context.Context, chatID int64) bool {
	if b.limits == nil {
		return true
	}
	result, errAllow := b.limits.Allow(ctx, ratelimit.KeyForChat(chatID))
	if errAllow != nil {
		log.WithError(errAllow).Warn("bot: rate limit check failed")
		return true
	}
	return result.Allowed
}

// send delivers a plain-text message through the global send limiter.
func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	b.deliver(ctx, tgbotapi.NewMessage(chatID, text))
}

// sendMarkdown delivers a Markdown message through the global send limiter.
func (b *Bot) sendMarkdown(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.deliver(ctx, msg)
}

// sendKeyboard delivers a message with an inline keyboard.
func (b *Bot) sendKeyboard(ctx context.Context, chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	b.deliver(ctx, msg)
}

func (b *Bot) deliver(ctx context.Context, msg tgbotapi.MessageConfig) {
	if errWait := b.sendLimiter.Wait(ctx); errWait != nil {
		return
	}
	if _, errSend := b.api.Send(msg); errSend != nil {
		log.WithError(errSend).Warnf("bot: send to %d failed", msg.ChatID)
	}
}

// notifyAdmins sends a message to every configured admin chat.
func (b *Bot) notifyAdmins(ctx context.Context, text string) {
	for _, adminChatID := range b.adminChatIDs {
		b.send(ctx, adminChatID, text)
	}
}
