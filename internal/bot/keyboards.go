package bot

import (
	"strings"

	"github.com/postforge/postforge/internal/generate"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data prefixes for menu steps.
const (
	callbackGenerate = "generate"
	callbackLimit    = "limit"
	callbackPaid     = "paid"

	callbackPlatformPrefix = "platform_"
	callbackTypePrefix     = "type_"
	callbackLanguagePrefix = "lang_"
)

// mainKeyboard is the /start menu.
func mainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Generate Content", callbackGenerate),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 My Limit", callbackLimit),
			tgbotapi.NewInlineKeyboardButtonData("💰 Paid Plan", callbackPaid),
		),
	)
}

// platformKeyboard lists the platforms the user may target.
func platformKeyboard(paid bool) tgbotapi.InlineKeyboardMarkup {
	platforms := generate.AllowedPlatforms(paid)
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(platforms))
	for _, p := range platforms {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(strings.ToUpper(string(p)), callbackPlatformPrefix+string(p)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// typeKeyboard lists the content types the user may pick.
func typeKeyboard(paid bool) tgbotapi.InlineKeyboardMarkup {
	types := generate.AllowedTypes(paid)
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(types))
	for _, ct := range types {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(strings.ToUpper(string(ct)), callbackTypePrefix+string(ct)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// languageKeyboard lists the output language variants.
func languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🇮🇳 Indian English", callbackLanguagePrefix+string(generate.LanguageIndian)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌍 Global English", callbackLanguagePrefix+string(generate.LanguageGlobal)),
		),
	)
}
