package generate

import (
	"fmt"
	"strings"
)

// Platform is the social platform the content targets.
type Platform string

// Platform values.
const (
	PlatformTelegram  Platform = "telegram"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
)

// ContentType selects the shape of the generated post.
type ContentType string

// ContentType values.
const (
	TypeMotivation ContentType = "motivation"
	TypeQuote      ContentType = "quote"
	TypeHooks      ContentType = "hooks"
)

// Language selects the English variant of the output.
type Language string

// Language values.
const (
	LanguageIndian Language = "indian"
	LanguageGlobal Language = "global"
)

// AllowedPlatforms returns the platforms the user may target. Free
// accounts are limited to Telegram.
func AllowedPlatforms(paid bool) []Platform {
	if paid {
		return []Platform{PlatformTelegram, PlatformWhatsApp, PlatformInstagram, PlatformTwitter}
	}
	return []Platform{PlatformTelegram}
}

// AllowedTypes returns the content types the user may pick. Hooks are
// reserved for paid accounts.
func AllowedTypes(paid bool) []ContentType {
	if paid {
		return []ContentType{TypeMotivation, TypeQuote, TypeHooks}
	}
	return []ContentType{TypeMotivation, TypeQuote}
}

// ParsePlatform validates a platform string.
func ParsePlatform(raw string) (Platform, bool) {
	switch Platform(strings.ToLower(strings.TrimSpace(raw))) {
	case PlatformTelegram:
		return PlatformTelegram, true
	case PlatformWhatsApp:
		return PlatformWhatsApp, true
	case PlatformInstagram:
		return PlatformInstagram, true
	case PlatformTwitter:
		return PlatformTwitter, true
	default:
		return "", false
	}
}

// ParseContentType validates a content type string.
func ParseContentType(raw string) (ContentType, bool) {
	switch ContentType(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeMotivation:
		return TypeMotivation, true
	case TypeQuote:
		return TypeQuote, true
	case TypeHooks:
		return TypeHooks, true
	default:
		return "", false
	}
}

// ParseLanguage validates a language string.
func ParseLanguage(raw string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(raw))) {
	case LanguageIndian:
		return LanguageIndian, true
	case LanguageGlobal:
		return LanguageGlobal, true
	default:
		return "", false
	}
}

// Request describes one generation.
type Request struct {
	Platform Platform
	Type     ContentType
	Language Language
}

// BuildPrompt renders the system prompt for a generation request.
func BuildPrompt(req Request) string {
	language := "Global English"
	if req.Language == LanguageIndian {
		language = "Indian English"
	}

	var b strings.Builder
	b.WriteString("You are NOT an assistant.\n")
	b.WriteString("Output ONLY final post-ready content.\n\n")
	b.WriteString("Topic: discipline, effort, consistency, skills.\n")
	b.WriteString("Write 2-4 short sharp lines.\n\n")
	fmt.Fprintf(&b, "Platform: %s\n", req.Platform)
	fmt.Fprintf(&b, "Language: %s\n", language)

	if req.Type == TypeHooks {
		b.WriteString("Write 3 short hook-style thoughts.\n")
	}
	return b.String()
}
