package generate

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Request{
		Platform: PlatformInstagram,
		Type:     TypeQuote,
		Language: LanguageIndian,
	})

	for _, want := range []string{
		"Output ONLY final post-ready content.",
		"Platform: instagram",
		"Language: Indian English",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "hook-style") {
		t.Fatalf("quote prompt must not include hooks instruction:\n%s", prompt)
	}
}

func TestBuildPromptHooks(t *testing.T) {
	prompt := BuildPrompt(Request{
		Platform: PlatformTwitter,
		Type:     TypeHooks,
		Language: LanguageGlobal,
	})
	if !strings.Contains(prompt, "Write 3 short hook-style thoughts.") {
		t.Fatalf("hooks prompt missing instruction:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Language: Global English") {
		t.Fatalf("expected global english:\n%s", prompt)
	}
}

func TestAllowedPlatforms(t *testing.T) {
	free := AllowedPlatforms(false)
	if len(free) != 1 || free[0] != PlatformTelegram {
		t.Fatalf("free accounts should only get telegram, got %v", free)
	}
	paid := AllowedPlatforms(true)
	if len(paid) != 4 {
		t.Fatalf("paid accounts should get all platforms, got %v", paid)
	}
}

func TestAllowedTypes(t *testing.T) {
	free := AllowedTypes(false)
	for _, ct := range free {
		if ct == TypeHooks {
			t.Fatal("hooks must be paid-only")
		}
	}
	paid := AllowedTypes(true)
	found := false
	for _, ct := range paid {
		if ct == TypeHooks {
			found = true
		}
	}
	if !found {
		t.Fatal("paid accounts should get hooks")
	}
}

func TestParsers(t *testing.T) {
	if p, ok := ParsePlatform(" Twitter "); !ok || p != PlatformTwitter {
		t.Fatalf("ParsePlatform: got %q ok=%v", p, ok)
	}
	if _, ok := ParsePlatform("myspace"); ok {
		t.Fatal("ParsePlatform accepted unknown platform")
	}
	if ct, ok := ParseContentType("HOOKS"); !ok || ct != TypeHooks {
		t.Fatalf("ParseContentType: got %q ok=%v", ct, ok)
	}
	if lang, ok := ParseLanguage("indian"); !ok || lang != LanguageIndian {
		t.Fatalf("ParseLanguage: got %q ok=%v", lang, ok)
	}
}
