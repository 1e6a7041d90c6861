package bot

import (
	"strings"
	"testing"

	"github.com/postforge/postforge/internal/generate"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := newSessionStore()

	if got := store.snapshot(1); got != (session{}) {
		t.Fatalf("expected empty session, got %+v", got)
	}

	store.update(1, func(s *session) {
		s.Platform = generate.PlatformTwitter
		s.Type = generate.TypeQuote
	})
	got := store.snapshot(1)
	if got.Platform != generate.PlatformTwitter || got.Type != generate.TypeQuote {
		t.Fatalf("unexpected session %+v", got)
	}

	// Snapshot is a copy; mutating it must not leak back.
	got.Platform = generate.PlatformTelegram
	if store.snapshot(1).Platform != generate.PlatformTwitter {
		t.Fatal("snapshot leaked mutation into store")
	}

	store.clear(1)
	if store.snapshot(1) != (session{}) {
		t.Fatal("clear did not remove session")
	}
}

func TestPlatformKeyboardGating(t *testing.T) {
	free := platformKeyboard(false)
	if len(free.InlineKeyboard) != 1 {
		t.Fatalf("free tier got %d platform rows, want 1", len(free.InlineKeyboard))
	}
	if data := free.InlineKeyboard[0][0].CallbackData; data == nil || *data != callbackPlatformPrefix+string(generate.PlatformTelegram) {
		t.Fatalf("unexpected free platform callback %v", data)
	}

	paid := platformKeyboard(true)
	if len(paid.InlineKeyboard) != 4 {
		t.Fatalf("paid tier got %d platform rows, want 4", len(paid.InlineKeyboard))
	}
}

func TestTypeKeyboardGating(t *testing.T) {
	free := typeKeyboard(false)
	for _, row := range free.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil && strings.HasSuffix(*btn.CallbackData, string(generate.TypeHooks)) {
				t.Fatal("free tier keyboard offers hooks")
			}
		}
	}

	paid := typeKeyboard(true)
	if len(paid.InlineKeyboard) != 3 {
		t.Fatalf("paid tier got %d type rows, want 3", len(paid.InlineKeyboard))
	}
}
