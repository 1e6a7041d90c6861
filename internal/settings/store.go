package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/postforge/postforge/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// refreshInterval is how often the snapshot is reloaded from the database.
const refreshInterval = 30 * time.Second

// Store keeps an in-memory snapshot of the settings table.
type Store struct {
	db *gorm.DB

	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// NewStore constructs a settings store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, values: make(map[string]json.RawMessage)}
}

// Refresh reloads the snapshot from the settings table.
func (s *Store) Refresh(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("settings: store not initialized")
	}

	var rows []models.Setting
	if errFind := s.db.WithContext(ctx).Find(&rows).Error; errFind != nil {
		return fmt.Errorf("settings: load: %w", errFind)
	}

	next := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		key := strings.TrimSpace(row.Key)
		if key == "" || len(row.Value) == 0 {
			continue
		}
		next[key] = json.RawMessage(row.Value)
	}

	s.mu.Lock()
	s.values = next
	s.mu.Unlock()
	return nil
}

// Start refreshes the snapshot periodically until the context is cancelled.
func (s *Store) Start(ctx context.Context) {
	if s == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if errRefresh := s.Refresh(ctx); errRefresh != nil {
					log.WithError(errRefresh).Warn("settings: refresh failed")
				}
			}
		}
	}()
}

// Value returns the raw JSON for a key from the current snapshot.
func (s *Store) Value(key string) (json.RawMessage, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.values[key]
	return raw, ok
}

// Int returns an integer setting, falling back to def when absent or invalid.
func (s *Store) Int(key string, def int) int {
	raw, ok := s.Value(key)
	if !ok {
		return def
	}
	if parsed, okParse := parseInt(raw); okParse {
		return parsed
	}
	return def
}

// Bool returns a boolean setting, falling back to def when absent or invalid.
func (s *Store) Bool(key string, def bool) bool {
	raw, ok := s.Value(key)
	if !ok {
		return def
	}
	if parsed, okParse := parseBool(raw); okParse {
		return parsed
	}
	return def
}

// String returns a string setting, falling back to def when absent or invalid.
func (s *Store) String(key string, def string) string {
	raw, ok := s.Value(key)
	if !ok {
		return def
	}
	if parsed, okParse := parseString(raw); okParse && parsed != "" {
		return parsed
	}
	return def
}

func parseInt(raw json.RawMessage) (int, bool) {
	var parsedInt int
	if errUnmarshalInt := json.Unmarshal(raw, &parsedInt); errUnmarshalInt == nil {
		return parsedInt, true
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		parsed, errParse := strconv.Atoi(strings.TrimSpace(parsedString))
		if errParse != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func parseBool(raw json.RawMessage) (bool, bool) {
	var parsedBool bool
	if errUnmarshalBool := json.Unmarshal(raw, &parsedBool); errUnmarshalBool == nil {
		return parsedBool, true
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		switch strings.ToLower(strings.TrimSpace(parsedString)) {
		case "1", "true", "yes", "on":
			return true, true
		case "0", "false", "no", "off":
			return false, true
		}
	}
	return false, false
}

func parseString(raw json.RawMessage) (string, bool) {
	var parsedString string
	if errUnmarshal := json.Unmarshal(raw, &parsedString); errUnmarshal == nil {
		return strings.TrimSpace(parsedString), true
	}
	return "", false
}
