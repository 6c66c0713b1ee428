// Package store persists chat messages, essence entries and hints.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// MessageStore is the append-only chat log.
type MessageStore interface {
	AppendMessage(ctx context.Context, in models.NewMessage) (*models.Message, error)
	// ListMessages returns messages oldest first. limit <= 0 returns all.
	ListMessages(ctx context.Context, limit int) ([]models.Message, error)
}

// EssenceStore holds essence entries.
type EssenceStore interface {
	CreateEssence(ctx context.Context, in models.NewEssenceEntry) (*models.EssenceEntry, error)
	// ListEssences returns entries newest first.
	ListEssences(ctx context.Context) ([]models.EssenceEntry, error)
	GetEssence(ctx context.Context, id int64) (*models.EssenceEntry, error)
}

// HintStore holds guidance hints.
type HintStore interface {
	CreateHint(ctx context.Context, in models.NewHint) (*models.Hint, error)
	ListHints(ctx context.Context) ([]models.Hint, error)
	GetHint(ctx context.Context, id int64) (*models.Hint, error)
}

// Store combines every record store.
type Store interface {
	MessageStore
	EssenceStore
	HintStore
	Close() error
}

// Open returns the store for driver. path is ignored by the memory driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}

func timestamp(now func() time.Time) string {
	return now().UTC().Format(time.RFC3339Nano)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
