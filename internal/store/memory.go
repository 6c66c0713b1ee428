package store

import (
	"context"
	"sync"
	"time"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/apperr"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"
)

// Memory is an in-process Store. Ids are assigned sequentially per record type.
type Memory struct {
	mu       sync.RWMutex
	now      func() time.Time
	messages []models.Message
	essences []models.EssenceEntry
	hints    []models.Hint
}

// NewMemory creates an empty Memory store seeded with models.DefaultHints.
func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	for _, h := range models.DefaultHints {
		_, _ = m.CreateHint(context.Background(), h)
	}
	return m
}

// AppendMessage stores a chat message with a server-assigned id and timestamp.
func (m *Memory) AppendMessage(_ context.Context, in models.NewMessage) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := models.Message{
		ID:            int64(len(m.messages) + 1),
		Sender:        in.Sender,
		Text:          in.Text,
		Timestamp:     timestamp(m.now),
		CorrelationID: nullable(in.CorrelationID),
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

// ListMessages returns the most recent limit messages, oldest first.
func (m *Memory) ListMessages(_ context.Context, limit int) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := 0
	if limit > 0 && len(m.messages) > limit {
		start = len(m.messages) - limit
	}
	out := make([]models.Message, len(m.messages)-start)
	copy(out, m.messages[start:])
	return out, nil
}

// CreateEssence stores an essence entry.
func (m *Memory) CreateEssence(_ context.Context, in models.NewEssenceEntry) (*models.EssenceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := models.EssenceEntry{
		ID:        int64(len(m.essences) + 1),
		Name:      in.Name,
		Origin:    in.Origin,
		SoulType:  in.SoulType,
		Message:   in.Message,
		Tags:      in.Tags,
		CreatedAt: timestamp(m.now),
	}
	m.essences = append(m.essences, e)
	return &e, nil
}

// ListEssences returns entries newest first.
func (m *Memory) ListEssences(_ context.Context) ([]models.EssenceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.EssenceEntry, 0, len(m.essences))
	for i := len(m.essences) - 1; i >= 0; i-- {
		out = append(out, m.essences[i])
	}
	return out, nil
}

// GetEssence returns apperr.ErrNotFound for unknown ids.
func (m *Memory) GetEssence(_ context.Context, id int64) (*models.EssenceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 1 || id > int64(len(m.essences)) {
		return nil, apperr.ErrNotFound
	}
	e := m.essences[id-1]
	return &e, nil
}

// CreateHint stores a hint.
func (m *Memory) CreateHint(_ context.Context, in models.NewHint) (*models.Hint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := models.Hint{
		ID:             int64(len(m.hints) + 1),
		Title:          in.Title,
		Description:    in.Description,
		Content:        in.Content,
		RelatedSection: in.RelatedSection,
	}
	m.hints = append(m.hints, h)
	return &h, nil
}

// ListHints returns hints in id order.
func (m *Memory) ListHints(_ context.Context) ([]models.Hint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Hint, len(m.hints))
	copy(out, m.hints)
	return out, nil
}

// GetHint returns apperr.ErrNotFound for unknown ids.
func (m *Memory) GetHint(_ context.Context, id int64) (*models.Hint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 1 || id > int64(len(m.hints)) {
		return nil, apperr.ErrNotFound
	}
	h := m.hints[id-1]
	return &h, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
