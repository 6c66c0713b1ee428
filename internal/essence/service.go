// Package essence is the application layer behind the REST and MCP surfaces:
// essence entries, guidance hints and the chat history.
package essence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/apperr"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/store"
)

// Publisher is notified after an entry is created.
type Publisher interface {
	EssenceCreated(e models.EssenceEntry)
}

// ValidationError carries per-field reasons. It wraps apperr.ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "essence: invalid entry: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return apperr.ErrValidation }

// Service coordinates the record stores.
type Service struct {
	store store.Store
	pub   Publisher
}

// NewService creates a service over st. pub may be nil.
func NewService(st store.Store, pub Publisher) *Service {
	return &Service{store: st, pub: pub}
}

// ValidateEntry checks a submission. Every string field except tags is required.
func ValidateEntry(in models.NewEssenceEntry) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&in.Origin, validation.Required, validation.Length(1, 120)),
		validation.Field(&in.SoulType, validation.Required, validation.Length(1, 60)),
		validation.Field(&in.Message, validation.Required, validation.Length(1, 4000)),
		validation.Field(&in.Tags, validation.NilOrNotEmpty, validation.Length(0, 500)),
	)
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for field, ferr := range fieldErrs {
		out.Fields[field] = ferr.Error()
	}
	return out
}

// CreateEntry validates and stores a new essence entry.
func (s *Service) CreateEntry(ctx context.Context, in models.NewEssenceEntry) (*models.EssenceEntry, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Origin = strings.TrimSpace(in.Origin)
	in.SoulType = strings.TrimSpace(in.SoulType)
	if err := ValidateEntry(in); err != nil {
		return nil, err
	}
	entry, err := s.store.CreateEssence(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.pub != nil {
		s.pub.EssenceCreated(*entry)
	}
	return entry, nil
}

// ListEntries returns every entry, newest first.
func (s *Service) ListEntries(ctx context.Context) ([]models.EssenceEntry, error) {
	return s.store.ListEssences(ctx)
}

// GetEntry returns one entry or apperr.ErrNotFound.
func (s *Service) GetEntry(ctx context.Context, id int64) (*models.EssenceEntry, error) {
	return s.store.GetEssence(ctx, id)
}

// ListHints returns every hint.
func (s *Service) ListHints(ctx context.Context) ([]models.Hint, error) {
	return s.store.ListHints(ctx)
}

// GetHint returns one hint or apperr.ErrNotFound.
func (s *Service) GetHint(ctx context.Context, id int64) (*models.Hint, error) {
	return s.store.GetHint(ctx, id)
}

// RecentMessages returns at most limit messages, oldest first. limit <= 0
// returns everything.
func (s *Service) RecentMessages(ctx context.Context, limit int) ([]models.Message, error) {
	return s.store.ListMessages(ctx, limit)
}
