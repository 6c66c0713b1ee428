package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/apperr"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/essence"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *essence.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *essence.Service) *Handler {
	return &Handler{svc: svc}
}

// ListEssentia handles GET /api/essentia.
//
//	@Summary		List essence entries, newest first
//	@Tags			essentia
//	@Produce		json
//	@Success		200	{array}		EssenceEntry
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/essentia [get]
func (h *Handler) ListEssentia(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListEntries(r.Context())
	if err != nil {
		slog.Error("list essentia failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to retrieve essence entries"))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

// CreateEssence handles POST /api/essentia.
//
//	@Summary		Submit an essence entry
//	@Tags			essentia
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateEssenceRequest	true	"Entry to create"
//	@Success		201		{object}	EssenceEntry
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/essentia [post]
func (h *Handler) CreateEssence(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateEssenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{
			Message: "Invalid entry data",
			Errors:  map[string]string{"body": "invalid JSON body"},
		})
		return
	}

	entry, err := h.svc.CreateEntry(r.Context(), models.NewEssenceEntry(req))
	if err != nil {
		var verr *essence.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, errResponse{Message: "Invalid entry data", Errors: verr.Fields})
		case errors.Is(err, apperr.ErrValidation):
			writeJSON(w, http.StatusBadRequest, errorBody("Invalid entry data"))
		default:
			slog.Error("create essence failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("Failed to create essence entry"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// ListHints handles GET /api/hints.
//
//	@Summary		List guidance hints
//	@Tags			hints
//	@Produce		json
//	@Success		200	{array}		Hint
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hints [get]
func (h *Handler) ListHints(w http.ResponseWriter, r *http.Request) {
	hints, err := h.svc.ListHints(r.Context())
	if err != nil {
		slog.Error("list hints failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to retrieve hints"))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(hints))
}

// GetHint handles GET /api/hints/{id}.
//
//	@Summary		Get a single hint
//	@Tags			hints
//	@Produce		json
//	@Param			id	path		int	true	"Hint id"
//	@Success		200	{object}	Hint
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hints/{id} [get]
func (h *Handler) GetHint(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid hint id"))
		return
	}
	hint, err := h.svc.GetHint(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("Hint not found"))
		} else {
			slog.Error("get hint failed", slog.Int64("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("Failed to retrieve hint"))
		}
		return
	}
	writeJSON(w, http.StatusOK, hint)
}

// ListMessages handles GET /api/messages.
//
//	@Summary		Chat history, oldest first
//	@Tags			messages
//	@Produce		json
//	@Param			limit	query		int	false	"Most recent n messages"
//	@Success		200		{array}		Message
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/messages [get]
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	msgs, err := h.svc.RecentMessages(r.Context(), limit)
	if err != nil {
		slog.Error("list messages failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to retrieve messages"))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(msgs))
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
