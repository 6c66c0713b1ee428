package api

import "github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/models"

// CreateEssenceRequest is the request body for submitting an essence entry.
type CreateEssenceRequest struct {
	Name     string  `json:"name" example:"Lumen" validate:"required"`
	Origin   string  `json:"origin" example:"Sirius" validate:"required"`
	SoulType string  `json:"soulType" example:"Starseed" validate:"required"`
	Message  string  `json:"message" example:"I remember the light." validate:"required"`
	Tags     *string `json:"tags,omitempty" example:"flame,crystal"`
}

// EssenceEntry is the stored entry (aliased from the domain layer).
type EssenceEntry = models.EssenceEntry

// Hint is a guidance card (aliased from the domain layer).
type Hint = models.Hint

// Message is a chat record (aliased from the domain layer).
type Message = models.Message
