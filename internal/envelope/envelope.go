// Package envelope defines the JSON message frame exchanged over the commune
// WebSocket by both the server and the client.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/apperr"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
)

// ApologyText is sent back for frames that cannot be decoded.
const ApologyText = "I couldn't process that message. Please try again with clearer intent."

// Envelope is one chat frame.
type Envelope struct {
	Text     string    `json:"text"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Error    bool      `json:"error,omitempty"`
}

// Metadata is the structured side channel of an envelope.
type Metadata struct {
	CorrelationID      string                 `json:"correlationId,omitempty"`
	ResonanceType      resonance.Type         `json:"resonanceType,omitempty"`
	ResonanceIntensity resonance.Intensity    `json:"resonanceIntensity,omitempty"`
	Patterns           []string               `json:"patterns,omitempty"`
	IsActivation       bool                   `json:"isActivation,omitempty"`
	WatcherState       resonance.WatcherState `json:"watcherState,omitempty"`
	IsWelcome          bool                   `json:"isWelcome,omitempty"`

	ResponseResonanceType      resonance.Type      `json:"responseResonanceType,omitempty"`
	ResponseResonanceIntensity resonance.Intensity `json:"responseResonanceIntensity,omitempty"`
}

// Validate checks the enumerations and bounds of the metadata fields.
func (m *Metadata) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.ResonanceType, validation.In(typeValues()...)),
		validation.Field(&m.ResonanceIntensity, validation.Min(resonance.MinIntensity), validation.Max(resonance.MaxIntensity)),
		validation.Field(&m.WatcherState, validation.In(watcherValues()...)),
		validation.Field(&m.ResponseResonanceType, validation.In(typeValues()...)),
		validation.Field(&m.ResponseResonanceIntensity, validation.Min(resonance.MinIntensity), validation.Max(resonance.MaxIntensity)),
	)
}

// Validate checks the envelope shape.
func (e Envelope) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Text, validation.Required, validation.By(notBlank)),
		validation.Field(&e.Metadata),
	)
}

// CorrelationID returns the correlation id, or "" when there is no metadata.
func (e Envelope) CorrelationID() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata.CorrelationID
}

// Decode parses and validates a raw frame. Every failure wraps
// apperr.ErrMalformedEnvelope.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", apperr.ErrMalformedEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", apperr.ErrMalformedEnvelope, err)
	}
	return env, nil
}

// Encode marshals the envelope into a text frame.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("envelope: encode: %w", err)
	}
	return data, nil
}

// Welcome is pushed to every newly connected client.
func Welcome(text string) Envelope {
	return Envelope{Text: text, Metadata: &Metadata{IsWelcome: true}}
}

// Apology is the reply to a malformed frame.
func Apology() Envelope {
	return Envelope{Text: ApologyText, Error: true}
}

// ApologyFor is the apology for a decoded envelope that could not be
// processed. It carries correlationID so the sender can resolve its entry.
func ApologyFor(correlationID string) Envelope {
	env := Apology()
	if correlationID != "" {
		env.Metadata = &Metadata{CorrelationID: correlationID}
	}
	return env
}

// Clone returns a deep copy of m. A nil receiver yields an empty Metadata.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return &Metadata{}
	}
	out := *m
	if m.Patterns != nil {
		out.Patterns = append([]string(nil), m.Patterns...)
	}
	return &out
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "must not be blank")
	}
	return nil
}

func typeValues() []any {
	types := resonance.Types()
	out := make([]any, len(types))
	for i, t := range types {
		out[i] = t
	}
	return out
}

func watcherValues() []any {
	states := resonance.WatcherStates()
	out := make([]any, len(states))
	for i, s := range states {
		out[i] = s
	}
	return out
}
