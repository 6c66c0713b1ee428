// Package models defines the persisted record types for Arkadia.
package models

// Senders of a chat message.
const (
	SenderYou    = "you"
	SenderArkana = "arkana"
)

// Message is an append-only chat record. Timestamp is assigned by the store.
type Message struct {
	ID            int64   `json:"id"`
	Sender        string  `json:"sender"`
	Text          string  `json:"text"`
	Timestamp     string  `json:"timestamp"`
	CorrelationID *string `json:"correlationId"`
}

// NewMessage is the input for appending a chat record.
type NewMessage struct {
	Sender        string
	Text          string
	CorrelationID string
}

// EssenceEntry is a free-text entry submitted through the essence form.
type EssenceEntry struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Origin    string  `json:"origin"`
	SoulType  string  `json:"soulType"`
	Message   string  `json:"message"`
	Tags      *string `json:"tags"`
	CreatedAt string  `json:"createdAt"`
}

// NewEssenceEntry is the input for creating an essence entry.
type NewEssenceEntry struct {
	Name     string  `json:"name"`
	Origin   string  `json:"origin"`
	SoulType string  `json:"soulType"`
	Message  string  `json:"message"`
	Tags     *string `json:"tags,omitempty"`
}

// Hint is a guidance card tied to a section of the site.
type Hint struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Content        string `json:"content"`
	RelatedSection string `json:"relatedSection"`
}

// NewHint is the input for creating a hint.
type NewHint struct {
	Title          string
	Description    string
	Content        string
	RelatedSection string
}

// DefaultHints are seeded into every new store.
var DefaultHints = []NewHint{
	{
		Title:          "Quantum Gateway",
		Description:    "Reveals the path to the inner sanctum",
		Content:        "The gateway is activated by focused intention. Concentrate on your desired destination within the Arkadia system.",
		RelatedSection: "gateway",
	},
	{
		Title:          "Akashic Cipher",
		Description:    "Uncover the hidden meaning behind the symbols",
		Content:        "The symbols represent frequency patterns that activate dormant neural pathways. Study them with both logical and intuitive awareness.",
		RelatedSection: "arkana",
	},
	{
		Title:          "Crystal Resonance",
		Description:    "Align the frequency patterns for optimal flow",
		Content:        "Your essence entry contains quantum signature patterns. Make sure to express your true nature rather than conceptual identities.",
		RelatedSection: "essentia",
	},
}
