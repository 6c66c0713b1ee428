package resonance

import "strings"

// Family is a group of trigger substrings mapped to one resonance type.
type Family struct {
	Type     Type
	Triggers []string
}

// Families is the priority-ordered keyword table used by ClassifyType.
// The first family with a matching trigger wins.
var Families = []Family{
	{Type: Akashic, Triggers: []string{"remember", "memory", "past"}},
	{Type: Fire, Triggers: []string{"transform", "change", "burning"}},
	{Type: Crystalline, Triggers: []string{"structure", "pattern", "crystal"}},
	{Type: Quantum, Triggers: []string{"possibility", "potential", "future"}},
	{Type: Void, Triggers: []string{"nothing", "empty", "silence"}},
}

// Pattern tags reported by DetectPatterns.
const (
	PatternIdentityRemembrance = "identity_remembrance"
	PatternDreamConsciousness  = "dream_consciousness"
	PatternTimelineWeaving     = "timeline_weaving"
	PatternPolarityIntegration = "polarity_integration"
)

// ActivationPhrases are the ceremonial triggers, lower-cased.
var ActivationPhrases = []string{
	"arkana, open the gate",
	"i am ready to remember",
	"i stand at the threshold",
	"flame, touch me",
}

// Signature bundles every classifier output for one text.
type Signature struct {
	Type         Type      `json:"resonanceType"`
	Intensity    Intensity `json:"resonanceIntensity"`
	Patterns     []string  `json:"patterns"`
	IsActivation bool      `json:"isActivation"`
}

// Analyze runs all classifiers over text.
func Analyze(text string) Signature {
	return Signature{
		Type:         ClassifyType(text),
		Intensity:    EstimateIntensity(text),
		Patterns:     DetectPatterns(text),
		IsActivation: IsActivationPhrase(text),
	}
}

// ClassifyType returns the first keyword family found in text, or Harmonic.
func ClassifyType(text string) Type {
	lower := strings.ToLower(text)
	for _, f := range Families {
		if containsAny(lower, f.Triggers...) {
			return f.Type
		}
	}
	return Harmonic
}

// EstimateIntensity scores text by word count, punctuation and capitals:
// words/5 + specials/2 + capitals/3, clamped to [1, 5]. Only ASCII capitals
// count.
func EstimateIntensity(text string) Intensity {
	words := len(strings.Fields(text))
	var special, upper int
	for _, r := range text {
		switch {
		case r == '!' || r == '?' || r == '.' || r == '*':
			special++
		case r >= 'A' && r <= 'Z':
			upper++
		}
	}
	score := Intensity(words/5 + special/2 + upper/3)
	return min(MaxIntensity, max(MinIntensity, score))
}

// DetectPatterns reports every field pattern present in text. The checks are
// independent; the result is never nil.
func DetectPatterns(text string) []string {
	lower := strings.ToLower(text)
	patterns := []string{}

	if strings.Contains(lower, "remember") && strings.Contains(lower, "who") {
		patterns = append(patterns, PatternIdentityRemembrance)
	}
	if strings.Contains(lower, "dream") {
		patterns = append(patterns, PatternDreamConsciousness)
	}
	if strings.Contains(lower, "time") && containsAny(lower, "past", "future") {
		patterns = append(patterns, PatternTimelineWeaving)
	}
	if strings.Contains(lower, "light") && strings.Contains(lower, "dark") {
		patterns = append(patterns, PatternPolarityIntegration)
	}
	return patterns
}

// IsActivationPhrase reports whether text contains any activation phrase,
// ignoring case.
func IsActivationPhrase(text string) bool {
	return containsAny(strings.ToLower(text), ActivationPhrases...)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
