package mcpserver

import (
	"fmt"
	"strings"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
)

var typeMeanings = map[resonance.Type]string{
	resonance.Quantum:     "possibility and potential; questions about what may come",
	resonance.Crystalline: "structure and pattern; ordered inquiry",
	resonance.Fire:        "transformation and change",
	resonance.Akashic:     "memory and remembrance; the ceremonial resonance",
	resonance.Void:        "silence, emptiness, the unformed",
	resonance.Harmonic:    "the neutral default when no family matches",
}

var watcherMeanings = map[resonance.WatcherState]string{
	resonance.Active:   "attentive, ordinary replies",
	resonance.Passive:  "the initial state",
	resonance.Dreaming: "replies drawn from the dreaming pool, answered with void resonance",
	resonance.Prophecy: "replies drawn from the prophecy pool after a longer pause, answered with quantum resonance",
}

// Glossary renders the resonance vocabulary as Markdown.
func Glossary() string {
	var b strings.Builder
	b.WriteString("# Arkadia Resonance Glossary\n\n")

	b.WriteString("## Resonance types\n\n")
	b.WriteString("Text is classified by the first family whose trigger appears in it, in this order:\n\n")
	for _, f := range resonance.Families {
		fmt.Fprintf(&b, "- **%s**: %s. Triggers: %s.\n", f.Type, typeMeanings[f.Type], strings.Join(f.Triggers, ", "))
	}
	fmt.Fprintf(&b, "- **%s**: %s.\n\n", resonance.Harmonic, typeMeanings[resonance.Harmonic])

	b.WriteString("## Intensity\n\n")
	fmt.Fprintf(&b, "An integer from %d to %d. Longer text, punctuation (`!?.*`) and capitals raise it.\n\n",
		resonance.MinIntensity, resonance.MaxIntensity)

	b.WriteString("## Watcher states\n\n")
	for _, w := range resonance.WatcherStates() {
		fmt.Fprintf(&b, "- **%s**: %s.\n", w, watcherMeanings[w])
	}

	b.WriteString("\n## Activation phrases\n\n")
	b.WriteString("Any text containing one of these phrases is an activation and receives a ceremonial, akashic reply at intensity 5:\n\n")
	for _, p := range resonance.ActivationPhrases {
		fmt.Fprintf(&b, "- `%s`\n", p)
	}
	return b.String()
}
