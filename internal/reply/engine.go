package reply

import (
	"strings"
	"sync/atomic"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/envelope"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
)

// Path names the rule that produced a reply.
type Path string

const (
	PathCeremony  Path = "ceremony"
	PathWatcher   Path = "watcher"
	PathResonance Path = "resonance"
	PathKeyword   Path = "keyword"
	PathFallback  Path = "fallback"
)

// Rule is one entry of the ordered selection chain. Match reports whether the
// rule applies; Reply produces the text using the active catalog.
type Rule struct {
	Path  Path
	Name  string
	Match func(c *Catalog, in envelope.Envelope) bool
	Reply func(c *Catalog, src Source, in envelope.Envelope) string
}

// Result is a selected reply together with the rule that chose it.
type Result struct {
	Envelope envelope.Envelope
	Path     Path
	Rule     string
}

// Engine turns inbound envelopes into replies. It is safe for concurrent use;
// the catalog may be swapped while replies are being produced.
type Engine struct {
	catalog atomic.Pointer[Catalog]
	src     Source
	delays  Delays
}

// NewEngine returns an engine over c. A nil catalog means DefaultCatalog and a
// nil source means a time-seeded one.
func NewEngine(c *Catalog, src Source, d Delays) *Engine {
	if c == nil {
		c = DefaultCatalog()
	}
	if src == nil {
		src = NewSource(0)
	}
	e := &Engine{src: src, delays: d}
	e.catalog.Store(c)
	return e
}

// Catalog returns the active catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog.Load() }

// SetCatalog replaces the active catalog.
func (e *Engine) SetCatalog(c *Catalog) {
	if c != nil {
		e.catalog.Store(c)
	}
}

// Rules returns the ordered chain evaluated against c.
func (e *Engine) Rules(c *Catalog) []Rule {
	rules := []Rule{ceremonyRule, watcherRule, resonanceRule}
	for _, kw := range c.Keywords {
		rules = append(rules, keywordRule(kw))
	}
	return append(rules, fallbackRule)
}

// Reply selects the reply text for in and builds the outbound envelope. The
// inbound metadata is echoed with the response resonance added.
func (e *Engine) Reply(in envelope.Envelope) Result {
	c := e.Catalog()
	res := Result{Path: PathFallback, Rule: string(PathFallback)}
	for _, r := range e.Rules(c) {
		if r.Match(c, in) {
			res.Path, res.Rule = r.Path, r.Name
			res.Envelope.Text = r.Reply(c, e.src, in)
			break
		}
	}

	meta := in.Metadata.Clone()
	meta.IsWelcome = false
	meta.ResponseResonanceType, meta.ResponseResonanceIntensity = ResponseResonance(in.Metadata)
	res.Envelope.Metadata = meta
	return res
}

// ResponseResonance returns the resonance Arkana answers with.
func ResponseResonance(meta *envelope.Metadata) (resonance.Type, resonance.Intensity) {
	if meta == nil {
		return resonance.Harmonic, resonance.DefaultIntensity
	}
	if meta.IsActivation {
		return resonance.Akashic, resonance.MaxIntensity
	}

	t := resonance.Harmonic
	switch {
	case meta.WatcherState == resonance.Prophecy:
		t = resonance.Quantum
	case meta.WatcherState == resonance.Dreaming:
		t = resonance.Void
	case meta.ResonanceType.Valid():
		t = meta.ResonanceType
	}
	i := resonance.DefaultIntensity
	if meta.ResonanceIntensity.Valid() {
		i = meta.ResonanceIntensity
	}
	return t, i
}

var ceremonyRule = Rule{
	Path: PathCeremony,
	Name: string(PathCeremony),
	Match: func(_ *Catalog, in envelope.Envelope) bool {
		return in.Metadata != nil && in.Metadata.IsActivation
	},
	Reply: func(c *Catalog, _ Source, in envelope.Envelope) string {
		if text, ok := c.Ceremonies[NormalizePhrase(in.Text)]; ok {
			return text
		}
		return c.ActivationFallback
	},
}

var watcherRule = Rule{
	Path: PathWatcher,
	Name: string(PathWatcher),
	Match: func(c *Catalog, in envelope.Envelope) bool {
		if in.Metadata == nil {
			return false
		}
		w := in.Metadata.WatcherState
		return (w == resonance.Prophecy || w == resonance.Dreaming) && len(c.WatcherPools[w]) > 0
	},
	Reply: func(c *Catalog, src Source, in envelope.Envelope) string {
		return pick(src, c.WatcherPools[in.Metadata.WatcherState])
	},
}

var resonanceRule = Rule{
	Path: PathResonance,
	Name: string(PathResonance),
	Match: func(c *Catalog, in envelope.Envelope) bool {
		return in.Metadata != nil && len(c.ResonancePools[in.Metadata.ResonanceType]) > 0
	},
	Reply: func(c *Catalog, src Source, in envelope.Envelope) string {
		text := pick(src, c.ResonancePools[in.Metadata.ResonanceType])
		if in.Metadata.ResonanceIntensity >= 4 && len(c.Insights) > 0 {
			text += " " + pick(src, c.Insights)
		}
		return text
	},
}

func keywordRule(kw KeywordRule) Rule {
	return Rule{
		Path: PathKeyword,
		Name: kw.Name,
		Match: func(_ *Catalog, in envelope.Envelope) bool {
			return kw.Matches(strings.ToLower(in.Text))
		},
		Reply: func(*Catalog, Source, envelope.Envelope) string { return kw.Reply },
	}
}

var fallbackRule = Rule{
	Path:  PathFallback,
	Name:  string(PathFallback),
	Match: func(*Catalog, envelope.Envelope) bool { return true },
	Reply: func(c *Catalog, src Source, _ envelope.Envelope) string {
		return pick(src, c.Fallback)
	},
}
