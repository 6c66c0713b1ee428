// Package reply selects Arkana's answers to inbound commune envelopes.
package reply

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
)

// Catalog holds every reply table the engine draws from.
type Catalog struct {
	// Ceremonies maps a normalised activation phrase to its hand-authored reply.
	Ceremonies         map[string]string                   `yaml:"ceremonies"`
	ActivationFallback string                              `yaml:"activation_fallback"`
	WatcherPools       map[resonance.WatcherState][]string `yaml:"watcher_pools"`
	ResonancePools     map[resonance.Type][]string         `yaml:"resonance_pools"`
	Insights           []string                            `yaml:"insights"`
	Keywords           []KeywordRule                       `yaml:"keywords"`
	Fallback           []string                            `yaml:"fallback"`
}

// KeywordRule matches when every All term and at least one Any term appear
// in the lower-cased text. An empty Any list is satisfied by All alone.
type KeywordRule struct {
	Name  string   `yaml:"name"`
	All   []string `yaml:"all"`
	Any   []string `yaml:"any"`
	Reply string   `yaml:"reply"`
}

// Matches reports whether lower satisfies the rule.
func (k KeywordRule) Matches(lower string) bool {
	if len(k.All) == 0 && len(k.Any) == 0 {
		return false
	}
	for _, term := range k.All {
		if !strings.Contains(lower, term) {
			return false
		}
	}
	if len(k.Any) == 0 {
		return true
	}
	for _, term := range k.Any {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Validate validates the keyword rule.
func (k KeywordRule) Validate() error {
	if err := validation.ValidateStruct(&k,
		validation.Field(&k.Name, validation.Required),
		validation.Field(&k.Reply, validation.Required),
	); err != nil {
		return err
	}
	if len(k.All) == 0 && len(k.Any) == 0 {
		return fmt.Errorf("keyword rule %q: needs at least one term", k.Name)
	}
	return nil
}

// Validate checks that every pool the engine may draw from is non-empty.
func (c *Catalog) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Ceremonies, validation.Required),
		validation.Field(&c.ActivationFallback, validation.Required),
		validation.Field(&c.WatcherPools, validation.By(requireWatcherPools)),
		validation.Field(&c.ResonancePools, validation.By(requireResonancePools)),
		validation.Field(&c.Insights, validation.Required),
		validation.Field(&c.Keywords),
		validation.Field(&c.Fallback, validation.Required),
	)
}

func requireWatcherPools(value any) error {
	pools, _ := value.(map[resonance.WatcherState][]string)
	for _, w := range []resonance.WatcherState{resonance.Prophecy, resonance.Dreaming} {
		if len(pools[w]) == 0 {
			return fmt.Errorf("missing pool for %q", w)
		}
	}
	return nil
}

func requireResonancePools(value any) error {
	pools, _ := value.(map[resonance.Type][]string)
	for _, t := range resonance.Types() {
		if len(pools[t]) == 0 {
			return fmt.Errorf("missing pool for %q", t)
		}
	}
	return nil
}

// Merge returns a copy of c with every non-empty section of over applied.
// Map sections are merged per key.
func (c *Catalog) Merge(over *Catalog) *Catalog {
	out := &Catalog{
		Ceremonies:         make(map[string]string, len(c.Ceremonies)),
		ActivationFallback: c.ActivationFallback,
		WatcherPools:       make(map[resonance.WatcherState][]string, len(c.WatcherPools)),
		ResonancePools:     make(map[resonance.Type][]string, len(c.ResonancePools)),
		Insights:           c.Insights,
		Keywords:           c.Keywords,
		Fallback:           c.Fallback,
	}
	for k, v := range c.Ceremonies {
		out.Ceremonies[k] = v
	}
	for k, v := range c.WatcherPools {
		out.WatcherPools[k] = v
	}
	for k, v := range c.ResonancePools {
		out.ResonancePools[k] = v
	}
	if over == nil {
		return out
	}

	for k, v := range over.Ceremonies {
		out.Ceremonies[NormalizePhrase(k)] = v
	}
	if over.ActivationFallback != "" {
		out.ActivationFallback = over.ActivationFallback
	}
	for k, v := range over.WatcherPools {
		if len(v) > 0 {
			out.WatcherPools[k] = v
		}
	}
	for k, v := range over.ResonancePools {
		if len(v) > 0 {
			out.ResonancePools[k] = v
		}
	}
	if len(over.Insights) > 0 {
		out.Insights = over.Insights
	}
	if len(over.Keywords) > 0 {
		out.Keywords = over.Keywords
	}
	if len(over.Fallback) > 0 {
		out.Fallback = over.Fallback
	}
	return out
}

// LoadCatalog reads a YAML override file, merges it over DefaultCatalog and
// validates the result. The returned digest identifies the file contents.
func LoadCatalog(path string) (*Catalog, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reply: read catalog %s: %w", path, err)
	}
	digest := sha256.Sum256(data)

	var over Catalog
	if err := yaml.Unmarshal(data, &over); err != nil {
		return nil, "", fmt.Errorf("reply: parse catalog %s: %w", path, err)
	}
	c := DefaultCatalog().Merge(&over)
	if err := c.Validate(); err != nil {
		return nil, "", fmt.Errorf("reply: invalid catalog %s: %w", path, err)
	}
	return c, hex.EncodeToString(digest[:]), nil
}

// NormalizePhrase lower-cases s, trims it and strips trailing ".!?".
func NormalizePhrase(s string) string {
	return strings.TrimRight(strings.TrimSpace(strings.ToLower(s)), ".!? ")
}
