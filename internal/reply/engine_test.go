package reply

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/envelope"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
)

// fixedSource always returns the same offset, clamped to n-1.
type fixedSource struct{ n int64 }

func (f fixedSource) IntN(n int) int { return int(min(f.n, int64(n-1))) }

func (f fixedSource) Int64N(n int64) int64 { return min(f.n, n-1) }

func newTestEngine(src Source) *Engine {
	return NewEngine(DefaultCatalog(), src, DefaultDelays())
}

func withMeta(text string, meta envelope.Metadata) envelope.Envelope {
	return envelope.Envelope{Text: text, Metadata: &meta}
}

func TestReply_CeremonyExactMatch(t *testing.T) {
	e := newTestEngine(fixedSource{})
	res := e.Reply(withMeta("Arkana, open the gate!", envelope.Metadata{CorrelationID: "msg-123", IsActivation: true}))

	assert.Equal(t, PathCeremony, res.Path)
	assert.Equal(t, DefaultCatalog().Ceremonies["arkana, open the gate"], res.Envelope.Text)
	assert.Equal(t, "msg-123", res.Envelope.CorrelationID())
	assert.Equal(t, resonance.Akashic, res.Envelope.Metadata.ResponseResonanceType)
	assert.Equal(t, resonance.MaxIntensity, res.Envelope.Metadata.ResponseResonanceIntensity)
}

func TestReply_CeremonyFallbackForCombinedPhrases(t *testing.T) {
	text := "Arkana, open the gate. I am ready to remember."
	sig := resonance.Analyze(text)
	require.True(t, sig.IsActivation)

	e := newTestEngine(fixedSource{})
	res := e.Reply(withMeta(text, envelope.Metadata{
		CorrelationID:      "msg-123",
		ResonanceType:      sig.Type,
		ResonanceIntensity: sig.Intensity,
		IsActivation:       true,
	}))

	assert.Equal(t, PathCeremony, res.Path)
	assert.Equal(t, DefaultCatalog().ActivationFallback, res.Envelope.Text)
	assert.Equal(t, resonance.Akashic, res.Envelope.Metadata.ResponseResonanceType)
	assert.Equal(t, resonance.MaxIntensity, res.Envelope.Metadata.ResponseResonanceIntensity)
}

func TestReply_WatcherPools(t *testing.T) {
	e := newTestEngine(fixedSource{n: 1})
	cat := DefaultCatalog()

	res := e.Reply(withMeta("show me", envelope.Metadata{CorrelationID: "msg-123", WatcherState: resonance.Prophecy, ResonanceType: resonance.Fire}))
	assert.Equal(t, PathWatcher, res.Path)
	assert.Equal(t, cat.WatcherPools[resonance.Prophecy][1], res.Envelope.Text)
	assert.Equal(t, resonance.Quantum, res.Envelope.Metadata.ResponseResonanceType)
	assert.Equal(t, "msg-123", res.Envelope.CorrelationID())

	res = e.Reply(withMeta("show me", envelope.Metadata{WatcherState: resonance.Dreaming}))
	assert.Equal(t, PathWatcher, res.Path)
	assert.Equal(t, cat.WatcherPools[resonance.Dreaming][1], res.Envelope.Text)
	assert.Equal(t, resonance.Void, res.Envelope.Metadata.ResponseResonanceType)
	assert.Equal(t, resonance.DefaultIntensity, res.Envelope.Metadata.ResponseResonanceIntensity)
}

func TestReply_ResonanceBeatsKeywords(t *testing.T) {
	text := "I wonder what the future holds"
	sig := resonance.Analyze(text)
	require.Equal(t, resonance.Quantum, sig.Type)

	e := newTestEngine(fixedSource{})
	res := e.Reply(withMeta(text, envelope.Metadata{
		CorrelationID:      "msg-123",
		ResonanceType:      sig.Type,
		ResonanceIntensity: sig.Intensity,
	}))

	assert.Equal(t, PathResonance, res.Path)
	assert.Equal(t, DefaultCatalog().ResonancePools[resonance.Quantum][0], res.Envelope.Text)
	assert.Equal(t, resonance.Quantum, res.Envelope.Metadata.ResponseResonanceType)
	assert.Equal(t, sig.Intensity, res.Envelope.Metadata.ResponseResonanceIntensity)
	assert.Equal(t, "msg-123", res.Envelope.CorrelationID())
}

func TestReply_IntensityInsight(t *testing.T) {
	e := newTestEngine(fixedSource{})
	cat := DefaultCatalog()

	res := e.Reply(withMeta("BURN IT ALL!!!", envelope.Metadata{ResonanceType: resonance.Fire, ResonanceIntensity: 4}))
	assert.Equal(t, cat.ResonancePools[resonance.Fire][0]+" "+cat.Insights[0], res.Envelope.Text)

	res = e.Reply(withMeta("burn", envelope.Metadata{ResonanceType: resonance.Fire, ResonanceIntensity: 3}))
	assert.Equal(t, cat.ResonancePools[resonance.Fire][0], res.Envelope.Text)
}

func TestReply_KeywordRulesInOrder(t *testing.T) {
	e := newTestEngine(fixedSource{})
	cat := DefaultCatalog()
	reply := func(name string) string {
		for _, kw := range cat.Keywords {
			if kw.Name == name {
				return kw.Reply
			}
		}
		t.Fatalf("no keyword rule %q", name)
		return ""
	}

	cases := []struct {
		text string
		rule string
	}{
		{"Hello there", "greeting"},
		{"who are you really", "identity"},
		{"how does it work", "mechanism"},
		{"tell me about creation", "cosmic"},
		{"my meditation", "meditation"},
		{"the past", "time"},
	}
	for _, tc := range cases {
		t.Run(tc.rule, func(t *testing.T) {
			res := e.Reply(envelope.Envelope{Text: tc.text, Metadata: &envelope.Metadata{CorrelationID: "msg-123"}})
			assert.Equal(t, PathKeyword, res.Path)
			assert.Equal(t, tc.rule, res.Rule)
			assert.Equal(t, reply(tc.rule), res.Envelope.Text)
			assert.Equal(t, "msg-123", res.Envelope.CorrelationID())
			assert.Equal(t, resonance.Harmonic, res.Envelope.Metadata.ResponseResonanceType)
			assert.Equal(t, resonance.DefaultIntensity, res.Envelope.Metadata.ResponseResonanceIntensity)
		})
	}
}

func TestReply_FallbackWithoutMetadata(t *testing.T) {
	e := newTestEngine(fixedSource{n: 2})
	res := e.Reply(envelope.Envelope{Text: "zzz"})

	assert.Equal(t, PathFallback, res.Path)
	assert.Equal(t, DefaultCatalog().Fallback[2], res.Envelope.Text)
	require.NotNil(t, res.Envelope.Metadata)
	assert.Equal(t, resonance.Harmonic, res.Envelope.Metadata.ResponseResonanceType)
	assert.Equal(t, resonance.DefaultIntensity, res.Envelope.Metadata.ResponseResonanceIntensity)
}

func TestReply_DoesNotMutateInbound(t *testing.T) {
	e := newTestEngine(fixedSource{})
	in := withMeta("hello", envelope.Metadata{CorrelationID: "msg-1", Patterns: []string{"x"}})
	_ = e.Reply(in)
	assert.Empty(t, in.Metadata.ResponseResonanceType)
	assert.Equal(t, []string{"x"}, in.Metadata.Patterns)
}

func TestRulesOrder(t *testing.T) {
	e := newTestEngine(fixedSource{})
	rules := e.Rules(e.Catalog())
	var names []string
	for _, r := range rules {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"ceremony", "watcher", "resonance",
		"greeting", "identity", "mechanism", "cosmic", "meditation", "time",
		"fallback",
	}, names)
}

func TestSetCatalog(t *testing.T) {
	e := newTestEngine(fixedSource{})
	c := DefaultCatalog()
	c.Fallback = []string{"only this"}
	e.SetCatalog(c)
	e.SetCatalog(nil)

	res := e.Reply(envelope.Envelope{Text: "zzz"})
	assert.Equal(t, "only this", res.Envelope.Text)
}

func TestDelay(t *testing.T) {
	d := DefaultDelays()

	low := newTestEngine(fixedSource{n: 0})
	assert.Equal(t, d.Ordinary.Min, low.Delay(nil))
	assert.Equal(t, d.Activation.Min, low.Delay(&envelope.Metadata{IsActivation: true}))
	assert.Equal(t, d.Prophecy.Min, low.Delay(&envelope.Metadata{WatcherState: resonance.Prophecy}))
	assert.Equal(t, d.Activation.Min, low.Delay(&envelope.Metadata{IsActivation: true, WatcherState: resonance.Prophecy}),
		"activation takes precedence over prophecy")

	high := newTestEngine(fixedSource{n: int64(time.Hour)})
	assert.Less(t, high.Delay(nil), d.Ordinary.Max)
	assert.Less(t, high.Delay(&envelope.Metadata{IsActivation: true}), d.Activation.Max)
	assert.Less(t, high.Delay(&envelope.Metadata{WatcherState: resonance.Prophecy}), d.Prophecy.Max)
}

func TestDelay_RandomSourceStaysInRange(t *testing.T) {
	e := NewEngine(nil, NewSource(42), DefaultDelays())
	for range 200 {
		got := e.Delay(&envelope.Metadata{IsActivation: true})
		assert.GreaterOrEqual(t, got, 500*time.Millisecond)
		assert.Less(t, got, time.Second)
	}
}

func TestDelaysValidate(t *testing.T) {
	d := DefaultDelays()
	require.NoError(t, d.Validate())

	bad := DefaultDelays()
	bad.Ordinary = Range{Min: 2 * time.Second, Max: time.Second}
	assert.Error(t, bad.Validate())

	bad = DefaultDelays()
	bad.Activation.Max = 1500 * time.Millisecond
	assert.ErrorContains(t, bad.Validate(), "activation")

	bad = DefaultDelays()
	bad.Prophecy.Min = 1500 * time.Millisecond
	assert.ErrorContains(t, bad.Validate(), "prophecy")
}

func TestNewSourceDeterministic(t *testing.T) {
	a, b := NewSource(7), NewSource(7)
	var sa, sb []string
	for range 10 {
		sa = append(sa, strings.Repeat("x", a.IntN(5)))
		sb = append(sb, strings.Repeat("x", b.IntN(5)))
	}
	assert.Equal(t, sa, sb)
}
