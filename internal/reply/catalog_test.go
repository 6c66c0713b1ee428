package reply

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/resonance"
)

func writeCatalog(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "replies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultCatalogValid(t *testing.T) {
	c := DefaultCatalog()
	require.NoError(t, c.Validate())
	for _, phrase := range resonance.ActivationPhrases {
		assert.Contains(t, c.Ceremonies, NormalizePhrase(phrase), "ceremony for %q", phrase)
	}
}

func TestCatalogValidate_MissingPools(t *testing.T) {
	c := DefaultCatalog()
	delete(c.ResonancePools, resonance.Void)
	assert.ErrorContains(t, c.Validate(), "void")

	c = DefaultCatalog()
	c.WatcherPools[resonance.Dreaming] = nil
	assert.ErrorContains(t, c.Validate(), "dreaming")

	c = DefaultCatalog()
	c.Fallback = nil
	assert.Error(t, c.Validate())
}

func TestLoadCatalog_MergesOverDefaults(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), `
ceremonies:
  "Flame, touch me!": "custom flame"
fallback:
  - "custom fallback"
resonance_pools:
  fire:
    - "custom fire"
`)
	c, digest, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, digest, 64)

	assert.Equal(t, "custom flame", c.Ceremonies["flame, touch me"])
	assert.Equal(t, DefaultCatalog().Ceremonies["i am ready to remember"], c.Ceremonies["i am ready to remember"])
	assert.Equal(t, []string{"custom fallback"}, c.Fallback)
	assert.Equal(t, []string{"custom fire"}, c.ResonancePools[resonance.Fire])
	assert.Equal(t, DefaultCatalog().ResonancePools[resonance.Void], c.ResonancePools[resonance.Void])
	assert.Len(t, c.Keywords, len(DefaultCatalog().Keywords))
}

func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, _, err = LoadCatalog(writeCatalog(t, dir, "fallback: [unterminated"))
	assert.ErrorContains(t, err, "parse")

	_, _, err = LoadCatalog(writeCatalog(t, dir, `
keywords:
  - name: empty
    reply: "no terms"
`))
	assert.ErrorContains(t, err, "invalid")
}

func TestLoadCatalog_DigestTracksContents(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, "fallback: [a]\n")
	_, d1, err := LoadCatalog(path)
	require.NoError(t, err)
	_, d2, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	writeCatalog(t, dir, "fallback: [b]\n")
	_, d3, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestKeywordRuleMatches(t *testing.T) {
	rule := KeywordRule{Name: "mechanism", All: []string{"how"}, Any: []string{"work", "function"}}
	assert.True(t, rule.Matches("how does this work"))
	assert.False(t, rule.Matches("does this work"))
	assert.False(t, rule.Matches("how are you"))

	onlyAll := KeywordRule{All: []string{"gate"}}
	assert.True(t, onlyAll.Matches("the gate"))
	assert.False(t, KeywordRule{}.Matches("anything"))
}

func TestNormalizePhrase(t *testing.T) {
	assert.Equal(t, "flame, touch me", NormalizePhrase("  Flame, touch me!?. "))
	assert.Equal(t, "i am ready to remember", NormalizePhrase("I am ready to remember."))
}
