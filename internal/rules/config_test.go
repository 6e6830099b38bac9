package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatDVRule() RawRule {
	return RawRule{
		Name: "dv-to-8", Priority: 100, Enabled: true,
		Actions: []RawActionConfig{{Name: "convert_dv_profile", Args: map[string]any{"target_profile": 8}}},
		FlatLeaves: FlatLeaves{
			Codecs:     []string{"hevc"},
			DvProfiles: []int{7},
		},
	}
}

func TestFlatRoundTrip(t *testing.T) {
	raw := flatDVRule()
	rule := raw.ToRule()

	back, ok := FromFlatOnly(rule)
	require.True(t, ok, "a single And of *In leaves must be flat-representable")

	assert.Equal(t, raw.Name, back.Name)
	assert.Equal(t, raw.Priority, back.Priority)
	assert.Equal(t, raw.Enabled, back.Enabled)
	assert.ElementsMatch(t, raw.Codecs, back.Codecs)
	assert.ElementsMatch(t, raw.DvProfiles, back.DvProfiles)
	assert.Equal(t, raw.Actions, back.Actions)
}

func TestSingleLeafFlatRoundTrip(t *testing.T) {
	raw := RawRule{Name: "hevc-only", Priority: 1, Enabled: true, FlatLeaves: FlatLeaves{Codecs: []string{"hevc"}}}
	rule := raw.ToRule()
	back, ok := FromFlatOnly(rule)
	require.True(t, ok)
	assert.Equal(t, []string{"hevc"}, back.Codecs)
}

func TestAdvancedFormDoesNotClaimFlatRoundTrip(t *testing.T) {
	raw := RawRule{
		Name: "advanced", Priority: 1, Enabled: true,
		AnyOf: []FlatLeaves{{Codecs: []string{"hevc"}}, {Codecs: []string{"av1"}}},
	}
	rule := raw.ToRule()
	_, ok := FromFlatOnly(rule)
	assert.False(t, ok, "an Or-shaped tree is not representable in flat form")
}

func TestNotFormDoesNotClaimFlatRoundTrip(t *testing.T) {
	raw := RawRule{
		Name: "not-form", Priority: 1, Enabled: true,
		FlatLeaves: FlatLeaves{Codecs: []string{"hevc"}},
		Not:        &FlatLeaves{Containers: []string{"mkv"}},
	}
	rule := raw.ToRule()
	_, ok := FromFlatOnly(rule)
	assert.False(t, ok)
}

func TestLoadBytesFlatAndAdvanced(t *testing.T) {
	doc := []byte(`
rules:
  - name: dv-profile-7-to-8
    priority: 100
    enabled: true
    codecs: [hevc]
    dv_profiles: [7]
    actions:
      - name: convert_dv_profile
        args:
          target_profile: 8
  - name: hdr-fallback
    priority: 50
    enabled: true
    any_of:
      - hdr_formats: [hdr10, hdr10plus]
      - dv_profiles: [5]
    actions:
      - name: remux
        args:
          target_container: mkv
`)
	rules, err := LoadBytes(doc)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "dv-profile-7-to-8", rules[0].Name)
	assert.Equal(t, "convert_dv_profile", rules[0].Actions[0].Name)
	assert.Equal(t, "hdr-fallback", rules[1].Name)
	assert.Equal(t, "remux", rules[1].Actions[0].Name)
}

func TestEnabledRuleRequiresAtLeastOneAction(t *testing.T) {
	raw := RawRule{Name: "no-op", Priority: 1, Enabled: true, FlatLeaves: FlatLeaves{Codecs: []string{"hevc"}}}
	rule := raw.ToRule()
	assert.Empty(t, rule.Actions)
	assert.Error(t, rule.Validate())
}

func TestLoadBytesRejectsEnabledRuleWithNoActions(t *testing.T) {
	doc := []byte(`
rules:
  - name: broken
    priority: 1
    enabled: true
    codecs: [hevc]
`)
	_, err := LoadBytes(doc)
	assert.Error(t, err)
}

func TestLoadBytesAllowsDisabledRuleWithNoActions(t *testing.T) {
	doc := []byte(`
rules:
  - name: disabled-placeholder
    priority: 1
    enabled: false
    codecs: [hevc]
`)
	rules, err := LoadBytes(doc)
	assert.NoError(t, err)
	assert.Len(t, rules, 1)
}
