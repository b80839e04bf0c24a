package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deck-analyst/internal/curation"
)

func categories(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Category)
	}
	return out
}

func TestDetectAntiSynergies_GraveyardConflict(t *testing.T) {
	findings := DetectAntiSynergies(curation.Default(),
		[]string{"Rest in Peace", "Reanimate", "Animate Dead", "Living Death"}, "")

	require.Len(t, findings, 1)
	assert.Equal(t, SeveritySevere, findings[0].Severity)
	assert.Equal(t, "Graveyard Conflict", findings[0].Category)
	assert.Equal(t, []string{"Rest in Peace", "Reanimate", "Animate Dead", "Living Death"}, findings[0].Cards)
}

func TestDetectAntiSynergies_GraveyardNeedsThreePayoffs(t *testing.T) {
	findings := DetectAntiSynergies(curation.Default(), []string{"Rest in Peace", "Reanimate", "Animate Dead"}, "")
	assert.Empty(t, findings)
}

func TestDetectAntiSynergies_Rules(t *testing.T) {
	tests := []struct {
		name      string
		cards     []string
		commander string
		want      []string
	}{
		{"etb conflict", []string{"Torpor Orb", "Mulldrifter", "Eternal Witness"}, "", []string{"ETB Conflict"}},
		{"lonely doubler", []string{"Panharmonicon", "Mulldrifter"}, "", []string{"Insufficient ETB Density"}},
		{"stax under a titan", []string{"Winter Orb"}, "Sun Titan", []string{"Stax vs Commander"}},
		{"stax with cheap commander", []string{"Winter Orb"}, "Talrand, Sky Summoner", []string{}},
		{"blood moon", []string{"Blood Moon"}, "", []string{"Nonbasic Land Hate"}},
		{"tribal", []string{"Coat of Arms", "Herald's Horn"}, "", []string{"Tribal Synergies"}},
		{"split focus", []string{"Hardened Scales", "Winding Constrictor", "The Ozolith", "Parallel Lives", "Anointed Procession", "Impact Tremors"}, "", []string{"Split Focus"}},
		{"phasing", []string{"Teferi's Protection", "Oubliette"}, "", []string{"Phasing Interaction"}},
		{"solemnity", []string{"Solemnity", "Kitchen Finks"}, "", []string{"Solemnity Combo"}},
		{"case and accents", []string{"REST IN PEACE", "reanimate", "Animate Dead", "Living Death"}, "", []string{"Graveyard Conflict"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectAntiSynergies(curation.Default(), tt.cards, tt.commander)
			assert.Equal(t, tt.want, categories(got))
		})
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "No significant anti-synergies detected.", Summarize(nil))
	assert.Equal(t, "2 severe conflicts, 1 notable issue, 1 note", Summarize([]Finding{
		{Severity: SeveritySevere},
		{Severity: SeverityInfo},
		{Severity: SeverityModerate},
		{Severity: SeveritySevere},
	}))
}
