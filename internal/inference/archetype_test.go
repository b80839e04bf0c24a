package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	bitterblossom = card("Bitterblossom", "Kindred Enchantment — Faerie",
		"At the beginning of your upkeep, you lose 1 life and create a 1/1 black Faerie Rogue creature token with flying.", "{1}{B}", 2, "B")
	visceraSeer = card("Viscera Seer", "Creature — Vampire Wizard", "Sacrifice a creature: Scry 1.", "{B}", 1, "B")
	bloodArtist = card("Blood Artist", "Creature — Vampire",
		"Whenever Blood Artist or another creature dies, target player loses 1 life and you gain 1 life.", "{1}{B}", 2, "B")
)

func TestDetectArchetype(t *testing.T) {
	entries := []resolvedEntry{entry(1, bitterblossom), entry(1, visceraSeer), entry(1, bloodArtist)}

	tests := []struct {
		name          string
		commanderText string
		entries       []resolvedEntry
		want          Archetype
		score         int
	}{
		{"aristocrats with sacrifice commander", "whenever another creature you control dies, each opponent loses 1 life.", entries, ArchetypeAristocrats, 6},
		{"below threshold without commander support", "", entries, "", 3},
		{"commander plus one payoff", "sacrifice another creature: draw a card.", entries[:1], ArchetypeTokenSac, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectArchetype(tt.entries, tt.commanderText)
			assert.Equal(t, tt.want, got.Archetype)
			assert.Equal(t, tt.score, got.Score)
		})
	}
}

func TestDetectArchetype_ProtectedRoles(t *testing.T) {
	got := detectArchetype([]resolvedEntry{entry(1, bitterblossom), entry(1, visceraSeer), entry(1, bloodArtist)}, "")

	assert.Equal(t, []string{
		"Bitterblossom (low-CMC token producer)",
		"Viscera Seer (sacrifice outlet)",
		"Viscera Seer (key 1-drop engine starter)",
		"Blood Artist (death-trigger payoff)",
	}, got.ProtectedRoles)
}

func TestDetectArchetype_NoMatches(t *testing.T) {
	got := detectArchetype([]resolvedEntry{entry(1, solRing)}, "")
	assert.Empty(t, got.Archetype)
	assert.Zero(t, got.Score)
	assert.NotNil(t, got.ProtectedRoles)
}
