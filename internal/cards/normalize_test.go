package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Sol Ring", "sol ring"},
		{"strips diacritics", "Lim-Dûl's Vault", "lim-dul's vault"},
		{"strips accents", "Séance", "seance"},
		{"collapses whitespace", "  Lightning   \tBolt ", "lightning bolt"},
		{"keeps split names", "Fire // Ice", "fire // ice"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, s := range []string{"Jötun Grunt", "Æther Vial", "  Éowyn,  Fearless Knight", "Borrowing 100,000 Arrows"} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), s)
	}
}
