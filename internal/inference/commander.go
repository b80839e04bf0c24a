package inference

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
)

var (
	commanderInMessage = regexp.MustCompile(`(?i)my commander (?:is|:)\s*([^.?!]+)`)

	commanderRampText = []*regexp.Regexp{
		regexp.MustCompile(`search your library for (?:a|up to .*?) (?:basic )?land`),
		regexp.MustCompile(`create.*treasure`),
		regexp.MustCompile(`you may play an additional land`),
		regexp.MustCompile(`add \{[wubrg]\}`),
	}
)

// guildColors maps guild, shard and wedge names to their colors.
var guildColors = map[string][]string{
	"azorius":  {"W", "U"},
	"dimir":    {"U", "B"},
	"rakdos":   {"B", "R"},
	"gruul":    {"R", "G"},
	"selesnya": {"G", "W"},
	"orzhov":   {"W", "B"},
	"izzet":    {"U", "R"},
	"golgari":  {"B", "G"},
	"boros":    {"R", "W"},
	"simic":    {"G", "U"},
	"esper":    {"W", "U", "B"},
	"grixis":   {"U", "B", "R"},
	"jund":     {"B", "R", "G"},
	"naya":     {"R", "G", "W"},
	"bant":     {"G", "W", "U"},
	"abzan":    {"W", "B", "G"},
	"jeskai":   {"U", "R", "W"},
	"sultai":   {"B", "G", "U"},
	"mardu":    {"R", "W", "B"},
	"temur":    {"G", "U", "R"},
}

var guildWord = regexp.MustCompile(`\b(azorius|dimir|rakdos|gruul|selesnya|orzhov|izzet|golgari|boros|simic|esper|grixis|jund|naya|bant|abzan|jeskai|sultai|mardu|temur)\b`)

// commanderFromMessage extracts "my commander is X" from the user text.
func commanderFromMessage(msg string) string {
	m := commanderInMessage.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// commanderProvidesRamp reports whether the commander's text ramps or fixes.
func commanderProvidesRamp(text string) bool {
	for _, re := range commanderRampText {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// findPartner returns the first other legendary creature with a partner
// marker when the commander has one.
func findPartner(commander *cards.CardFact, entries []resolvedEntry) *cards.CardFact {
	if commander == nil || !commander.HasPartner() {
		return nil
	}
	for _, re := range entries {
		f := re.view.fact
		if strings.EqualFold(f.Name, commander.Name) {
			continue
		}
		if f.IsLegendary() && f.IsCreature() && f.HasPartner() {
			return f
		}
	}
	return nil
}

// sortColors upper-cases, dedupes and orders colors WUBRG.
func sortColors(colors []string) []string {
	rank := map[string]int{"W": 0, "U": 1, "B": 2, "R": 3, "G": 4}
	seen := make(map[string]bool, len(colors))
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		c = strings.ToUpper(strings.TrimSpace(c))
		if _, ok := rank[c]; !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}

// deckColors is the union of identities over non-basic-land entries.
func deckColors(entries []resolvedEntry) []string {
	var colors []string
	for _, re := range entries {
		if re.view.basic {
			continue
		}
		colors = append(colors, re.view.fact.ColorIdentity...)
	}
	return sortColors(colors)
}

// colorsFromMessage maps the first guild word in msg to its colors.
func colorsFromMessage(msg string) []string {
	m := guildWord.FindStringSubmatch(strings.ToLower(msg))
	if m == nil {
		return nil
	}
	return sortColors(guildColors[m[1]])
}
