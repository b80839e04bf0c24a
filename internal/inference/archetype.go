package inference

import (
	"fmt"
	"regexp"
)

// Archetype is a detected strategic pattern. The empty value means none.
type Archetype string

const (
	ArchetypeAristocrats Archetype = "aristocrats"
	ArchetypeTokenSac    Archetype = "token_sac"
)

var (
	commanderThemeText = regexp.MustCompile(`token|sacrifice|whenever.*dies|aristocrat`)
	tokenMakerText     = regexp.MustCompile(`create.*token|create a 1/1|create.*creature token`)
	attackTokenText    = regexp.MustCompile(`after attacking.*create|whenever.*attacks.*create.*token`)
	sacOutletText      = regexp.MustCompile(`sacrifice.*creature|sacrifice.*as a cost`)
	freeSacOutletText  = regexp.MustCompile(`tap|:.*sacrifice`)
	deathTriggerText   = regexp.MustCompile(`whenever.*creature.*dies|whenever.*dies.*you|death trigger`)
	oneDropEngineText  = regexp.MustCompile(`token|sacrifice|whenever.*dies`)
)

// archetypeRule scores a card and may name it as protected. protect
// receives the card name and returns "" when nothing is protected.
type archetypeRule struct {
	score   int
	match   func(v cardView) bool
	protect func(v cardView, name string) string
}

var archetypeTable = []archetypeRule{
	{
		score: 1,
		match: func(v cardView) bool { return tokenMakerText.MatchString(v.text) },
		protect: func(v cardView, name string) string {
			if v.cmc <= 3 {
				return fmt.Sprintf("%s (low-CMC token producer)", name)
			}
			return ""
		},
	},
	{
		score:   1,
		match:   func(v cardView) bool { return attackTokenText.MatchString(v.text) },
		protect: func(_ cardView, name string) string { return fmt.Sprintf("%s (attack token trigger)", name) },
	},
	{
		score: 1,
		match: func(v cardView) bool { return sacOutletText.MatchString(v.text) },
		protect: func(v cardView, name string) string {
			if freeSacOutletText.MatchString(v.text) {
				return fmt.Sprintf("%s (free/repeatable sacrifice outlet)", name)
			}
			return fmt.Sprintf("%s (sacrifice outlet)", name)
		},
	},
	{
		score:   1,
		match:   func(v cardView) bool { return deathTriggerText.MatchString(v.text) },
		protect: func(_ cardView, name string) string { return fmt.Sprintf("%s (death-trigger payoff)", name) },
	},
	{
		score:   0,
		match:   func(v cardView) bool { return v.cmc == 1 && oneDropEngineText.MatchString(v.text) },
		protect: func(_ cardView, name string) string { return fmt.Sprintf("%s (key 1-drop engine starter)", name) },
	},
}

const (
	aristocratsScore = 6
	tokenSacScore    = 4
	commanderBonus   = 3
)

// ArchetypeResult is the archetype classification with its evidence.
type ArchetypeResult struct {
	Archetype      Archetype `json:"archetype,omitempty"`
	Score          int       `json:"score"`
	ProtectedRoles []string  `json:"protected_roles"`
}

func detectArchetype(entries []resolvedEntry, commanderText string) ArchetypeResult {
	res := ArchetypeResult{ProtectedRoles: []string{}}
	if commanderThemeText.MatchString(commanderText) {
		res.Score += commanderBonus
	}

	for _, re := range entries {
		for _, rule := range archetypeTable {
			if !rule.match(re.view) {
				continue
			}
			res.Score += rule.score
			if note := rule.protect(re.view, re.entry.Name); note != "" {
				res.ProtectedRoles = append(res.ProtectedRoles, note)
			}
		}
	}

	switch {
	case res.Score >= aristocratsScore:
		res.Archetype = ArchetypeAristocrats
	case res.Score >= tokenSacScore:
		res.Archetype = ArchetypeTokenSac
	}
	return res
}
