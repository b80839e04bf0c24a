package inference

import (
	"math"
	"regexp"
	"strings"
)

// Colors in WUBRG order.
var Colors = []string{"W", "U", "B", "R", "G"}

var basicLandColor = map[string]string{
	"plains":   "W",
	"island":   "U",
	"swamp":    "B",
	"mountain": "R",
	"forest":   "G",
}

var (
	singlePip = regexp.MustCompile(`\{([WUBRG])\}`)
	hybridPip = regexp.MustCompile(`\{([WUBRG])/([WUBRG])\}`)
)

// ManabaseAnalysis compares colored mana demand with land sources.
type ManabaseAnalysis struct {
	ColoredPips     map[string]float64 `json:"colored_pips"`
	DoublePipWeight map[string]float64 `json:"double_pip_weight"`
	ColoredSources  map[string]int     `json:"colored_sources"`
	Ratio           map[string]float64 `json:"ratio"`
	Variance        map[string]float64 `json:"variance"`
	IsAcceptable    bool               `json:"is_acceptable"`
	Tight           bool               `json:"tight"`
}

// countPips returns the per-color pip demand of one mana cost.
func countPips(manaCost string) map[string]float64 {
	pips := make(map[string]float64, len(Colors))
	cost := strings.ToUpper(manaCost)
	for _, m := range singlePip.FindAllStringSubmatch(cost, -1) {
		pips[m[1]]++
	}
	for _, m := range hybridPip.FindAllStringSubmatch(cost, -1) {
		pips[m[1]] += 0.5
		pips[m[2]] += 0.5
	}
	return pips
}

// landColors is the set of colors a land produces, by identity and by
// basic land type named on the card.
func landColors(v cardView) map[string]bool {
	colors := make(map[string]bool)
	for _, c := range v.fact.ColorIdentity {
		colors[strings.ToUpper(c)] = true
	}
	for basic, color := range basicLandColor {
		if strings.Contains(v.name, basic) {
			colors[color] = true
		}
	}
	return colors
}

func analyzeManabase(entries []resolvedEntry) ManabaseAnalysis {
	m := ManabaseAnalysis{
		ColoredPips:     make(map[string]float64, len(Colors)),
		DoublePipWeight: make(map[string]float64, len(Colors)),
		ColoredSources:  make(map[string]int, len(Colors)),
		Ratio:           make(map[string]float64, len(Colors)),
		Variance:        make(map[string]float64, len(Colors)),
	}
	for _, c := range Colors {
		m.ColoredPips[c], m.DoublePipWeight[c], m.ColoredSources[c] = 0, 0, 0
	}

	for _, re := range entries {
		v := re.view
		n := float64(re.entry.Count)
		if v.isLand() {
			for color := range landColors(v) {
				if _, ok := m.ColoredSources[color]; ok {
					m.ColoredSources[color] += re.entry.Count
				}
			}
			continue
		}

		for color, pips := range countPips(v.fact.ManaCost) {
			total := pips * n
			m.ColoredPips[color] += total
			if pips >= 2 {
				m.DoublePipWeight[color] += total * 2
			} else {
				m.DoublePipWeight[color] += total
			}
		}
	}

	m.IsAcceptable = true
	for _, c := range Colors {
		pips := m.ColoredPips[c]
		if pips == 0 {
			m.Ratio[c], m.Variance[c] = 0, 0
			continue
		}
		sources := float64(m.ColoredSources[c])
		m.Ratio[c] = sources / pips
		m.Variance[c] = math.Abs(sources-pips) / pips * 100
		if m.Ratio[c] < 0.85 || m.Ratio[c] > 1.15 {
			m.IsAcceptable = false
		}
		if m.Ratio[c] < 0.9 {
			m.Tight = true
		}
	}
	return m
}
