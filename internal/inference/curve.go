package inference

import (
	"fmt"
	"math"
	"regexp"
)

// CurveShape is the coarse mana-curve classification.
type CurveShape string

const (
	ShapeAggressive    CurveShape = "aggressive"
	ShapeBattlecruiser CurveShape = "battlecruiser"
	ShapeControl       CurveShape = "control"
	ShapeCombo         CurveShape = "combo"
	ShapeUneven        CurveShape = "uneven"
	ShapeMidrange      CurveShape = "midrange"
)

// Curve bucket labels.
const (
	Bucket01    = "0-1"
	Bucket2     = "2"
	Bucket3     = "3"
	Bucket4     = "4"
	Bucket5     = "5"
	Bucket6Plus = "6+"
)

// BucketOrder lists the curve buckets from cheapest to most expensive.
var BucketOrder = []string{Bucket01, Bucket2, Bucket3, Bucket4, Bucket5, Bucket6Plus}

// CurveAnalysis describes the nonland mana curve.
type CurveAnalysis struct {
	Buckets          map[string]int `json:"buckets"`
	NonlandCount     int            `json:"nonland_count"`
	AverageCMC       float64        `json:"average_cmc"`
	HighEndCount     int            `json:"high_end_count"`
	LowCurve         bool           `json:"low_curve"`
	Gaps             []int          `json:"gaps"`
	InteractionCount int            `json:"interaction_count"`
	Shape            CurveShape     `json:"shape"`
	Warnings         []string       `json:"warnings"`
	TightManabase    bool           `json:"tight_manabase"`
}

const (
	curveWarnMinDeck     = 30
	aggroMinOneDrops     = 6
	highAverageCMC       = 3.5
	minInteraction       = 8
	maxHighEndOutsideBig = 10
	minTwoAndThreeDrops  = 3
)

var interactionText = regexp.MustCompile(`destroy|exile|counter target|return target [^.]*to (?:its|their) owner's hand|damage|\bflash\b`)

func bucketFor(cmc float64) string {
	switch n := int(math.Floor(cmc)); {
	case n <= 1:
		return Bucket01
	case n == 2:
		return Bucket2
	case n == 3:
		return Bucket3
	case n == 4:
		return Bucket4
	case n == 5:
		return Bucket5
	default:
		return Bucket6Plus
	}
}

func isInteraction(v cardView) bool {
	return v.fact.IsInstant() || interactionText.MatchString(v.text)
}

func analyzeCurve(entries []resolvedEntry) CurveAnalysis {
	c := CurveAnalysis{Buckets: make(map[string]int, len(BucketOrder)), Gaps: []int{}, Warnings: []string{}}
	for _, b := range BucketOrder {
		c.Buckets[b] = 0
	}

	var exact [6]int // cards at integer CMC 0..5
	totalCMC := 0.0
	for _, re := range entries {
		v := re.view
		if v.isLand() {
			continue
		}
		n := re.entry.Count
		c.Buckets[bucketFor(v.cmc)] += n
		c.NonlandCount += n
		totalCMC += v.cmc * float64(n)
		if v.cmc >= 6 {
			c.HighEndCount += n
		}
		if i := int(math.Floor(v.cmc)); i >= 0 && i <= 5 && float64(i) == v.cmc {
			exact[i] += n
		}
		if isInteraction(v) {
			c.InteractionCount += n
		}
	}

	if c.NonlandCount > 0 {
		c.AverageCMC = totalCMC / float64(c.NonlandCount)
	}
	c.LowCurve = c.AverageCMC <= 3
	for cmc := 1; cmc <= 5; cmc++ {
		if exact[cmc] == 0 {
			c.Gaps = append(c.Gaps, cmc)
		}
	}

	c.Shape = classifyShape(c)
	c.Warnings = curveWarnings(c)
	return c
}

// share is the fraction of nonland cards in the given buckets.
func (c CurveAnalysis) share(buckets ...string) float64 {
	if c.NonlandCount == 0 {
		return 0
	}
	n := 0
	for _, b := range buckets {
		n += c.Buckets[b]
	}
	return float64(n) / float64(c.NonlandCount)
}

type shapeRule struct {
	shape CurveShape
	match func(c CurveAnalysis) bool
}

// shapeTable is evaluated in order; the first match wins.
var shapeTable = []shapeRule{
	{ShapeAggressive, func(c CurveAnalysis) bool {
		return c.AverageCMC < 2.5 && c.share(Bucket01, Bucket2, Bucket3) >= 0.70
	}},
	{ShapeBattlecruiser, func(c CurveAnalysis) bool {
		return c.AverageCMC > 4.0 && c.share(Bucket5, Bucket6Plus) >= 0.30
	}},
	{ShapeControl, func(c CurveAnalysis) bool {
		return c.AverageCMC > 3.2 && c.NonlandCount > 0 &&
			float64(c.InteractionCount)/float64(c.NonlandCount) >= 0.25
	}},
	{ShapeCombo, func(c CurveAnalysis) bool {
		fourNoFive := c.Buckets[Bucket4] > 0 && c.Buckets[Bucket5] == 0
		return c.AverageCMC < 3.0 && c.share(Bucket01, Bucket2) >= 0.40 &&
			(len(c.Gaps) >= 2 || fourNoFive)
	}},
	{ShapeUneven, func(c CurveAnalysis) bool {
		return len(c.Gaps) >= 2 || (c.Buckets[Bucket2] == 0 && c.Buckets[Bucket3] == 0)
	}},
}

func classifyShape(c CurveAnalysis) CurveShape {
	if c.NonlandCount == 0 {
		return ShapeMidrange
	}
	for _, rule := range shapeTable {
		if rule.match(c) {
			return rule.shape
		}
	}
	return ShapeMidrange
}

func curveWarnings(c CurveAnalysis) []string {
	warnings := []string{}
	big := c.NonlandCount >= curveWarnMinDeck

	if c.Shape == ShapeAggressive && c.Buckets[Bucket01] < aggroMinOneDrops {
		warnings = append(warnings, fmt.Sprintf("Only %d one-drops for an aggressive curve", c.Buckets[Bucket01]))
	}
	if c.Buckets[Bucket2] == 0 && c.Buckets[Bucket3] == 0 {
		warnings = append(warnings, "No 2-drops and no 3-drops: the early curve is missing both CMC 2 and CMC 3")
	} else {
		if big && c.Buckets[Bucket2] < minTwoAndThreeDrops {
			warnings = append(warnings, fmt.Sprintf("Only %d two-drops", c.Buckets[Bucket2]))
		}
		if big && c.Shape != ShapeAggressive && c.Buckets[Bucket3] < minTwoAndThreeDrops {
			warnings = append(warnings, fmt.Sprintf("Only %d three-drops", c.Buckets[Bucket3]))
		}
	}
	if c.Shape != ShapeBattlecruiser && c.Buckets[Bucket6Plus] > maxHighEndOutsideBig {
		warnings = append(warnings, fmt.Sprintf("%d cards cost 6 or more without a battlecruiser plan", c.Buckets[Bucket6Plus]))
	}
	if big && c.AverageCMC > highAverageCMC && c.InteractionCount < minInteraction {
		warnings = append(warnings, fmt.Sprintf("Average CMC %.2f with only %d interaction pieces", c.AverageCMC, c.InteractionCount))
	}
	return warnings
}
