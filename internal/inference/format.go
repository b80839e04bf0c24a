package inference

import (
	"regexp"
	"strings"
)

// Format is a constructed format the analyzer understands.
type Format string

const (
	FormatCommander Format = "Commander"
	FormatModern    Format = "Modern"
	FormatPioneer   Format = "Pioneer"
)

// ParseFormat maps a free-form name to a Format; ok is false when unknown.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "commander", "edh":
		return FormatCommander, true
	case "modern":
		return FormatModern, true
	case "pioneer":
		return FormatPioneer, true
	}
	return "", false
}

// PowerLevel is the expected table power.
type PowerLevel string

const (
	PowerCasual        PowerLevel = "casual"
	PowerMid           PowerLevel = "mid"
	PowerHigh          PowerLevel = "high"
	PowerBattlecruiser PowerLevel = "battlecruiser"
	PowerCEDH          PowerLevel = "cedh"
)

type formatKeyword struct {
	re     *regexp.Regexp
	format Format
}

var formatKeywords = []formatKeyword{
	{regexp.MustCompile(`\b(?:commander|edh)\b`), FormatCommander},
	{regexp.MustCompile(`\bmodern\b`), FormatModern},
	{regexp.MustCompile(`\b(?:pioneer|standard)\b`), FormatPioneer},
}

func detectFormat(totalCards int, commander string, explicit Format, msg string) Format {
	msg = strings.ToLower(msg)
	for _, kw := range formatKeywords {
		if kw.re.MatchString(msg) {
			return kw.format
		}
	}
	switch {
	case explicit != "":
		return explicit
	case commander != "":
		return FormatCommander
	case totalCards >= 95 && totalCards <= 105:
		return FormatCommander
	case totalCards >= 55 && totalCards <= 75:
		return FormatModern
	}
	return FormatCommander
}

type powerKeyword struct {
	re    *regexp.Regexp
	level PowerLevel
}

var powerKeywords = []powerKeyword{
	{regexp.MustCompile(`\bcedh\b`), PowerCEDH},
	{regexp.MustCompile(`\b(?:high power|high-power|optimized|competitive)\b`), PowerHigh},
	{regexp.MustCompile(`\b(?:battlecruiser|battle cruiser|big spells)\b`), PowerBattlecruiser},
	{regexp.MustCompile(`\b(?:casual|kitchen table)\b`), PowerCasual},
}

func detectPowerLevel(msg string, highEndCount int, averageCMC float64) PowerLevel {
	msg = strings.ToLower(msg)
	for _, kw := range powerKeywords {
		if kw.re.MatchString(msg) {
			return kw.level
		}
	}
	switch {
	case highEndCount >= 8 && averageCMC > 4.5:
		return PowerBattlecruiser
	case averageCMC < 2.5 && highEndCount <= 2:
		return PowerHigh
	}
	return PowerMid
}
