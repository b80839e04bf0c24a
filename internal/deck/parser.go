// Package deck parses pasted decklists into ordered card entries.
package deck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
)

// Section is the part of a decklist an entry was listed under.
type Section string

const (
	SectionMain      Section = "main"
	SectionCommander Section = "commander"
	SectionSideboard Section = "sideboard"
)

// Entry is one decklist line.
type Entry struct {
	Count   int     `json:"count"`
	Name    string  `json:"name"`
	Section Section `json:"section"`
}

// Decklist is a parsed decklist. Entries holds the main deck and command
// zone in input order; sideboard cards are kept apart.
type Decklist struct {
	Entries   []Entry  `json:"entries"`
	Sideboard []Entry  `json:"sideboard,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

var (
	// "4 Lightning Bolt", "4x Lightning Bolt", "4 x Lightning Bolt"
	countFirst = regexp.MustCompile(`^(\d+)\s*x?\s+(.+)$`)
	// "Lightning Bolt x4"
	countLast = regexp.MustCompile(`^(.+?)\s+x(\d+)$`)
	// Trailing "(M21) 123", "[M21]", "*F*" and collector numbers
	setSuffix  = regexp.MustCompile(`\s+[\(\[][A-Za-z0-9]{2,6}[\)\]](\s+[A-Za-z0-9-]+)?$`)
	foilMarker = regexp.MustCompile(`\s+\*[A-Za-z]+\*$`)
)

var sectionHeaders = map[string]Section{
	"deck":       SectionMain,
	"mainboard":  SectionMain,
	"main":       SectionMain,
	"commander":  SectionCommander,
	"commanders": SectionCommander,
	"sideboard":  SectionSideboard,
	"maybeboard": SectionSideboard,
}

// Parse reads a decklist. Comment lines (// or #) and blank lines are
// skipped; lines that cannot be read produce warnings, never errors.
func Parse(text string) *Decklist {
	d := &Decklist{}
	section := SectionMain

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}

		header := strings.ToLower(strings.TrimSuffix(line, ":"))
		if s, ok := sectionHeaders[header]; ok {
			section = s
			continue
		}

		entry, ok := parseLine(line)
		if !ok {
			d.Warnings = append(d.Warnings, fmt.Sprintf("Line %d: could not parse '%s'", i+1, line))
			continue
		}
		entry.Section = section

		if section == SectionSideboard {
			d.Sideboard = append(d.Sideboard, entry)
		} else {
			d.Entries = append(d.Entries, entry)
		}
	}
	return d
}

func parseLine(line string) (Entry, bool) {
	count := 1
	name := line

	if m := countFirst.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Entry{}, false
		}
		count, name = n, m[2]
	} else if m := countLast.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return Entry{}, false
		}
		count, name = n, m[1]
	}

	name = foilMarker.ReplaceAllString(name, "")
	name = setSuffix.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" || count <= 0 {
		return Entry{}, false
	}
	return Entry{Count: count, Name: name}, true
}

// TotalCount is the number of cards in the main deck and command zone.
func (d *Decklist) TotalCount() int {
	total := 0
	for _, e := range d.Entries {
		total += e.Count
	}
	return total
}

// Names returns the distinct entry names in order.
func (d *Decklist) Names() []string {
	seen := make(map[string]bool, len(d.Entries))
	names := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		key := cards.Normalize(e.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, e.Name)
	}
	return names
}

// CommanderHint returns the first command zone entry, if any.
func (d *Decklist) CommanderHint() string {
	for _, e := range d.Entries {
		if e.Section == SectionCommander {
			return e.Name
		}
	}
	return ""
}

// Text renders the entries one per line as "count name".
func (d *Decklist) Text() string {
	var b strings.Builder
	for _, e := range d.Entries {
		fmt.Fprintf(&b, "%d %s\n", e.Count, e.Name)
	}
	return b.String()
}

// NormalizedText is Text with normalized names, used as a cache key.
func (d *Decklist) NormalizedText() string {
	var b strings.Builder
	for _, e := range d.Entries {
		fmt.Fprintf(&b, "%d %s\n", e.Count, cards.Normalize(e.Name))
	}
	return b.String()
}
