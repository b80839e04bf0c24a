// Package curation holds the hand-maintained card tables used by the
// validator: per-format ban lists and the anti-synergy categories.
package curation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ramonehamilton/deck-analyst/internal/cards"
)

//go:embed tables.yaml
var defaultTablesYAML []byte

// Category names the anti-synergy card lists.
type Category string

const (
	GraveyardHate    Category = "graveyard_hate"
	GraveyardPayoffs Category = "graveyard_payoffs"
	ETBHate          Category = "etb_hate"
	ETBPayoffs       Category = "etb_payoffs"
	ManaStax         Category = "mana_stax"
	NonbasicHate     Category = "nonbasic_hate"
	TribalPayoffs    Category = "tribal_payoffs"
	CounterPayoffs   Category = "counter_payoffs"
	TokenPayoffs     Category = "token_payoffs"
	PersistUndying   Category = "persist_undying"
	PhasingConflicts Category = "phasing_conflicts"
)

// Tables is an immutable snapshot of the curated lists.
type Tables struct {
	Version string

	banned            map[string]map[string]string // format -> normalized -> display
	categories        map[Category]map[string]string
	expensivePatterns []string
}

// Default returns the tables compiled into the binary.
func Default() *Tables {
	t, err := Parse(defaultTablesYAML)
	if err != nil {
		panic(fmt.Sprintf("curation: embedded tables are invalid: %v", err))
	}
	return t
}

// Parse decodes a tables document.
func Parse(data []byte) (*Tables, error) {
	var raw struct {
		Version     string               `yaml:"version"`
		Banned      map[string][]string  `yaml:"banned"`
		AntiSynergy map[string]yaml.Node `yaml:"anti_synergy"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse curated tables: %w", err)
	}

	t := &Tables{
		Version:    raw.Version,
		banned:     make(map[string]map[string]string, len(raw.Banned)),
		categories: make(map[Category]map[string]string, len(raw.AntiSynergy)),
	}
	for format, names := range raw.Banned {
		t.banned[strings.ToLower(format)] = index(names)
	}
	for key, node := range raw.AntiSynergy {
		var names []string
		if err := node.Decode(&names); err != nil {
			return nil, fmt.Errorf("anti_synergy.%s: %w", key, err)
		}
		if key == "expensive_commander_patterns" {
			for _, p := range names {
				t.expensivePatterns = append(t.expensivePatterns, strings.ToLower(p))
			}
			continue
		}
		t.categories[Category(key)] = index(names)
	}
	return t, nil
}

// LoadFile reads an override document and layers it over base: every ban
// list or category present in the file replaces the one in base.
func LoadFile(path string, base *Tables) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curated tables %s: %w", path, err)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return override, nil
	}
	return base.merge(override), nil
}

func (t *Tables) merge(o *Tables) *Tables {
	out := &Tables{
		Version:           t.Version,
		banned:            make(map[string]map[string]string, len(t.banned)),
		categories:        make(map[Category]map[string]string, len(t.categories)),
		expensivePatterns: t.expensivePatterns,
	}
	for k, v := range t.banned {
		out.banned[k] = v
	}
	for k, v := range t.categories {
		out.categories[k] = v
	}
	for k, v := range o.banned {
		out.banned[k] = v
	}
	for k, v := range o.categories {
		out.categories[k] = v
	}
	if len(o.expensivePatterns) > 0 {
		out.expensivePatterns = o.expensivePatterns
	}
	if o.Version != "" {
		out.Version = o.Version
	}
	return out
}

func index(names []string) map[string]string {
	m := make(map[string]string, len(names))
	for _, n := range names {
		if key := cards.Normalize(n); key != "" {
			m[key] = strings.TrimSpace(n)
		}
	}
	return m
}

// IsBanned reports whether name is on format's curated ban list.
func (t *Tables) IsBanned(format, name string) bool {
	_, ok := t.banned[strings.ToLower(format)][cards.Normalize(name)]
	return ok
}

// BannedCount returns the size of a format's ban list.
func (t *Tables) BannedCount(format string) int {
	return len(t.banned[strings.ToLower(format)])
}

// In reports whether name belongs to category.
func (t *Tables) In(c Category, name string) bool {
	_, ok := t.categories[c][cards.Normalize(name)]
	return ok
}

// Members returns the category members present in names, in input order.
func (t *Tables) Members(c Category, names []string) []string {
	var out []string
	for _, n := range names {
		if t.In(c, n) {
			out = append(out, n)
		}
	}
	return out
}

// LooksExpensive reports whether a commander name matches one of the
// expensive-commander patterns.
func (t *Tables) LooksExpensive(commander string) bool {
	name := cards.Normalize(commander)
	if name == "" {
		return false
	}
	for _, p := range t.expensivePatterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}
