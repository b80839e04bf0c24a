package inference

import (
	"regexp"
	"sort"
	"strings"
)

// Role is a functional slot a card fills in a deck.
type Role string

const (
	RoleCommander           Role = "commander"
	RoleLand                Role = "land"
	RoleRampFixing          Role = "ramp_fixing"
	RoleDrawAdvantage       Role = "draw_advantage"
	RoleRemovalInteract     Role = "removal_interact"
	RoleWinconPayoff        Role = "wincon_payoff"
	RoleEngineEnabler       Role = "engine_enabler"
	RoleProtectionRecursion Role = "protection_recursion"
)

// AllRoles lists the roles in reporting order.
var AllRoles = []Role{
	RoleCommander, RoleLand, RoleRampFixing, RoleDrawAdvantage,
	RoleRemovalInteract, RoleWinconPayoff, RoleEngineEnabler, RoleProtectionRecursion,
}

// CardRoles is the role tagging of one decklist entry.
type CardRoles struct {
	Name  string  `json:"name"`
	Roles []Role  `json:"roles"`
	CMC   float64 `json:"cmc"`
	Count int     `json:"count"`
}

// RoleDistribution aggregates role tags over the deck.
type RoleDistribution struct {
	ByRole     map[Role]int   `json:"by_role"`
	CardRoles  []CardRoles    `json:"card_roles"`
	Redundancy map[string]int `json:"redundancy"`
}

var (
	rampText    = regexp.MustCompile(`search your library for (?:a|up to .*?) (?:basic )?land|add \{[wubrg]\}|costs? \{\d+\} less`)
	rampName    = regexp.MustCompile(`signet|talisman|sol ring|mana rock|mana dork`)
	drawText    = regexp.MustCompile(`draw a card|draw.*cards|scry|look at|reveal.*top`)
	drawName    = regexp.MustCompile(`card advantage|draw|library`)
	removalText = regexp.MustCompile(`destroy target|exile target|counter target|remove target|bounce target|return target [^.]*to (?:its|their) owner's hand`)
	removalName = regexp.MustCompile(`removal|kill|destroy|exile`)
	winconText  = regexp.MustCompile(`you win the game|players.*lose|deals?.*damage to each opponent|mills?.*library`)
	winconName  = regexp.MustCompile(`\bwin\b|payoff|finisher`)
	bigThreat   = regexp.MustCompile(`creature|planeswalker`)
	engineText  = regexp.MustCompile(`whenever|when.*enters|when.*dies|when.*attacks|trigger`)
	engineName  = regexp.MustCompile(`engine|enabler|synergy|combo piece`)
	protectText = regexp.MustCompile(`hexproof|indestructible|protection|shroud|can't be|regenerate|return.*from (?:your |a |their )?(?:graveyard|exile)`)
	protectName = regexp.MustCompile(`protection|recursion|recur`)
)

type roleRule struct {
	role  Role
	match func(v cardView) bool
}

// roleTable is evaluated in order; a card collects every role it matches.
var roleTable = []roleRule{
	{RoleLand, func(v cardView) bool { return v.isLand() }},
	{RoleRampFixing, func(v cardView) bool {
		return v.basic || rampText.MatchString(v.text) || rampName.MatchString(v.name)
	}},
	{RoleDrawAdvantage, func(v cardView) bool {
		return drawText.MatchString(v.text) || drawName.MatchString(v.name)
	}},
	{RoleRemovalInteract, func(v cardView) bool {
		return removalText.MatchString(v.text) || removalName.MatchString(v.name)
	}},
	{RoleWinconPayoff, func(v cardView) bool {
		return winconText.MatchString(v.text) || winconName.MatchString(v.name) ||
			(v.cmc >= 6 && bigThreat.MatchString(v.typeLine))
	}},
	{RoleEngineEnabler, func(v cardView) bool {
		return engineText.MatchString(v.text) || engineName.MatchString(v.name)
	}},
	{RoleProtectionRecursion, func(v cardView) bool {
		return protectText.MatchString(v.text) || protectName.MatchString(v.name)
	}},
}

// tagRoles classifies a single card.
func tagRoles(v cardView, isCommander bool) []Role {
	var roles []Role
	if isCommander {
		roles = append(roles, RoleCommander)
	}
	for _, rule := range roleTable {
		if rule.match(v) {
			roles = append(roles, rule.role)
		}
	}
	return roles
}

func analyzeRoles(entries []resolvedEntry, commander string) RoleDistribution {
	dist := RoleDistribution{
		ByRole:     make(map[Role]int, len(AllRoles)),
		Redundancy: map[string]int{},
	}
	for _, r := range AllRoles {
		dist.ByRole[r] = 0
	}

	for _, re := range entries {
		isCommander := commander != "" && strings.EqualFold(re.entry.Name, commander)
		roles := tagRoles(re.view, isCommander)
		if len(roles) == 0 {
			continue
		}
		dist.CardRoles = append(dist.CardRoles, CardRoles{
			Name:  re.entry.Name,
			Roles: roles,
			CMC:   re.view.cmc,
			Count: re.entry.Count,
		})
		for _, role := range roles {
			dist.ByRole[role] += re.entry.Count
		}
	}

	dist.Redundancy = redundancy(dist.CardRoles)
	return dist
}

// redundancy maps each card to the size of the group sharing its exact
// role set, for groups larger than one.
func redundancy(cardRoles []CardRoles) map[string]int {
	groups := make(map[string][]string)
	for _, cr := range cardRoles {
		keys := make([]string, len(cr.Roles))
		for i, r := range cr.Roles {
			keys[i] = string(r)
		}
		sort.Strings(keys)
		key := strings.Join(keys, "|")
		groups[key] = append(groups[key], cr.Name)
	}

	out := make(map[string]int)
	for _, names := range groups {
		if len(names) < 2 {
			continue
		}
		for _, n := range names {
			out[n] = len(names)
		}
	}
	return out
}

// nonlandRampCount counts ramp pieces that are not lands.
func nonlandRampCount(dist RoleDistribution) int {
	n := 0
	for _, cr := range dist.CardRoles {
		hasRamp, isLand := false, false
		for _, r := range cr.Roles {
			switch r {
			case RoleRampFixing:
				hasRamp = true
			case RoleLand:
				isLand = true
			}
		}
		if hasRamp && !isLand {
			n += cr.Count
		}
	}
	return n
}
