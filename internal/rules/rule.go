package rules

import (
	"sort"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/probe"
)

// ActionConfig names one action and its opaque constructor args (spec §3:
// Rule carries "actions (ordered list of ActionConfig)"); internal/actions
// resolves the name via its factory, internal/pipeline runs the ordered
// list through stage grouping.
type ActionConfig struct {
	Name string
	Args map[string]any
}

// Rule pairs a named, prioritized expression with the ordered action plan
// it selects (the action names/params are opaque to the rule engine —
// internal/actions and internal/pipeline interpret them).
type Rule struct {
	Name     string
	Priority int
	Enabled  bool
	Expr     Expr
	Actions  []ActionConfig
}

// Validate enforces the spec §3 invariant that "enabled rules must have at
// least one action".
func (r Rule) Validate() error {
	if r.Enabled && len(r.Actions) == 0 {
		return apperr.Validation("actions", "enabled rule \""+r.Name+"\" must have at least one action")
	}
	return nil
}

// FirstMatch implements spec §4.3's `first_match`: enabled rules sorted by
// priority descending, then name ascending for determinism; returns the
// first whose expr evaluates true.
func FirstMatch(ruleSet []Rule, info *probe.MediaInfo) (Rule, bool) {
	ordered := sortedEnabled(ruleSet)
	for _, r := range ordered {
		if r.Expr.Eval(info) {
			return r, true
		}
	}
	return Rule{}, false
}

// AllMatches implements spec §4.3's `all_matches`: every enabled rule
// (in the same deterministic order as FirstMatch) whose expr evaluates
// true. Used for reporting, never for dispatch.
func AllMatches(ruleSet []Rule, info *probe.MediaInfo) []Rule {
	ordered := sortedEnabled(ruleSet)
	var out []Rule
	for _, r := range ordered {
		if r.Expr.Eval(info) {
			out = append(out, r)
		}
	}
	return out
}

func sortedEnabled(ruleSet []Rule) []Rule {
	var enabled []Rule
	for _, r := range ruleSet {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		if enabled[i].Priority != enabled[j].Priority {
			return enabled[i].Priority > enabled[j].Priority
		}
		return enabled[i].Name < enabled[j].Name
	})
	return enabled
}
