package conditional

import (
	"fmt"
	"sort"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// Action is one concrete thing to do to one element, produced by a
// rule whose condition tree evaluated true.  It carries the source
// rule's id and priority so the fold in package flow can order and
// attribute it.
type Action struct {
	RuleID   string                    `json:"ruleId"`
	Priority int                       `json:"priority"`
	Element  *template.AffectedElement `json:"element"`
}

// Result is the outcome of one pass over a rule set.  Ephemeral:
// recomputed for every evaluation, never persisted.
type Result struct {
	// Actions is ordered by ascending priority.  The sort is
	// stable, so rules with equal priority keep their declaration
	// order.  Downstream folding relies on this order:
	// later-applied actions win conflicts over the same element.
	Actions []*Action `json:"actions,omitempty"`

	// Errors records rules that could not be evaluated.  A bad
	// rule never stops the others.
	Errors []string `json:"errors,omitempty"`
}

// Fired reports whether the given rule contributed any actions.
func (res *Result) Fired(ruleID string) bool {
	for _, a := range res.Actions {
		if a.RuleID == ruleID {
			return true
		}
	}
	return false
}

// EvaluateRules runs every enabled rule against the form data and
// collects the actions of the rules that fired, ordered by ascending
// priority (stable).
func EvaluateRules(rules []*template.Rule, data FormData) *Result {
	res := &Result{}

	for _, r := range rules {
		if r == nil || !r.IsEnabled() {
			continue
		}
		fired, err := evalRule(r, data)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("rule %s: %v", r.ID, err))
			continue
		}
		if !fired {
			continue
		}
		p := r.Priority
		if p == 0 {
			p = template.DefaultRulePriority
		}
		for _, e := range r.AffectedElements {
			if e == nil {
				continue
			}
			res.Actions = append(res.Actions, &Action{
				RuleID:   r.ID,
				Priority: p,
				Element:  e,
			})
		}
	}

	sort.SliceStable(res.Actions, func(i, j int) bool {
		return res.Actions[i].Priority < res.Actions[j].Priority
	})

	return res
}

// evalRule evaluates one rule's condition tree, converting any panic
// into an error so a malformed rule can't stop the rest of the set.
func evalRule(r *template.Rule, data FormData) (fired bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return evalGroup(r.ConditionGroup, data)
}

// GetTriggeredRules returns the enabled rules whose condition tree
// references the given field anywhere, including in nested groups.
// A pure filter: nothing is evaluated.
func GetTriggeredRules(rules []*template.Rule, fieldID string) []*template.Rule {
	var acc []*template.Rule
	for _, r := range rules {
		if r == nil || !r.IsEnabled() {
			continue
		}
		if r.References(fieldID) {
			acc = append(acc, r)
		}
	}
	return acc
}
