package template

import "fmt"

// RuleValidation is the structural-validation report for one rule.
// Structural only: the rule is never evaluated against data.
//
// Validation is advisory.  It runs when a template manager uploads a
// template, never on the request path.
type RuleValidation struct {
	RuleID   string   `json:"ruleId"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Valid reports whether the rule had no errors.  Warnings don't
// count.
func (v *RuleValidation) Valid() bool {
	return len(v.Errors) == 0
}

// ValidateRule checks a rule's structure: a non-empty condition
// group, at least one affected element, and known operator, action,
// and element-type names.
func ValidateRule(r *Rule) *RuleValidation {
	v := &RuleValidation{RuleID: r.ID}
	errf := func(format string, args ...interface{}) {
		v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
	}
	warnf := func(format string, args ...interface{}) {
		v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
	}

	if r.ID == "" {
		errf("rule has no id")
	}
	if r.ConditionGroup == nil || len(r.ConditionGroup.Conditions) == 0 {
		errf("rule has an empty condition group")
	} else {
		if !knownLogicalOperator(r.ConditionGroup.LogicalOperator) {
			errf("unknown logical operator %q", r.ConditionGroup.LogicalOperator)
		}
		for i, c := range r.ConditionGroup.Conditions {
			validateCondition(c, fmt.Sprintf("condition %d", i), v)
		}
	}

	if len(r.AffectedElements) == 0 {
		errf("rule affects no elements")
	}
	for i, e := range r.AffectedElements {
		if e.ElementID == "" {
			errf("affected element %d has no elementId", i)
		}
		if !Actions[e.Action] {
			errf("affected element %d has unknown action %q", i, e.Action)
		}
		if e.ElementType != "" && !ElementTypes[e.ElementType] {
			errf("affected element %d has unknown element type %q", i, e.ElementType)
		}
	}

	if !r.IsEnabled() {
		warnf("rule is disabled")
	}

	return v
}

func validateCondition(c *Condition, at string, v *RuleValidation) {
	if c == nil {
		v.Errors = append(v.Errors, at+" is null")
		return
	}
	if c.IsGroup() {
		if !knownLogicalOperator(c.LogicalOperator) {
			v.Errors = append(v.Errors, fmt.Sprintf("%s has unknown logical operator %q", at, c.LogicalOperator))
		}
		for i, child := range c.Conditions {
			validateCondition(child, fmt.Sprintf("%s, condition %d", at, i), v)
		}
		return
	}
	if c.TriggerField == "" {
		v.Errors = append(v.Errors, at+" has no triggerField")
	}
	if !Operators[c.Operator] {
		v.Errors = append(v.Errors, fmt.Sprintf("%s has unknown operator %q", at, c.Operator))
	}
}

func knownLogicalOperator(op LogicalOperator) bool {
	switch op {
	case And, Or, Not, "":
		return true
	}
	return false
}

// ValidateTemplate validates every rule in the template and checks
// for duplicate rule ids.
func ValidateTemplate(t *FormTemplate) []*RuleValidation {
	acc := make([]*RuleValidation, 0, len(t.ConditionalLogic))
	seen := map[string]bool{}
	for _, r := range t.ConditionalLogic {
		v := ValidateRule(r)
		if r.ID != "" && seen[r.ID] {
			v.Errors = append(v.Errors, fmt.Sprintf("duplicate rule id %q", r.ID))
		}
		seen[r.ID] = true
		acc = append(acc, v)
	}
	return acc
}
