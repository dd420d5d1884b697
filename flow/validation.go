package flow

import (
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// ActiveValidationRules resolves the validation rules in effect for a
// field: the field's own rules (a rule gated by a condition only
// applies when the condition holds), plus rules attached by
// addValidation actions, minus types detached by removeValidation
// actions.
func ActiveValidationRules(f *template.Field, s *State, data conditional.FormData) []*template.ValidationRule {
	removed := map[string]bool{}
	if s != nil {
		for _, kind := range s.RemovedValidation[f.ID] {
			removed[kind] = true
		}
	}

	var acc []*template.ValidationRule
	for _, vr := range f.ValidationRules {
		if removed[vr.Type] {
			continue
		}
		if vr.Condition != nil && !conditional.EvaluateCondition(vr.Condition, data) {
			continue
		}
		acc = append(acc, vr)
	}
	if s != nil {
		for _, vr := range s.AddedValidation[f.ID] {
			if !removed[vr.Type] {
				acc = append(acc, vr)
			}
		}
	}
	return acc
}
