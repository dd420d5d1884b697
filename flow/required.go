package flow

import (
	"fmt"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// RequiredPolicy is the DefaultFieldRequirementPolicy value that
// makes unmarked fields required.
const RequiredPolicy = "required"

// IsFieldRequired resolves a field's static requiredness.  The
// field's own flag wins outright; otherwise the template's default
// policy decides.  Templates that predate the policy property fall
// through to optional.
func IsFieldRequired(f *template.Field, t *template.FormTemplate) bool {
	if f.Required != nil {
		return *f.Required
	}
	return t != nil && t.DefaultFieldRequirementPolicy == RequiredPolicy
}

// EffectiveRequired adds the conditional state on top of
// IsFieldRequired: a require/makeOptional action in effect wins, and
// a hidden field is never required.
func EffectiveRequired(f *template.Field, t *template.FormTemplate, s *State) bool {
	if s != nil && !s.FieldVisible(f.ID) {
		return false
	}
	if s != nil {
		if v, decided := s.FieldRequired[f.ID]; decided {
			return v
		}
	}
	return IsFieldRequired(f, t)
}

// RequiredFieldsForTask returns every required field across the
// task's pages, excluding fields the given predicate reports hidden.
// A nil predicate means nothing is hidden.
func RequiredFieldsForTask(task *template.Task, t *template.FormTemplate, hidden func(fieldID string) bool) []*template.Field {
	var acc []*template.Field
	for _, p := range task.Pages {
		for _, f := range p.Fields {
			if hidden != nil && hidden(f.ID) {
				continue
			}
			if IsFieldRequired(f, t) {
				acc = append(acc, f)
			}
		}
	}
	return acc
}

// MissingRequiredFields returns the ids of required fields whose
// value is absent or empty in the form data.
func MissingRequiredFields(task *template.Task, t *template.FormTemplate, data conditional.FormData, hidden func(fieldID string) bool) []string {
	var acc []string
	for _, f := range RequiredFieldsForTask(task, t, hidden) {
		if conditional.IsEmpty(data[f.ID]) {
			acc = append(acc, f.ID)
		}
	}
	return acc
}

// MissingRequiredFieldsWithMessages is MissingRequiredFields plus a
// message per field: the field's own required-type validation rule if
// it carries one, else a generic default.  These become the page's
// validation summary entries.
func MissingRequiredFieldsWithMessages(task *template.Task, t *template.FormTemplate, data conditional.FormData, hidden func(fieldID string) bool) map[string]string {
	acc := map[string]string{}
	for _, f := range RequiredFieldsForTask(task, t, hidden) {
		if !conditional.IsEmpty(data[f.ID]) {
			continue
		}
		acc[f.ID] = requiredMessage(f)
	}
	return acc
}

func requiredMessage(f *template.Field) string {
	for _, vr := range f.ValidationRules {
		if vr.Type == "required" && vr.Message != "" {
			return vr.Message
		}
	}
	name := f.Label
	if name == "" {
		name = f.ID
	}
	return fmt.Sprintf("%s is required", name)
}
