// Package flow turns conditional-logic evaluation into form
// behavior: which fields and pages are visible and required, which
// view should render for a URL, which page comes next, and how
// collection sub-flows resolve their instances.
//
// Package conditional answers "which rules fired"; this package
// answers what that means for one applicant's form.
package flow

import (
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// Message is a user-facing message produced by a showMessage action.
type Message struct {
	ElementID string `json:"elementId,omitempty"`
	Text      string `json:"text"`
	Kind      string `json:"kind,omitempty"`
	RuleID    string `json:"ruleId,omitempty"`
}

// State is the consolidated conditional state for a whole form: the
// result of folding every fired action, in priority order, over the
// template's static defaults.
//
// A State is built fresh for each evaluation and discarded after use.
// It is never persisted.
type State struct {
	// FieldVisibility and PageVisibility only hold entries for
	// elements something decided about.  Use FieldVisible /
	// PageVisible, which default to visible.
	FieldVisibility map[string]bool `json:"fieldVisibility,omitempty"`
	PageVisibility  map[string]bool `json:"pageVisibility,omitempty"`

	FieldRequired map[string]bool `json:"fieldRequired,omitempty"`
	FieldEnabled  map[string]bool `json:"fieldEnabled,omitempty"`

	// Values holds setValue results.  A clearValue puts the field
	// in Cleared and removes any pending value.
	Values  map[string]interface{} `json:"values,omitempty"`
	Cleared map[string]bool        `json:"cleared,omitempty"`

	// SkippedPages come from explicit skip actions.  Visibility
	// and skipping are separate aspects: a show action restores a
	// statically hidden page but does not cancel a skip.
	SkippedPages map[string]bool `json:"skippedPages,omitempty"`

	// AddedValidation maps field id to validation rules attached
	// by addValidation actions.  RemovedValidation maps field id
	// to rule types detached by removeValidation actions.
	AddedValidation   map[string][]*template.ValidationRule `json:"addedValidation,omitempty"`
	RemovedValidation map[string][]string                   `json:"removedValidation,omitempty"`

	Messages    []*Message `json:"messages,omitempty"`
	RedirectURL string     `json:"redirectUrl,omitempty"`

	// Actions is the ordered action list the state was folded
	// from.  The live field-change channel sends these to the
	// browser.
	Actions []*conditional.Action `json:"actions,omitempty"`

	// Errors carries per-rule evaluation failures.  The page
	// still renders; these are for logs and the template manager.
	Errors []string `json:"errors,omitempty"`
}

func newState() *State {
	return &State{
		FieldVisibility:   map[string]bool{},
		PageVisibility:    map[string]bool{},
		FieldRequired:     map[string]bool{},
		FieldEnabled:      map[string]bool{},
		Values:            map[string]interface{}{},
		Cleared:           map[string]bool{},
		SkippedPages:      map[string]bool{},
		AddedValidation:   map[string][]*template.ValidationRule{},
		RemovedValidation: map[string][]string{},
	}
}

// FieldVisible reports the field's visibility, defaulting to visible.
func (s *State) FieldVisible(id string) bool {
	if v, decided := s.FieldVisibility[id]; decided {
		return v
	}
	return true
}

// PageVisible reports the page's visibility, defaulting to visible.
func (s *State) PageVisible(id string) bool {
	if v, decided := s.PageVisibility[id]; decided {
		return v
	}
	return true
}

// FieldEnabledState reports the field's enabled state, defaulting to
// enabled.
func (s *State) FieldEnabledState(id string) bool {
	if v, decided := s.FieldEnabled[id]; decided {
		return v
	}
	return true
}

// PageSkipped reports whether navigation should pass over the page:
// either an explicit skip action or a (never overridden) hidden
// state.
func (s *State) PageSkipped(id string) bool {
	return s.SkippedPages[id] || !s.PageVisible(id)
}

// ApplyValues writes the folded setValue/clearValue outcomes into the
// given form data.  This is the one place conditional logic writes
// form data; the caller owns persisting the map afterward.
func (s *State) ApplyValues(data conditional.FormData) {
	for id := range s.Cleared {
		delete(data, id)
	}
	for id, v := range s.Values {
		data[id] = v
	}
}

// fold applies the ordered action list over the template's static
// visibility defaults.  Actions arrive sorted by ascending priority,
// so for a contested element+aspect the action applied last wins.
func fold(t *template.FormTemplate, rules []*template.Rule, res *conditional.Result) *State {
	s := newState()
	s.Actions = res.Actions
	s.Errors = res.Errors

	seedStaticVisibility(t, s)
	seedShowTargets(rules, s)

	for _, a := range res.Actions {
		e := a.Element
		switch e.Action {

		case template.ActShow:
			if e.ElementType == template.ElemPage {
				s.PageVisibility[e.ElementID] = true
			} else {
				s.FieldVisibility[e.ElementID] = true
			}
		case template.ActHide:
			if e.ElementType == template.ElemPage {
				s.PageVisibility[e.ElementID] = false
			} else {
				s.FieldVisibility[e.ElementID] = false
			}
		case template.ActSkip:
			s.SkippedPages[e.ElementID] = true

		case template.ActRequire:
			s.FieldRequired[e.ElementID] = true
		case template.ActMakeOptional:
			s.FieldRequired[e.ElementID] = false

		case template.ActEnable:
			s.FieldEnabled[e.ElementID] = true
		case template.ActDisable:
			s.FieldEnabled[e.ElementID] = false

		case template.ActSetValue:
			delete(s.Cleared, e.ElementID)
			s.Values[e.ElementID] = e.ActionConfig["value"]
		case template.ActClearValue:
			delete(s.Values, e.ElementID)
			s.Cleared[e.ElementID] = true

		case template.ActAddValidation:
			if vr := validationFromConfig(e.ActionConfig); vr != nil {
				s.AddedValidation[e.ElementID] = append(s.AddedValidation[e.ElementID], vr)
			}
		case template.ActRemoveValidation:
			kind, _ := e.ActionConfig["type"].(string)
			s.RemovedValidation[e.ElementID] = append(s.RemovedValidation[e.ElementID], kind)

		case template.ActRedirect:
			if url, is := e.ActionConfig["url"].(string); is {
				s.RedirectURL = url
			}
		case template.ActShowMessage:
			msg := &Message{ElementID: e.ElementID, RuleID: a.RuleID}
			if text, is := e.ActionConfig["message"].(string); is {
				msg.Text = text
			}
			if kind, is := e.ActionConfig["type"].(string); is {
				msg.Kind = kind
			}
			s.Messages = append(s.Messages, msg)

		default:
			// ValidateRule catches these at authoring time.
			// At runtime an unknown action is just skipped.
		}
	}

	return s
}

// seedShowTargets hides every element an enabled show rule targets.
// A show only reveals its target while the rule's condition holds;
// with the rule unfired the element stays hidden.  Fired actions are
// applied afterward and override in priority order.
func seedShowTargets(rules []*template.Rule, s *State) {
	for _, r := range rules {
		if r == nil || !r.IsEnabled() {
			continue
		}
		for _, e := range r.AffectedElements {
			if e == nil || e.Action != template.ActShow {
				continue
			}
			if e.ElementType == template.ElemPage {
				s.PageVisibility[e.ElementID] = false
			} else {
				s.FieldVisibility[e.ElementID] = false
			}
		}
	}
}

// seedStaticVisibility records the elements whose template declares a
// static default of hidden.  Actions applied afterward can override.
func seedStaticVisibility(t *template.FormTemplate, s *State) {
	if t == nil {
		return
	}
	for _, task := range t.Tasks() {
		pages := task.Pages
		if task.Summary != nil {
			pages = append(pages[:len(pages):len(pages)], task.Summary.Pages...)
		}
		for _, p := range pages {
			if !p.Visibility.VisibleByDefault() {
				s.PageVisibility[p.ID] = false
			}
			for _, f := range p.Fields {
				if !f.Visibility.VisibleByDefault() {
					s.FieldVisibility[f.ID] = false
				}
			}
		}
	}
}

// validationFromConfig builds a validation rule from an addValidation
// actionConfig.  The rule may sit under a "rule" key or be the config
// itself.
func validationFromConfig(config map[string]interface{}) *template.ValidationRule {
	m := config
	if inner, is := config["rule"].(map[string]interface{}); is {
		m = inner
	}
	kind, _ := m["type"].(string)
	if kind == "" {
		return nil
	}
	msg, _ := m["message"].(string)
	return &template.ValidationRule{
		Type:    kind,
		Value:   m["value"],
		Message: msg,
	}
}
