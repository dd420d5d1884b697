package flow

import (
	"context"
	"errors"
	"log"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// ErrNoTemplate is returned when an orchestrator method is given a
// nil template.
var ErrNoTemplate = errors.New("no template")

// Orchestrator combines rule evaluation with field-requirement and
// navigation decisions.  The zero value is ready to use.
//
// Evaluation itself is pure and synchronous.  The context parameters
// exist because callers sit inside web requests; the only use made of
// one here is honoring cancellation between steps.
type Orchestrator struct {
	Debug bool
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.Debug {
		log.Printf("flow.Orchestrator "+format, args...)
	}
}

// ApplyConditionalLogic evaluates the template's whole rule set
// against the form data and folds the fired actions into a State.
func (o *Orchestrator) ApplyConditionalLogic(ctx context.Context, t *template.FormTemplate, data conditional.FormData) (*State, error) {
	if t == nil {
		return nil, ErrNoTemplate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := conditional.EvaluateRules(t.ConditionalLogic, data)
	o.logf("ApplyConditionalLogic %s: %d actions, %d errors", t.ID, len(res.Actions), len(res.Errors))
	for _, e := range res.Errors {
		log.Printf("flow: template %s: %s", t.ID, e)
	}

	return fold(t, t.ConditionalLogic, res), nil
}

// EvaluateFieldChange evaluates only the rules whose condition tree
// references the changed field.  This is what a browser field-change
// event maps to, so a keystroke doesn't pay for the whole rule set.
func (o *Orchestrator) EvaluateFieldChange(ctx context.Context, t *template.FormTemplate, data conditional.FormData, fieldID string) (*State, error) {
	if t == nil {
		return nil, ErrNoTemplate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rules := conditional.GetTriggeredRules(t.ConditionalLogic, fieldID)
	o.logf("EvaluateFieldChange %s %s: %d rules", t.ID, fieldID, len(rules))

	res := conditional.EvaluateRules(rules, data)
	return fold(t, rules, res), nil
}

// ShouldSkipPage reports whether navigation should pass over the
// page in the current conditional state.
func (o *Orchestrator) ShouldSkipPage(ctx context.Context, t *template.FormTemplate, page *template.Page, data conditional.FormData) (bool, error) {
	if page == nil {
		return true, nil
	}
	s, err := o.ApplyConditionalLogic(ctx, t, data)
	if err != nil {
		return false, err
	}
	return s.PageSkipped(page.ID), nil
}

// NextPage walks the task's page order and returns the first
// non-skipped page after the given one.  An empty currentPageID means
// start from the beginning.  Returns nil when no pages remain (end of
// task).
func (o *Orchestrator) NextPage(ctx context.Context, t *template.FormTemplate, task *template.Task, currentPageID string, data conditional.FormData) (*template.Page, error) {
	if task == nil {
		return nil, nil
	}
	s, err := o.ApplyConditionalLogic(ctx, t, data)
	if err != nil {
		return nil, err
	}

	from := 0
	if currentPageID != "" {
		for i, p := range task.Pages {
			if p.ID == currentPageID {
				from = i + 1
				break
			}
		}
	}

	for _, p := range task.Pages[min(from, len(task.Pages)):] {
		if !s.PageSkipped(p.ID) {
			return p, nil
		}
	}
	return nil, nil
}

// ResolvePage returns the first non-skipped page at or after the
// given one, for landing on a page that conditional logic may have
// since skipped.
func (o *Orchestrator) ResolvePage(ctx context.Context, t *template.FormTemplate, task *template.Task, pageID string, data conditional.FormData) (*template.Page, error) {
	if task == nil {
		return nil, nil
	}
	s, err := o.ApplyConditionalLogic(ctx, t, data)
	if err != nil {
		return nil, err
	}

	from := 0
	for i, p := range task.Pages {
		if p.ID == pageID {
			from = i
			break
		}
	}
	for _, p := range task.Pages[min(from, len(task.Pages)):] {
		if !s.PageSkipped(p.ID) {
			return p, nil
		}
	}
	return nil, nil
}

// ValidateTemplateRules structurally validates every rule in the
// template.  Authoring-time only; never on the request path.
func (o *Orchestrator) ValidateTemplateRules(ctx context.Context, t *template.FormTemplate) ([]*template.RuleValidation, error) {
	if t == nil {
		return nil, ErrNoTemplate
	}
	return template.ValidateTemplate(t), nil
}
