// Package template defines the declarative model for a form template:
// task groups, tasks, pages, fields, validation rules, and conditional
// logic rules.  A template is pure data.  Evaluation lives in package
// 'conditional', and navigation/state decisions live in package 'flow'.
//
// A template is immutable once loaded.  Callers must not modify a
// template that is shared across requests.
package template

// FormTemplate is the root aggregate for one application form.
type FormTemplate struct {
	// ID identifies the template.  Something like
	// "send-reform-plan".  Together with Version it keys the
	// template cache.
	ID string `json:"templateId" yaml:"templateId"`

	// Name is the display name for the template.
	Name string `json:"templateName,omitempty" yaml:"templateName,omitempty"`

	// Version distinguishes revisions of the same template.
	Version string `json:"version,omitempty" yaml:",omitempty"`

	// Description is shown to applicants and may contain
	// Markdown.  See tools.RenderTemplateHTML.
	Description string `json:"description,omitempty" yaml:",omitempty"`

	// TaskGroups is the ordered structure of the form.
	TaskGroups []*TaskGroup `json:"taskGroups,omitempty" yaml:"taskGroups,omitempty"`

	// ConditionalLogic is the (optional) rule set evaluated
	// against the accumulated form data.
	ConditionalLogic []*Rule `json:"conditionalLogic,omitempty" yaml:"conditionalLogic,omitempty"`

	// DefaultFieldRequirementPolicy is "required" or "optional".
	//
	// A field that does not say whether it is required falls back
	// to this policy.  Templates that predate this property get
	// "optional", which matches their old behavior.
	DefaultFieldRequirementPolicy string `json:"defaultFieldRequirementPolicy,omitempty" yaml:"defaultFieldRequirementPolicy,omitempty"`
}

// TaskGroup is a named group of tasks shown as one section of the task
// list.
type TaskGroup struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty" yaml:",omitempty"`
	Order int     `json:"order,omitempty" yaml:",omitempty"`
	Tasks []*Task `json:"tasks,omitempty" yaml:",omitempty"`
}

// Task is one step of the application: an ordered list of pages plus
// an optional summary configuration that turns the task into a
// collection flow.
type Task struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty" yaml:",omitempty"`
	Order int     `json:"order,omitempty" yaml:",omitempty"`
	Pages []*Page `json:"pages,omitempty" yaml:",omitempty"`

	// Summary, when present, controls how the task is summarized
	// and whether it behaves as a plain task, a multi-collection
	// flow, or a derived-collection flow.
	Summary *TaskSummaryConfiguration `json:"taskSummary,omitempty" yaml:"taskSummary,omitempty"`
}

// Summary modes.
const (
	SummaryModeStandard    = "standard"
	SummaryModeMultiFlow   = "multiCollectionFlow"
	SummaryModeDerivedFlow = "derivedCollectionFlow"
)

// TaskSummaryConfiguration describes a task's summary behavior.
//
// For a derived-collection flow, SourceField names the field whose
// value generates one sub-flow instance per item, and ItemTitleBinding
// is a dotted path into each item that yields its id/display name.
type TaskSummaryConfiguration struct {
	Mode string `json:"mode,omitempty" yaml:",omitempty"`

	// FlowID names the sub-flow for URL construction and for
	// keying per-item declaration records.
	FlowID string `json:"flowId,omitempty" yaml:"flowId,omitempty"`

	SourceField      string `json:"sourceField,omitempty" yaml:"sourceField,omitempty"`
	ItemTitleBinding string `json:"itemTitleBinding,omitempty" yaml:"itemTitleBinding,omitempty"`
	SourceType       string `json:"sourceType,omitempty" yaml:"sourceType,omitempty"`

	// Pages are the pages of the sub-flow itself (one linear
	// mini-form per collection item).
	Pages []*Page `json:"pages,omitempty" yaml:",omitempty"`
}

// Page is an ordered list of fields rendered together.
type Page struct {
	ID     string   `json:"id"`
	Title  string   `json:"title,omitempty" yaml:",omitempty"`
	Order  int      `json:"order,omitempty" yaml:",omitempty"`
	Fields []*Field `json:"fields,omitempty" yaml:",omitempty"`

	// ReturnToSummaryPage controls where a save sends the user.
	// Nil means true.
	ReturnToSummaryPage *bool `json:"returnToSummaryPage,omitempty" yaml:"returnToSummaryPage,omitempty"`

	// SaveButtonLabel overrides the default save button text.
	SaveButtonLabel string `json:"saveButtonLabel,omitempty" yaml:"saveButtonLabel,omitempty"`

	// Visibility is the page's static default visibility, which
	// conditional logic can override.
	Visibility *Visibility `json:"visibility,omitempty" yaml:",omitempty"`
}

// ReturnsToSummary reports whether saving this page should send the
// user back to the task summary (the default) rather than on to the
// next page.
func (p *Page) ReturnsToSummary() bool {
	return p.ReturnToSummaryPage == nil || *p.ReturnToSummaryPage
}

// Field is a single form input.
type Field struct {
	ID    string `json:"id"`
	Type  string `json:"type,omitempty" yaml:",omitempty"`
	Label string `json:"label,omitempty" yaml:",omitempty"`
	Order int    `json:"order,omitempty" yaml:",omitempty"`

	// Required, when set, wins over the template's
	// DefaultFieldRequirementPolicy.  Nil defers to the policy.
	Required *bool `json:"required,omitempty" yaml:",omitempty"`

	// Visibility is the static default; conditional logic can
	// show or hide the field regardless.
	Visibility *Visibility `json:"visibility,omitempty" yaml:",omitempty"`

	ValidationRules []*ValidationRule `json:"validationRules,omitempty" yaml:"validationRules,omitempty"`

	// Options apply to choice fields (radios, checkboxes,
	// selects).
	Options []*Option `json:"options,omitempty" yaml:",omitempty"`

	// Complex configures composite fields such as autocompletes
	// whose value is a nested structure.
	Complex *ComplexField `json:"complexField,omitempty" yaml:"complexField,omitempty"`
}

// Visibility is a static default visibility.  Nil Default means
// visible.
type Visibility struct {
	Default *bool `json:"default,omitempty" yaml:",omitempty"`
}

// VisibleByDefault reports the static visibility, with absence meaning
// visible.
func (v *Visibility) VisibleByDefault() bool {
	return v == nil || v.Default == nil || *v.Default
}

// Option is one choice of a choice field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty" yaml:",omitempty"`
}

// ValidationRule is a single validation applied to a field.
//
// A rule with a Condition only applies when that condition evaluates
// true against the current form data.
type ValidationRule struct {
	Type    string      `json:"type"`
	Value   interface{} `json:"value,omitempty" yaml:",omitempty"`
	Message string      `json:"message,omitempty" yaml:",omitempty"`

	Condition *Condition `json:"condition,omitempty" yaml:",omitempty"`
}

// ComplexField configures a composite field.
type ComplexField struct {
	Type   string                 `json:"type,omitempty" yaml:",omitempty"`
	Fields []*Field               `json:"fields,omitempty" yaml:",omitempty"`
	Config map[string]interface{} `json:"config,omitempty" yaml:",omitempty"`
}

// TaskStatus is the completion state of a task.
type TaskStatus string

const (
	TaskNotStarted     TaskStatus = "NotStarted"
	TaskInProgress     TaskStatus = "InProgress"
	TaskCompleted      TaskStatus = "Completed"
	TaskCannotStartYet TaskStatus = "CannotStartYet"
)

// Tasks returns every task in the template in declaration order.
func (t *FormTemplate) Tasks() []*Task {
	var acc []*Task
	for _, g := range t.TaskGroups {
		acc = append(acc, g.Tasks...)
	}
	return acc
}

// Task finds a task by id.  Returns nil if not found.
func (t *FormTemplate) Task(id string) *Task {
	for _, g := range t.TaskGroups {
		for _, task := range g.Tasks {
			if task.ID == id {
				return task
			}
		}
	}
	return nil
}

// Page finds a page by id within the task, including sub-flow pages.
// Returns nil if not found.
func (task *Task) Page(id string) *Page {
	for _, p := range task.Pages {
		if p.ID == id {
			return p
		}
	}
	if task.Summary != nil {
		for _, p := range task.Summary.Pages {
			if p.ID == id {
				return p
			}
		}
	}
	return nil
}

// Field finds a field by id anywhere in the template.  Returns nil if
// not found.
func (t *FormTemplate) Field(id string) *Field {
	for _, task := range t.Tasks() {
		for _, p := range task.Pages {
			for _, f := range p.Fields {
				if f.ID == id {
					return f
				}
			}
		}
		if task.Summary == nil {
			continue
		}
		for _, p := range task.Summary.Pages {
			for _, f := range p.Fields {
				if f.ID == id {
					return f
				}
			}
		}
	}
	return nil
}
