package template

// Rule is one conditional-logic rule: a condition tree plus the
// elements it affects when the tree evaluates true.
type Rule struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Priority orders action application.  Lower numbers are
	// applied first, so a later (higher-numbered) action wins a
	// conflict over the same element.  Zero means unset and is
	// normalized to DefaultRulePriority on load.
	Priority int `json:"priority,omitempty" yaml:",omitempty"`

	// Enabled, when nil, means true.  A disabled rule never
	// evaluates and never contributes actions.
	Enabled *bool `json:"enabled,omitempty" yaml:",omitempty"`

	ConditionGroup   *ConditionGroup    `json:"conditionGroup,omitempty" yaml:"conditionGroup,omitempty"`
	AffectedElements []*AffectedElement `json:"affectedElements,omitempty" yaml:"affectedElements,omitempty"`

	// ExecuteOn lists the triggers ("change", "load", "submit",
	// "focus", "blur") that should fire this rule in the browser.
	// Empty means ["change", "load"].
	ExecuteOn []string `json:"executeOn,omitempty" yaml:"executeOn,omitempty"`

	// Debounce is a hint (in milliseconds) for the client-side
	// mirror.  Zero means unset and is normalized to
	// DefaultDebounce on load.
	Debounce int `json:"debounce,omitempty" yaml:",omitempty"`
}

const (
	// DefaultRulePriority is assigned to rules that don't say.
	DefaultRulePriority = 100

	// DefaultDebounce (milliseconds) is the client-side debounce
	// for rules that don't say.
	DefaultDebounce = 300
)

// IsEnabled reports whether the rule should evaluate at all.
func (r *Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// ConditionGroup is a boolean tree of conditions.
type ConditionGroup struct {
	LogicalOperator LogicalOperator `json:"logicalOperator,omitempty" yaml:"logicalOperator,omitempty"`
	Conditions      []*Condition    `json:"conditions,omitempty" yaml:",omitempty"`
}

// Condition is either a leaf comparison of a field value, or (when
// Conditions is non-empty) a nested group with its own
// LogicalOperator.  The structure is a tree, so no cycles are
// possible.
type Condition struct {
	TriggerField string      `json:"triggerField,omitempty" yaml:"triggerField,omitempty"`
	Operator     Operator    `json:"operator,omitempty" yaml:",omitempty"`
	Value        interface{} `json:"value,omitempty" yaml:",omitempty"`

	// DataType drives value coercion before comparison.  Empty
	// means "string".
	DataType DataType `json:"dataType,omitempty" yaml:"dataType,omitempty"`

	// LogicalOperator and Conditions turn this condition into a
	// nested group.
	LogicalOperator LogicalOperator `json:"logicalOperator,omitempty" yaml:"logicalOperator,omitempty"`
	Conditions      []*Condition    `json:"conditions,omitempty" yaml:",omitempty"`
}

// IsGroup reports whether this condition is a nested group rather
// than a leaf comparison.
func (c *Condition) IsGroup() bool {
	return len(c.Conditions) > 0
}

// Group returns the condition's nested conditions as a
// ConditionGroup.
func (c *Condition) Group() *ConditionGroup {
	return &ConditionGroup{
		LogicalOperator: c.LogicalOperator,
		Conditions:      c.Conditions,
	}
}

// AffectedElement names one element a rule acts on and what to do to
// it.
type AffectedElement struct {
	ElementID   string      `json:"elementId" yaml:"elementId"`
	ElementType ElementType `json:"elementType,omitempty" yaml:"elementType,omitempty"`
	Action      Action      `json:"action"`

	// ActionConfig carries action-specific parameters: the value
	// for setValue, the message for showMessage, the URL for
	// redirect, a validation rule for addValidation.
	ActionConfig map[string]interface{} `json:"actionConfig,omitempty" yaml:"actionConfig,omitempty"`
}

// LogicalOperator combines the results of a group's children.
type LogicalOperator string

const (
	And LogicalOperator = "and"
	Or  LogicalOperator = "or"

	// Not is true unless all children are true.  That is NAND,
	// not "none true".  Both halves of the original system agreed
	// on this reading, so it is preserved exactly; see
	// DESIGN.md.
	Not LogicalOperator = "not"
)

// Operator is a leaf comparison operator.
type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "notEquals"

	OpIn    Operator = "in"
	OpNotIn Operator = "notIn"

	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"

	OpGreaterThan        Operator = "greaterThan"
	OpLessThan           Operator = "lessThan"
	OpGreaterThanOrEqual Operator = "greaterThanOrEqual"
	OpLessThanOrEqual    Operator = "lessThanOrEqual"
	OpBetween            Operator = "between"

	OpBefore      Operator = "before"
	OpAfter       Operator = "after"
	OpDateBetween Operator = "dateBetween"
	OpIsToday     Operator = "isToday"
	OpIsInPast    Operator = "isInPast"
	OpIsInFuture  Operator = "isInFuture"

	OpIsTrue     Operator = "isTrue"
	OpIsFalse    Operator = "isFalse"
	OpIsEmpty    Operator = "isEmpty"
	OpIsNotEmpty Operator = "isNotEmpty"

	OpHasLength      Operator = "hasLength"
	OpMatchesPattern Operator = "matchesPattern"
	OpIsValidEmail   Operator = "isValidEmail"
	OpIsValidPhone   Operator = "isValidPhone"
)

// Operators is the set of known operators.
var Operators = map[Operator]bool{
	OpEquals:             true,
	OpNotEquals:          true,
	OpIn:                 true,
	OpNotIn:              true,
	OpContains:           true,
	OpStartsWith:         true,
	OpEndsWith:           true,
	OpGreaterThan:        true,
	OpLessThan:           true,
	OpGreaterThanOrEqual: true,
	OpLessThanOrEqual:    true,
	OpBetween:            true,
	OpBefore:             true,
	OpAfter:              true,
	OpDateBetween:        true,
	OpIsToday:            true,
	OpIsInPast:           true,
	OpIsInFuture:         true,
	OpIsTrue:             true,
	OpIsFalse:            true,
	OpIsEmpty:            true,
	OpIsNotEmpty:         true,
	OpHasLength:          true,
	OpMatchesPattern:     true,
	OpIsValidEmail:       true,
	OpIsValidPhone:       true,
}

// DataType drives coercion of both sides of a leaf comparison.
type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeBoolean DataType = "boolean"
	TypeDate    DataType = "date"
	TypeArray   DataType = "array"
	TypeObject  DataType = "object"
)

// Action is what a rule does to an affected element.
type Action string

const (
	ActShow Action = "show"
	ActHide Action = "hide"
	ActSkip Action = "skip"

	ActRequire      Action = "require"
	ActMakeOptional Action = "makeOptional"

	ActEnable  Action = "enable"
	ActDisable Action = "disable"

	ActSetValue   Action = "setValue"
	ActClearValue Action = "clearValue"

	ActAddValidation    Action = "addValidation"
	ActRemoveValidation Action = "removeValidation"

	ActRedirect    Action = "redirect"
	ActShowMessage Action = "showMessage"
)

// Actions is the set of known actions.
var Actions = map[Action]bool{
	ActShow:             true,
	ActHide:             true,
	ActSkip:             true,
	ActRequire:          true,
	ActMakeOptional:     true,
	ActEnable:           true,
	ActDisable:          true,
	ActSetValue:         true,
	ActClearValue:       true,
	ActAddValidation:    true,
	ActRemoveValidation: true,
	ActRedirect:         true,
	ActShowMessage:      true,
}

// ElementType says what kind of element an action targets.
type ElementType string

const (
	ElemField      ElementType = "field"
	ElemPage       ElementType = "page"
	ElemFieldGroup ElementType = "fieldGroup"
	ElemTask       ElementType = "task"
	ElemSection    ElementType = "section"
)

// ElementTypes is the set of known element types.
var ElementTypes = map[ElementType]bool{
	ElemField:      true,
	ElemPage:       true,
	ElemFieldGroup: true,
	ElemTask:       true,
	ElemSection:    true,
}

// References reports whether the rule's condition tree mentions the
// given field anywhere, including in nested groups.
func (r *Rule) References(fieldID string) bool {
	if r.ConditionGroup == nil {
		return false
	}
	for _, c := range r.ConditionGroup.Conditions {
		if c.References(fieldID) {
			return true
		}
	}
	return false
}

// References reports whether the condition (or any nested condition)
// mentions the given field.
func (c *Condition) References(fieldID string) bool {
	if c == nil {
		return false
	}
	if c.TriggerField == fieldID {
		return true
	}
	for _, child := range c.Conditions {
		if child.References(fieldID) {
			return true
		}
	}
	return false
}
