package template

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsccast/yaml"
)

// ErrNoTemplateID is returned when a parsed template has no id.
var ErrNoTemplateID = errors.New("template has no templateId")

// Parse reads a template from its JSON wire form and applies
// defaults.
func Parse(js []byte) (*FormTemplate, error) {
	var t FormTemplate
	if err := json.Unmarshal(js, &t); err != nil {
		return nil, err
	}
	return finish(&t)
}

// ParseYAML reads a template from a YAML authoring file and applies
// defaults.  The wire format is JSON; YAML exists for humans.
func ParseYAML(bs []byte) (*FormTemplate, error) {
	var t FormTemplate
	if err := yaml.Unmarshal(bs, &t); err != nil {
		return nil, err
	}
	return finish(&t)
}

// Load reads a template from a file, choosing the syntax by
// extension.
func Load(filename string) (*FormTemplate, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ParseYAML(bs)
	default:
		return Parse(bs)
	}
}

// LoadDir loads every template file in a directory (non-recursive).
func LoadDir(dir string) ([]*FormTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var acc []*FormTemplate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		t, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.New(e.Name() + ": " + err.Error())
		}
		acc = append(acc, t)
	}
	return acc, nil
}

func finish(t *FormTemplate) (*FormTemplate, error) {
	if t.ID == "" {
		return nil, ErrNoTemplateID
	}
	t.normalize()
	return t, nil
}

// normalize fills in the defaults the wire format allows authors to
// omit.
func (t *FormTemplate) normalize() {
	if t.DefaultFieldRequirementPolicy == "" {
		t.DefaultFieldRequirementPolicy = "optional"
	}
	for _, r := range t.ConditionalLogic {
		if r.Priority == 0 {
			r.Priority = DefaultRulePriority
		}
		if r.Debounce == 0 {
			r.Debounce = DefaultDebounce
		}
		if len(r.ExecuteOn) == 0 {
			r.ExecuteOn = []string{"change", "load"}
		}
		if r.ConditionGroup != nil {
			normalizeGroup(r.ConditionGroup)
		}
	}
}

func normalizeGroup(g *ConditionGroup) {
	if g.LogicalOperator == "" {
		g.LogicalOperator = And
	}
	for _, c := range g.Conditions {
		normalizeCondition(c)
	}
}

func normalizeCondition(c *Condition) {
	if c == nil {
		return
	}
	if c.IsGroup() {
		if c.LogicalOperator == "" {
			c.LogicalOperator = And
		}
		for _, child := range c.Conditions {
			normalizeCondition(child)
		}
		return
	}
	if c.DataType == "" {
		c.DataType = TypeString
	}
}
