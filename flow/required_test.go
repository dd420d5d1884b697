package flow

import (
	"testing"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

func boolp(b bool) *bool { return &b }

func TestIsFieldRequired(t *testing.T) {
	tests := []struct {
		name     string
		required *bool
		policy   string
		want     bool
	}{
		{"explicit true wins over optional policy", boolp(true), "optional", true},
		{"explicit false wins over required policy", boolp(false), "required", false},
		{"unset defers to required policy", nil, "required", true},
		{"unset defers to optional policy", nil, "optional", false},
		{"unset with no policy is optional", nil, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &template.Field{ID: "f", Required: tc.required}
			tpl := &template.FormTemplate{ID: "t", DefaultFieldRequirementPolicy: tc.policy}
			if got := IsFieldRequired(f, tpl); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEffectiveRequired(t *testing.T) {
	f := &template.Field{ID: "f", Required: boolp(true)}
	tpl := &template.FormTemplate{ID: "t"}

	s := newState()
	if !EffectiveRequired(f, tpl, s) {
		t.Fatal("statically required field should be required")
	}

	// A hidden field is never required, whatever else says so.
	s.FieldVisibility["f"] = false
	s.FieldRequired["f"] = true
	if EffectiveRequired(f, tpl, s) {
		t.Fatal("hidden field reported required")
	}

	// A makeOptional action overrides the static flag.
	s = newState()
	s.FieldRequired["f"] = false
	if EffectiveRequired(f, tpl, s) {
		t.Fatal("makeOptional should win over the static flag")
	}

	// A require action overrides an optional field.
	opt := &template.Field{ID: "g"}
	s = newState()
	s.FieldRequired["g"] = true
	if !EffectiveRequired(opt, tpl, s) {
		t.Fatal("require action should win over the optional default")
	}
}

func TestMissingRequiredFields(t *testing.T) {
	tpl := &template.FormTemplate{
		ID:                            "t",
		DefaultFieldRequirementPolicy: "required",
		TaskGroups: []*template.TaskGroup{{
			ID: "g",
			Tasks: []*template.Task{{
				ID: "task",
				Pages: []*template.Page{{
					ID: "p",
					Fields: []*template.Field{
						{ID: "name"},
						{ID: "nickname", Required: boolp(false)},
						{ID: "secret"},
						{
							ID:    "email",
							Label: "Email address",
							ValidationRules: []*template.ValidationRule{
								{Type: "required", Message: "Enter your email address"},
							},
						},
					},
				}},
			}},
		}},
	}
	task := tpl.Task("task")

	hidden := func(id string) bool { return id == "secret" }
	data := conditional.FormData{"name": "Alice", "email": "  "}

	missing := MissingRequiredFields(task, tpl, data, hidden)
	if len(missing) != 1 || missing[0] != "email" {
		t.Fatalf("got %v, want [email]", missing)
	}

	msgs := MissingRequiredFieldsWithMessages(task, tpl, data, hidden)
	if msgs["email"] != "Enter your email address" {
		t.Fatalf("message: got %q", msgs["email"])
	}

	// No predicate: the hidden field counts as missing too.
	missing = MissingRequiredFields(task, tpl, data, nil)
	if len(missing) != 2 {
		t.Fatalf("got %v, want secret and email", missing)
	}
}

func TestRequiredMessageFallback(t *testing.T) {
	if got := requiredMessage(&template.Field{ID: "dob", Label: "Date of birth"}); got != "Date of birth is required" {
		t.Fatalf("got %q", got)
	}
	if got := requiredMessage(&template.Field{ID: "dob"}); got != "dob is required" {
		t.Fatalf("got %q", got)
	}
}
