package flow

import (
	"testing"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

func TestCurrentState(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		taskID string
		pageID string
		want   ViewState
	}{
		{"task list", "REF123", "", "", TaskList},
		{"form page", "REF123", "about-you", "name-page", FormPage},
		{"task summary", "REF123", "about-you", "summary", TaskSummary},
		{"preview", "REF123", "", "preview", ApplicationPreview},
		{"preview needs no task", "REF123", "about-you", "preview", FormPage},
		{"sub-flow page", "REF123", "orgs", "flow/signing/acme/declare", SubFlowPage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CurrentState(tc.ref, tc.taskID, tc.pageID); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSummaryState(t *testing.T) {
	plain := &template.Task{ID: "t"}
	multi := &template.Task{ID: "t", Summary: &template.TaskSummaryConfiguration{Mode: template.SummaryModeMultiFlow}}
	derived := &template.Task{ID: "t", Summary: &template.TaskSummaryConfiguration{Mode: template.SummaryModeDerivedFlow}}
	standard := &template.Task{ID: "t", Summary: &template.TaskSummaryConfiguration{Mode: template.SummaryModeStandard}}

	if got := SummaryState(plain); got != TaskSummary {
		t.Fatalf("plain: got %q", got)
	}
	if got := SummaryState(standard); got != TaskSummary {
		t.Fatalf("standard: got %q", got)
	}
	if got := SummaryState(multi); got != CollectionFlowSummary {
		t.Fatalf("multi: got %q", got)
	}
	if got := SummaryState(derived); got != DerivedCollectionFlowSummary {
		t.Fatalf("derived: got %q", got)
	}
	if got := SummaryState(nil); got != TaskSummary {
		t.Fatalf("nil: got %q", got)
	}
}

func TestSubFlowPageIDRoundTrip(t *testing.T) {
	id := SubFlowPageID("signing", "acme", "declare")
	if id != "flow/signing/acme/declare" {
		t.Fatalf("composed: %q", id)
	}

	flowID, instanceID, rest, ok := ParseSubFlowPageID(id)
	if !ok || flowID != "signing" || instanceID != "acme" || rest != "declare" {
		t.Fatalf("parsed: %q %q %q %v", flowID, instanceID, rest, ok)
	}

	if !IsInSubFlow("signing", id) {
		t.Fatal("IsInSubFlow missed")
	}
	if IsInSubFlow("other", id) {
		t.Fatal("IsInSubFlow matched the wrong flow")
	}
}

func TestParseSubFlowPageIDRejects(t *testing.T) {
	bad := []string{
		"summary",
		"flow/",
		"flow/signing",
		"flow/signing/acme",
		"flow//acme/declare",
		"flow/signing//declare",
		"flow/signing/acme/",
	}
	for _, id := range bad {
		if _, _, _, ok := ParseSubFlowPageID(id); ok {
			t.Fatalf("%q should not parse", id)
		}
	}

	// A multi-segment trailing page id keeps its slashes.
	_, _, rest, ok := ParseSubFlowPageID("flow/signing/acme/declare/step2")
	if !ok || rest != "declare/step2" {
		t.Fatalf("got %q %v", rest, ok)
	}
}
