package flow

import (
	"strings"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// ViewState is which view should render for a (reference, task, page)
// triple.
type ViewState string

const (
	TaskList                     ViewState = "TaskList"
	FormPage                     ViewState = "FormPage"
	TaskSummary                  ViewState = "TaskSummary"
	ApplicationPreview           ViewState = "ApplicationPreview"
	CollectionFlowSummary        ViewState = "CollectionFlowSummary"
	DerivedCollectionFlowSummary ViewState = "DerivedCollectionFlowSummary"
	SubFlowPage                  ViewState = "SubFlowPage"
)

// Reserved page-id sentinels.
const (
	// SummaryPageID routes to the task's summary view.
	SummaryPageID = "summary"

	// PreviewPageID (with no task id) routes to the whole-application
	// preview.
	PreviewPageID = "preview"

	// SubFlowPrefix marks a page id as living inside a sub-flow:
	// "flow/<flowId>/<instanceId>/<pageId>".
	SubFlowPrefix = "flow/"
)

// CurrentState decides which view renders, purely from the three
// identifiers.  No store or session access.
func CurrentState(referenceNumber, taskID, pageID string) ViewState {
	switch {
	case pageID == "":
		return TaskList
	case taskID == "" && pageID == PreviewPageID:
		return ApplicationPreview
	case pageID == SummaryPageID:
		return TaskSummary
	case strings.HasPrefix(pageID, SubFlowPrefix):
		return SubFlowPage
	default:
		return FormPage
	}
}

// SummaryState disambiguates the summary view for a task: plain
// summary, collection-flow summary, or derived-collection-flow
// summary, per the task's summary mode.
func SummaryState(task *template.Task) ViewState {
	switch {
	case ShouldShowCollectionFlowSummary(task):
		return CollectionFlowSummary
	case ShouldShowDerivedCollectionFlowSummary(task):
		return DerivedCollectionFlowSummary
	default:
		return TaskSummary
	}
}

// ShouldShowCollectionFlowSummary reports whether the task renders as
// a repeatable multi-collection flow.
func ShouldShowCollectionFlowSummary(task *template.Task) bool {
	return task != nil && task.Summary != nil && task.Summary.Mode == template.SummaryModeMultiFlow
}

// ShouldShowDerivedCollectionFlowSummary reports whether the task
// renders as a derived-collection flow.
func ShouldShowDerivedCollectionFlowSummary(task *template.Task) bool {
	return task != nil && task.Summary != nil && task.Summary.Mode == template.SummaryModeDerivedFlow
}

// IsInSubFlow reports whether the page id sits inside the given
// sub-flow.
func IsInSubFlow(flowID, pageID string) bool {
	return strings.HasPrefix(pageID, SubFlowPrefix+flowID+"/")
}

// SubFlowPageID composes the reserved page-id form for a sub-flow
// page.
func SubFlowPageID(flowID, instanceID, pageID string) string {
	return SubFlowPrefix + flowID + "/" + instanceID + "/" + pageID
}

// ParseSubFlowPageID splits a sub-flow page id into its parts.
func ParseSubFlowPageID(pageID string) (flowID, instanceID, rest string, ok bool) {
	if !strings.HasPrefix(pageID, SubFlowPrefix) {
		return "", "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(pageID, SubFlowPrefix), "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
