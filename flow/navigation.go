package flow

import (
	"context"
	"net/url"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// URL construction is deterministic string building over fixed path
// templates.  No I/O here.

func seg(s string) string {
	return url.PathEscape(s)
}

// TaskListURL is the application's task list.
func TaskListURL(referenceNumber string) string {
	return "/applications/" + seg(referenceNumber)
}

// PageURL is a form page within a task.  The pageID may be a reserved
// sentinel ("summary") or a composed sub-flow page id.
func PageURL(referenceNumber, taskID, pageID string) string {
	return TaskListURL(referenceNumber) + "/" + seg(taskID) + "/" + pageID
}

// TaskSummaryURL is the task's summary view.
func TaskSummaryURL(referenceNumber, taskID string) string {
	return PageURL(referenceNumber, taskID, SummaryPageID)
}

// PreviewURL is the whole-application preview.
func PreviewURL(referenceNumber string) string {
	return TaskListURL(referenceNumber) + "/" + PreviewPageID
}

// CollectionFlowSummaryURL is the summary view of a collection-flow
// task.  Same summary sentinel; the state manager's mode check picks
// the view.
func CollectionFlowSummaryURL(referenceNumber, taskID string) string {
	return TaskSummaryURL(referenceNumber, taskID)
}

// SubFlowPageURL is one page of one sub-flow instance.
func SubFlowPageURL(referenceNumber, taskID, flowID, instanceID, pageID string) string {
	return PageURL(referenceNumber, taskID, SubFlowPrefix+seg(flowID)+"/"+seg(instanceID)+"/"+seg(pageID))
}

// StartSubFlowURL is the first page of a sub-flow instance.  Returns
// the task summary URL when the task has no sub-flow pages.
func StartSubFlowURL(referenceNumber string, task *template.Task, instanceID string) string {
	if task == nil || task.Summary == nil || len(task.Summary.Pages) == 0 {
		return TaskListURL(referenceNumber)
	}
	return SubFlowPageURL(referenceNumber, task.ID, task.Summary.FlowID, instanceID, task.Summary.Pages[0].ID)
}

// NextAfterSave decides where a successful page save sends the user.
//
// ReturnToSummaryPage (the default) sends them to the task's summary,
// whichever kind of summary the task uses, regardless of any further
// pages.  Otherwise they go to the next page in the task's order, or
// back to the task list from the last page.
func NextAfterSave(page *template.Page, task *template.Task, referenceNumber string) string {
	if page == nil || task == nil {
		return TaskListURL(referenceNumber)
	}

	if page.ReturnsToSummary() {
		switch SummaryState(task) {
		case CollectionFlowSummary, DerivedCollectionFlowSummary:
			return CollectionFlowSummaryURL(referenceNumber, task.ID)
		default:
			return TaskSummaryURL(referenceNumber, task.ID)
		}
	}

	for i, p := range task.Pages {
		if p.ID == page.ID && i+1 < len(task.Pages) {
			return PageURL(referenceNumber, task.ID, task.Pages[i+1].ID)
		}
	}
	return TaskListURL(referenceNumber)
}

// NextAfterSubFlowSave is NextAfterSave for a page inside a sub-flow
// instance: the next sub-flow page, or the flow summary after the
// last one.
func NextAfterSubFlowSave(task *template.Task, flowID, instanceID, pageID, referenceNumber string) string {
	if task == nil || task.Summary == nil {
		return TaskListURL(referenceNumber)
	}
	pages := task.Summary.Pages
	for i, p := range pages {
		if p.ID == pageID && i+1 < len(pages) {
			return SubFlowPageURL(referenceNumber, task.ID, flowID, instanceID, pages[i+1].ID)
		}
	}
	return CollectionFlowSummaryURL(referenceNumber, task.ID)
}

// BackLinkURL is the back link for a page: the previous page in the
// task's order, or the task list from the first page.
func BackLinkURL(page *template.Page, task *template.Task, referenceNumber string) string {
	if page == nil || task == nil {
		return TaskListURL(referenceNumber)
	}
	for i, p := range task.Pages {
		if p.ID == page.ID && i > 0 {
			return PageURL(referenceNumber, task.ID, task.Pages[i-1].ID)
		}
	}
	return TaskListURL(referenceNumber)
}

// CanNavigateToPage guards direct navigation: the page must exist in
// the task and must not be skipped in the current conditional state.
func CanNavigateToPage(ctx context.Context, o *Orchestrator, t *template.FormTemplate, task *template.Task, pageID string, data conditional.FormData) (bool, error) {
	if task == nil {
		return false, nil
	}
	page := task.Page(pageID)
	if page == nil {
		return false, nil
	}
	skip, err := o.ShouldSkipPage(ctx, t, page, data)
	if err != nil {
		return false, err
	}
	return !skip, nil
}
