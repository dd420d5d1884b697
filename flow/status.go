package flow

import (
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// TaskStatusFor computes a task's completion state from the form
// data and the current conditional state.
//
// A standard task is NotStarted until any of its visible fields has a
// value, Completed once no required field is missing, and InProgress
// in between.  A derived-collection task completes when every
// generated item has moved off the default status.
func TaskStatusFor(task *template.Task, t *template.FormTemplate, data conditional.FormData, s *State) template.TaskStatus {
	if task == nil {
		return template.TaskNotStarted
	}

	if ShouldShowDerivedCollectionFlowSummary(task) {
		return derivedTaskStatus(task, data)
	}

	hidden := func(fieldID string) bool {
		return s != nil && !s.FieldVisible(fieldID)
	}

	answered := 0
	for _, p := range task.Pages {
		for _, f := range p.Fields {
			if hidden(f.ID) {
				continue
			}
			if !conditional.IsEmpty(data[f.ID]) {
				answered++
			}
		}
	}
	if answered == 0 {
		return template.TaskNotStarted
	}
	if len(MissingRequiredFields(task, t, data, hidden)) == 0 {
		return template.TaskCompleted
	}
	return template.TaskInProgress
}

func derivedTaskStatus(task *template.Task, data conditional.FormData) template.TaskStatus {
	items := GenerateItemsFromSourceField(task.Summary.SourceField, data, task.Summary)
	if len(items) == 0 {
		return template.TaskNotStarted
	}
	done := 0
	for _, it := range items {
		if it.Status != DefaultItemStatus {
			done++
		}
	}
	switch done {
	case 0:
		return template.TaskNotStarted
	case len(items):
		return template.TaskCompleted
	default:
		return template.TaskInProgress
	}
}

// TaskStatuses computes the status of every task in the template, for
// the task-list view.
func TaskStatuses(t *template.FormTemplate, data conditional.FormData, s *State) map[string]template.TaskStatus {
	acc := map[string]template.TaskStatus{}
	for _, task := range t.Tasks() {
		acc[task.ID] = TaskStatusFor(task, t, data, s)
	}
	return acc
}
