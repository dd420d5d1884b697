// Package service exposes the form engine over HTTP.
//
// All rendering decisions are JSON: which view to show, the page's
// fields, the folded conditional state, and where to go next.  The
// design-system markup, authentication, and the remote applications
// API live elsewhere; the last is seen here only as the Submitter
// interface.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/flow"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/mirror"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/store"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// Submitter sends a completed application to the remote applications
// API.
type Submitter interface {
	Submit(ctx context.Context, referenceNumber string, data conditional.FormData) error
}

// Emitter publishes service events (saves, submissions) to whoever
// listens.  See MQTTEmitter.
type Emitter interface {
	Emit(kind string, event interface{})
}

// Service wires the stores and the orchestrator to HTTP.
type Service struct {
	Templates *store.TemplateCache
	Forms     store.FormStore

	Orchestrator *flow.Orchestrator

	// Submitter may be nil (submission disabled).
	Submitter Submitter

	// Emitter may be nil (no events published).
	Emitter Emitter

	Debug bool
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("service."+format, args...)
	}
}

func (s *Service) emit(kind string, event interface{}) {
	if s.Emitter != nil {
		s.Emitter.Emit(kind, event)
	}
}

// Mux returns the service's routes.
func (s *Service) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/formlogic.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte(mirror.Source()))
	})
	mux.HandleFunc("/live", s.Live)
	mux.HandleFunc("/applications/", s.Applications)
	return mux
}

// PageState is the GET response: everything a page render needs.
type PageState struct {
	View            flow.ViewState                 `json:"view"`
	ReferenceNumber string                         `json:"referenceNumber"`
	TemplateID      string                         `json:"templateId"`
	TaskID          string                         `json:"taskId,omitempty"`
	PageID          string                         `json:"pageId,omitempty"`
	Page            *template.Page                 `json:"page,omitempty"`
	State           *flow.State                    `json:"state,omitempty"`
	TaskStatuses    map[string]template.TaskStatus `json:"taskStatuses,omitempty"`
	Items           []*flow.DerivedItem            `json:"items,omitempty"`
	BackLink        string                         `json:"backLink,omitempty"`
	Data            conditional.FormData           `json:"data,omitempty"`
}

// SaveResult is the POST response.
type SaveResult struct {
	Saved  bool              `json:"saved"`
	Next   string            `json:"next,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Applications routes GET (render state) and POST (save) for
// /applications/{ref}[/{task}[/{page}]].
func (s *Service) Applications(w http.ResponseWriter, r *http.Request) {
	ref, taskID, pageID := parsePath(r.URL.Path)
	if ref == "" {
		http.NotFound(w, r)
		return
	}

	t, err := s.templateFor(r)
	if err != nil {
		respondErr(w, http.StatusNotFound, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, t, ref, taskID, pageID)
	case http.MethodPost:
		if taskID != "" && pageID == "" {
			http.NotFound(w, r)
			return
		}
		if taskID == "" && pageID == flow.PreviewPageID {
			s.submit(w, r, t, ref)
			return
		}
		s.save(w, r, t, ref, taskID, pageID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Service) render(w http.ResponseWriter, r *http.Request, t *template.FormTemplate, ref, taskID, pageID string) {
	ctx := r.Context()

	data := s.formData(ctx, ref)
	state, err := s.Orchestrator.ApplyConditionalLogic(ctx, t, data)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}

	resp := &PageState{
		View:            flow.CurrentState(ref, taskID, pageID),
		ReferenceNumber: ref,
		TemplateID:      t.ID,
		TaskID:          taskID,
		PageID:          pageID,
		State:           state,
		Data:            data,
	}

	task := t.Task(taskID)

	switch resp.View {
	case flow.TaskList:
		resp.TaskStatuses = flow.TaskStatuses(t, data, state)

	case flow.ApplicationPreview:
		// The preview shows everything; the folded state is
		// already in the response.

	case flow.TaskSummary:
		if task == nil {
			http.NotFound(w, r)
			return
		}
		resp.View = flow.SummaryState(task)
		if resp.View == flow.DerivedCollectionFlowSummary {
			resp.Items = flow.GenerateItemsFromSourceField(task.Summary.SourceField, data, task.Summary)
		}

	case flow.SubFlowPage:
		if task == nil {
			http.NotFound(w, r)
			return
		}
		flowID, _, rest, ok := flow.ParseSubFlowPageID(pageID)
		if !ok || task.Summary == nil || !flow.IsInSubFlow(flowID, pageID) {
			http.NotFound(w, r)
			return
		}
		resp.Page = task.Page(rest)
		resp.BackLink = flow.CollectionFlowSummaryURL(ref, taskID)
		if resp.Page == nil {
			http.NotFound(w, r)
			return
		}

	case flow.FormPage:
		if task == nil {
			http.NotFound(w, r)
			return
		}
		ok, err := flow.CanNavigateToPage(ctx, s.Orchestrator, t, task, pageID, data)
		if err != nil {
			respondErr(w, http.StatusInternalServerError, err)
			return
		}
		if !ok {
			// Land on the next reachable page instead.
			page, err := s.Orchestrator.ResolvePage(ctx, t, task, pageID, data)
			if err != nil || page == nil {
				http.NotFound(w, r)
				return
			}
			http.Redirect(w, r, flow.PageURL(ref, taskID, page.ID), http.StatusSeeOther)
			return
		}
		resp.Page = task.Page(pageID)
		resp.BackLink = flow.BackLinkURL(resp.Page, task, ref)
	}

	respondJSON(w, resp)
}

func (s *Service) save(w http.ResponseWriter, r *http.Request, t *template.FormTemplate, ref, taskID, pageID string) {
	ctx := r.Context()

	task := t.Task(taskID)
	if task == nil {
		http.NotFound(w, r)
		return
	}

	values, err := readValues(r)
	if err != nil {
		respondErr(w, http.StatusBadRequest, err)
		return
	}

	data := s.formData(ctx, ref)

	// Sub-flow saves are declaration writes, not field merges.
	if flowID, instanceID, rest, ok := flow.ParseSubFlowPageID(pageID); ok {
		if task.Summary == nil {
			http.NotFound(w, r)
			return
		}
		flow.SaveItemDeclaration(flowID, instanceID, values, data)
		if err := s.Forms.Put(ctx, ref, data); err != nil {
			respondErr(w, http.StatusInternalServerError, err)
			return
		}
		s.emit("declaration.saved", map[string]interface{}{
			"referenceNumber": ref, "flowId": flowID, "instanceId": instanceID,
		})
		respondJSON(w, &SaveResult{
			Saved: true,
			Next:  flow.NextAfterSubFlowSave(task, flowID, instanceID, rest, ref),
		})
		return
	}

	page := task.Page(pageID)
	if page == nil {
		http.NotFound(w, r)
		return
	}

	for k, v := range values {
		data[k] = v
	}

	state, err := s.Orchestrator.ApplyConditionalLogic(ctx, t, data)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}

	// Required-field validation for this page only.
	missing := map[string]string{}
	for _, f := range page.Fields {
		if !flow.EffectiveRequired(f, t, state) {
			continue
		}
		if conditional.IsEmpty(data[f.ID]) {
			missing[f.ID] = requiredMessageFor(f)
		}
	}
	if len(missing) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		respondJSON(w, &SaveResult{Saved: false, Errors: missing})
		return
	}

	state.ApplyValues(data)

	if err := s.Forms.Put(ctx, ref, data); err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}
	s.emit("page.saved", map[string]interface{}{
		"referenceNumber": ref, "taskId": taskID, "pageId": pageID,
	})

	next := flow.NextAfterSave(page, task, ref)
	if state.RedirectURL != "" {
		next = state.RedirectURL
	}
	respondJSON(w, &SaveResult{Saved: true, Next: next})
}

func (s *Service) submit(w http.ResponseWriter, r *http.Request, t *template.FormTemplate, ref string) {
	ctx := r.Context()

	if s.Submitter == nil {
		respondErr(w, http.StatusServiceUnavailable, errors.New("submission not configured"))
		return
	}

	data := s.formData(ctx, ref)
	state, err := s.Orchestrator.ApplyConditionalLogic(ctx, t, data)
	if err != nil {
		respondErr(w, http.StatusInternalServerError, err)
		return
	}

	// Every task must be complete before submission.
	hidden := func(id string) bool { return !state.FieldVisible(id) }
	missing := map[string]string{}
	for _, task := range t.Tasks() {
		for id, msg := range flow.MissingRequiredFieldsWithMessages(task, t, data, hidden) {
			missing[id] = msg
		}
	}
	if len(missing) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		respondJSON(w, &SaveResult{Saved: false, Errors: missing})
		return
	}

	if err := s.Submitter.Submit(ctx, ref, data); err != nil {
		respondErr(w, http.StatusBadGateway, err)
		return
	}
	s.emit("application.submitted", map[string]interface{}{"referenceNumber": ref})
	respondJSON(w, &SaveResult{Saved: true, Next: flow.TaskListURL(ref)})
}

func (s *Service) formData(ctx context.Context, ref string) conditional.FormData {
	data, err := s.Forms.Get(ctx, ref)
	if err != nil {
		if err != store.NotFound {
			log.Printf("service: form data for %s: %v", ref, err)
		}
		return conditional.FormData{}
	}
	return data
}

// templateFor picks the template from the request.  A ?template=id
// query wins; with exactly one template cached, that one is assumed.
func (s *Service) templateFor(r *http.Request) (*template.FormTemplate, error) {
	id := r.URL.Query().Get("template")
	if id == "" {
		ids := s.Templates.IDs()
		if len(ids) == 1 {
			id = ids[0]
		} else {
			return nil, errors.New("template not specified")
		}
	}
	return s.Templates.Get(r.Context(), id, r.URL.Query().Get("version"))
}

// parsePath splits /applications/{ref}[/{task}[/{page...}]].  The
// page part may itself contain slashes (sub-flow page ids).
func parsePath(p string) (ref, taskID, pageID string) {
	rest := strings.TrimPrefix(p, "/applications/")
	if rest == p {
		return "", "", ""
	}
	parts := strings.SplitN(rest, "/", 3)
	switch len(parts) {
	case 1:
		return parts[0], "", ""
	case 2:
		if parts[1] == flow.PreviewPageID {
			return parts[0], "", flow.PreviewPageID
		}
		return parts[0], parts[1], ""
	default:
		return parts[0], parts[1], parts[2]
	}
}

// readValues accepts either a JSON body {"values": {...}} or a
// classic form post with Data[field] names.
func readValues(r *http.Request) (map[string]interface{}, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			Values map[string]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, err
		}
		if body.Values == nil {
			body.Values = map[string]interface{}{}
		}
		return body.Values, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	values := map[string]interface{}{}
	for name, vs := range r.PostForm {
		id := name
		if strings.HasPrefix(name, "Data[") && strings.HasSuffix(name, "]") {
			id = name[len("Data[") : len(name)-1]
		}
		if len(vs) == 1 {
			values[id] = vs[0]
		} else {
			xs := make([]interface{}, len(vs))
			for i, v := range vs {
				xs[i] = v
			}
			values[id] = xs
		}
	}
	return values, nil
}

func requiredMessageFor(f *template.Field) string {
	for _, vr := range f.ValidationRules {
		if vr.Type == "required" && vr.Message != "" {
			return vr.Message
		}
	}
	name := f.Label
	if name == "" {
		name = f.ID
	}
	return name + " is required"
}

func respondJSON(w http.ResponseWriter, x interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(x); err != nil {
		log.Printf("service: respond: %v", err)
	}
}

func respondErr(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
