package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/flow"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/store"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

func testTemplate() *template.FormTemplate {
	t, err := template.Parse([]byte(`{
	  "templateId": "pets",
	  "taskGroups": [
	    {
	      "id": "g",
	      "tasks": [
	        {
	          "id": "about-pets",
	          "pages": [
	            {"id": "have-pets", "returnToSummaryPage": false,
	             "fields": [{"id": "hasPets", "required": true}]},
	            {"id": "pet-details", "returnToSummaryPage": false,
	             "fields": [{"id": "petName"}]},
	            {"id": "done", "returnToSummaryPage": false,
	             "fields": [{"id": "confirm"}]}
	          ]
	        },
	        {
	          "id": "orgs",
	          "taskSummary": {
	            "mode": "derivedCollectionFlow",
	            "flowId": "signing",
	            "sourceField": "organisations",
	            "itemTitleBinding": "orgName",
	            "pages": [{"id": "declare", "fields": [{"id": "signedBy"}]}]
	          }
	        }
	      ]
	    }
	  ],
	  "conditionalLogic": [
	    {
	      "id": "skip-details",
	      "conditionGroup": {
	        "conditions": [
	          {"triggerField": "hasPets", "operator": "equals", "value": "no"}
	        ]
	      },
	      "affectedElements": [
	        {"elementId": "pet-details", "elementType": "page", "action": "skip"}
	      ]
	    }
	  ]
	}`))
	if err != nil {
		panic(err)
	}
	return t
}

type recordingSubmitter struct {
	refs []string
	err  error
}

func (r *recordingSubmitter) Submit(ctx context.Context, ref string, data conditional.FormData) error {
	if r.err != nil {
		return r.err
	}
	r.refs = append(r.refs, ref)
	return nil
}

type recordingEmitter struct {
	kinds []string
}

func (r *recordingEmitter) Emit(kind string, event interface{}) {
	r.kinds = append(r.kinds, kind)
}

func testService(t *testing.T) (*Service, *recordingSubmitter, *recordingEmitter) {
	t.Helper()
	cache := store.NewTemplateCache(nil)
	if err := cache.Put(context.Background(), testTemplate()); err != nil {
		t.Fatal(err)
	}
	sub := &recordingSubmitter{}
	em := &recordingEmitter{}
	return &Service{
		Templates:    cache,
		Forms:        store.NewMem(),
		Orchestrator: &flow.Orchestrator{},
		Submitter:    sub,
		Emitter:      em,
	}, sub, em
}

func get(t *testing.T, s *Service, path string) (*httptest.ResponseRecorder, *PageState) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	s.Mux().ServeHTTP(w, req)
	var ps PageState
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &ps); err != nil {
			t.Fatalf("bad body %q: %v", w.Body.String(), err)
		}
	}
	return w, &ps
}

func postForm(t *testing.T, s *Service, path string, form url.Values) (*httptest.ResponseRecorder, *SaveResult) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Mux().ServeHTTP(w, req)
	var sr SaveResult
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		json.Unmarshal(w.Body.Bytes(), &sr)
	}
	return w, &sr
}

func TestTaskListView(t *testing.T) {
	s, _, _ := testService(t)

	w, ps := get(t, s, "/applications/REF1")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if ps.View != flow.TaskList {
		t.Fatalf("view: %q", ps.View)
	}
	if ps.TaskStatuses["about-pets"] != template.TaskNotStarted {
		t.Fatalf("statuses: %v", ps.TaskStatuses)
	}
}

func TestFormPageView(t *testing.T) {
	s, _, _ := testService(t)

	w, ps := get(t, s, "/applications/REF1/about-pets/have-pets")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if ps.View != flow.FormPage || ps.Page == nil || ps.Page.ID != "have-pets" {
		t.Fatalf("got %q page %v", ps.View, ps.Page)
	}
	if ps.BackLink != "/applications/REF1" {
		t.Fatalf("back link: %q", ps.BackLink)
	}
}

func TestSkippedPageRedirects(t *testing.T) {
	s, _, _ := testService(t)
	s.Forms.Put(context.Background(), "REF1", conditional.FormData{"hasPets": "no"})

	w, _ := get(t, s, "/applications/REF1/about-pets/pet-details")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status %d, want redirect", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/applications/REF1/about-pets/done" {
		t.Fatalf("location: %q", loc)
	}
}

func TestSaveAdvances(t *testing.T) {
	s, _, em := testService(t)

	w, sr := postForm(t, s, "/applications/REF1/about-pets/have-pets",
		url.Values{"Data[hasPets]": {"yes"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !sr.Saved || sr.Next != "/applications/REF1/about-pets/pet-details" {
		t.Fatalf("result: %+v", sr)
	}

	data, err := s.Forms.Get(context.Background(), "REF1")
	if err != nil {
		t.Fatal(err)
	}
	if data["hasPets"] != "yes" {
		t.Fatalf("stored: %v", data)
	}
	if len(em.kinds) != 1 || em.kinds[0] != "page.saved" {
		t.Fatalf("events: %v", em.kinds)
	}
}

func TestSaveMissingRequired(t *testing.T) {
	s, _, _ := testService(t)

	w, sr := postForm(t, s, "/applications/REF1/about-pets/have-pets",
		url.Values{"Data[hasPets]": {"  "}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
	if sr.Saved || sr.Errors["hasPets"] == "" {
		t.Fatalf("result: %+v", sr)
	}

	// Nothing persisted.
	if _, err := s.Forms.Get(context.Background(), "REF1"); !errors.Is(err, store.NotFound) {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestSaveJSONBody(t *testing.T) {
	s, _, _ := testService(t)

	body := `{"values": {"hasPets": "no"}}`
	req := httptest.NewRequest("POST", "/applications/REF1/about-pets/have-pets", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Mux().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var sr SaveResult
	json.Unmarshal(w.Body.Bytes(), &sr)
	// Next is the next page in declaration order; landing on it
	// while skipped redirects (see TestSkippedPageRedirects).
	if sr.Next != "/applications/REF1/about-pets/pet-details" {
		t.Fatalf("next: %q", sr.Next)
	}
}

func TestDerivedSummaryView(t *testing.T) {
	s, _, _ := testService(t)
	s.Forms.Put(context.Background(), "REF1", conditional.FormData{
		"organisations": `[{"id":"org-1","orgName":"Acme"}]`,
	})

	w, ps := get(t, s, "/applications/REF1/orgs/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if ps.View != flow.DerivedCollectionFlowSummary {
		t.Fatalf("view: %q", ps.View)
	}
	if len(ps.Items) != 1 || ps.Items[0].ID != "org-1" || ps.Items[0].Status != flow.DefaultItemStatus {
		t.Fatalf("items: %+v", ps.Items)
	}
}

func TestSubFlowSaveDeclaration(t *testing.T) {
	s, _, em := testService(t)
	s.Forms.Put(context.Background(), "REF1", conditional.FormData{
		"organisations": `[{"id":"org-1","orgName":"Acme"}]`,
	})

	w, sr := postForm(t, s, "/applications/REF1/orgs/flow/signing/org-1/declare",
		url.Values{"Data[signedBy]": {"Alice"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !sr.Saved || sr.Next != "/applications/REF1/orgs/summary" {
		t.Fatalf("result: %+v", sr)
	}

	data, _ := s.Forms.Get(context.Background(), "REF1")
	if flow.ItemStatuses("signing", data)["org-1"] != "Signed" {
		t.Fatalf("statuses: %v", flow.ItemStatuses("signing", data))
	}
	if len(em.kinds) != 1 || em.kinds[0] != "declaration.saved" {
		t.Fatalf("events: %v", em.kinds)
	}

	// And the summary now shows the item as signed.
	_, ps := get(t, s, "/applications/REF1/orgs/summary")
	if ps.Items[0].Status != "Signed" {
		t.Fatalf("item status: %q", ps.Items[0].Status)
	}
}

func TestSubmit(t *testing.T) {
	s, sub, em := testService(t)

	// Submission with the required field missing: 400.
	w, sr := postForm(t, s, "/applications/REF1/preview", url.Values{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
	if sr.Errors["hasPets"] == "" {
		t.Fatalf("errors: %+v", sr.Errors)
	}
	if len(sub.refs) != 0 {
		t.Fatal("incomplete application was submitted")
	}

	// Complete it and submit.
	s.Forms.Put(context.Background(), "REF1", conditional.FormData{"hasPets": "no"})
	w, sr = postForm(t, s, "/applications/REF1/preview", url.Values{})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !sr.Saved || len(sub.refs) != 1 || sub.refs[0] != "REF1" {
		t.Fatalf("result: %+v refs: %v", sr, sub.refs)
	}
	found := false
	for _, k := range em.kinds {
		if k == "application.submitted" {
			found = true
		}
	}
	if !found {
		t.Fatalf("events: %v", em.kinds)
	}
}

func TestSubmitterUnset(t *testing.T) {
	s, _, _ := testService(t)
	s.Submitter = nil

	w, _ := postForm(t, s, "/applications/REF1/preview", url.Values{})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", w.Code)
	}
}

func TestAssetServed(t *testing.T) {
	s, _, _ := testService(t)

	req := httptest.NewRequest("GET", "/assets/formlogic.js", nil)
	w := httptest.NewRecorder()
	s.Mux().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "FormLogic") {
		t.Fatal("asset body looks wrong")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/javascript" {
		t.Fatalf("content type: %q", ct)
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path string
		ref  string
		task string
		page string
	}{
		{"/applications/REF1", "REF1", "", ""},
		{"/applications/REF1/about-pets", "REF1", "about-pets", ""},
		{"/applications/REF1/about-pets/have-pets", "REF1", "about-pets", "have-pets"},
		{"/applications/REF1/about-pets/summary", "REF1", "about-pets", "summary"},
		{"/applications/REF1/preview", "REF1", "", "preview"},
		{"/applications/REF1/orgs/flow/signing/org-1/declare", "REF1", "orgs", "flow/signing/org-1/declare"},
		{"/somewhere/else", "", "", ""},
	}

	for _, tc := range tests {
		ref, task, page := parsePath(tc.path)
		if ref != tc.ref || task != tc.task || page != tc.page {
			t.Fatalf("%s: got (%q,%q,%q), want (%q,%q,%q)",
				tc.path, ref, task, page, tc.ref, tc.task, tc.page)
		}
	}
}

func TestTemplateSelection(t *testing.T) {
	s, _, _ := testService(t)

	// A second template makes the default ambiguous.
	s.Templates.Put(context.Background(), &template.FormTemplate{ID: "other"})

	w, _ := get(t, s, "/applications/REF1")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404 without ?template=", w.Code)
	}

	w, ps := get(t, s, "/applications/REF1?template=pets")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if ps.TemplateID != "pets" {
		t.Fatalf("template: %q", ps.TemplateID)
	}
}
