package flow

import (
	"testing"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

func signingCfg() *template.TaskSummaryConfiguration {
	return &template.TaskSummaryConfiguration{
		Mode:             template.SummaryModeDerivedFlow,
		FlowID:           "signing",
		SourceField:      "organisations",
		ItemTitleBinding: "orgName",
	}
}

func TestGenerateItemsFromDecodedArray(t *testing.T) {
	data := conditional.FormData{
		"organisations": []interface{}{
			map[string]interface{}{"id": "org-1", "orgName": "Acme Health"},
			map[string]interface{}{"id": "org-2", "orgName": "Borough Council"},
		},
	}

	items := GenerateItemsFromSourceField("organisations", data, signingCfg())
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ID != "org-1" || items[0].DisplayName != "Acme Health" {
		t.Fatalf("first item: %+v", items[0])
	}
	if items[0].Status != DefaultItemStatus {
		t.Fatalf("status: got %q, want %q", items[0].Status, DefaultItemStatus)
	}
}

func TestGenerateItemsFromJSONString(t *testing.T) {
	data := conditional.FormData{
		"organisations": `[{"id":"org-1","orgName":"Acme Health"}]`,
	}
	items := GenerateItemsFromSourceField("organisations", data, signingCfg())
	if len(items) != 1 || items[0].ID != "org-1" {
		t.Fatalf("items: %+v", items)
	}
}

func TestGenerateItemsFromEscapedJSON(t *testing.T) {
	// What a textarea round trip does to the stored value.
	data := conditional.FormData{
		"organisations": `[{&quot;id&quot;:&quot;org-1&quot;,&quot;orgName&quot;:&quot;Acme &amp; Co&quot;}]`,
	}
	items := GenerateItemsFromSourceField("organisations", data, signingCfg())
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].DisplayName != "Acme & Co" {
		t.Fatalf("title: %q", items[0].DisplayName)
	}
}

func TestGenerateItemsDeduplicates(t *testing.T) {
	// A browser edit can duplicate an entry under variant keys and
	// casing. The resolved ids must stay unique, first occurrence
	// winning.
	data := conditional.FormData{
		"organisations": []interface{}{
			map[string]interface{}{"id": "org-1", "orgName": "Acme Health"},
			map[string]interface{}{"Data[id]": "ORG-1", "Data[orgName]": "Acme Health (edited)"},
			map[string]interface{}{"Data_id": "org-1", "Data_orgName": "Acme Health (again)"},
		},
	}

	items := GenerateItemsFromSourceField("organisations", data, signingCfg())
	if len(items) != 1 {
		ids := []string{}
		for _, it := range items {
			ids = append(ids, it.ID)
		}
		t.Fatalf("got %v, want one org-1", ids)
	}
	if items[0].DisplayName != "Acme Health" {
		t.Fatalf("first occurrence should win: %q", items[0].DisplayName)
	}
}

func TestGenerateItemsIdempotent(t *testing.T) {
	data := conditional.FormData{
		"organisations": `[{"id":"org-1","orgName":"Acme"},{"id":"org-2","orgName":"Borough"}]`,
	}
	cfg := signingCfg()

	first := GenerateItemsFromSourceField("organisations", data, cfg)
	second := GenerateItemsFromSourceField("organisations", data, cfg)
	if len(first) != len(second) {
		t.Fatalf("item count changed: %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Status != second[i].Status {
			t.Fatalf("item %d changed between runs", i)
		}
	}
}

func TestGenerateItemsNestedSourceType(t *testing.T) {
	cfg := signingCfg()
	cfg.SourceType = "organisation"

	data := conditional.FormData{
		"organisations": []interface{}{
			map[string]interface{}{
				"organisation": map[string]interface{}{
					"id": "org-1", "orgName": "Acme Health",
				},
			},
		},
	}

	items := GenerateItemsFromSourceField("organisations", data, cfg)
	if len(items) != 1 || items[0].DisplayName != "Acme Health" {
		t.Fatalf("items: %+v", items)
	}
}

func TestGenerateItemsTitleAsID(t *testing.T) {
	// No "id" key: the title doubles as the id.
	data := conditional.FormData{
		"organisations": []interface{}{
			map[string]interface{}{"orgName": "Acme Health"},
		},
	}
	items := GenerateItemsFromSourceField("organisations", data, signingCfg())
	if len(items) != 1 || items[0].ID != "Acme Health" {
		t.Fatalf("items: %+v", items)
	}
}

func TestGenerateItemsGarbage(t *testing.T) {
	for _, v := range []interface{}{nil, "", "not json", 42, "[broken"} {
		data := conditional.FormData{"organisations": v}
		if items := GenerateItemsFromSourceField("organisations", data, signingCfg()); len(items) != 0 {
			t.Fatalf("%v: got %d items, want 0", v, len(items))
		}
	}
}

func TestDeclarations(t *testing.T) {
	data := conditional.FormData{
		"organisations": `[{"id":"org-1","orgName":"Acme"},{"id":"org-2","orgName":"Borough"}]`,
	}

	SaveItemDeclaration("signing", "org-1", map[string]interface{}{
		"signedBy": "Alice",
	}, data)

	// Status defaults when the declaration doesn't carry one.
	decl := ItemDeclarationData("signing", "org-1", data)
	if decl == nil || decl["status"] != "Signed" || decl["signedBy"] != "Alice" {
		t.Fatalf("declaration: %+v", decl)
	}

	statuses := ItemStatuses("signing", data)
	if statuses["org-1"] != "Signed" {
		t.Fatalf("statuses: %+v", statuses)
	}
	if _, has := statuses["org-2"]; has {
		t.Fatal("org-2 has no declaration yet")
	}

	// The declared status flows into generated items.
	items := GenerateItemsFromSourceField("organisations", data, signingCfg())
	byID := map[string]string{}
	for _, it := range items {
		byID[it.ID] = it.Status
	}
	if byID["org-1"] != "Signed" || byID["org-2"] != DefaultItemStatus {
		t.Fatalf("statuses on items: %+v", byID)
	}
}

func TestDeclarationStatusCaseInsensitive(t *testing.T) {
	// The source record and the saved declaration disagree on the
	// id's casing; the item must still pick up the status.
	data := conditional.FormData{
		"organisations": `[{"id":"Org-1","orgName":"Acme"}]`,
	}
	SaveItemDeclaration("signing", "ORG-1", nil, data)

	items := GenerateItemsFromSourceField("organisations", data, signingCfg())
	if len(items) != 1 {
		t.Fatalf("items: %+v", items)
	}
	if items[0].Status != "Signed" {
		t.Fatalf("got status %q, want Signed", items[0].Status)
	}
}

func TestDeclarationsFromJSONString(t *testing.T) {
	// Declarations that round-tripped through storage as a string.
	data := conditional.FormData{
		"signing": `{"org-1":{"status":"Signed"}}`,
	}
	if got := ItemStatuses("signing", data)["org-1"]; got != "Signed" {
		t.Fatalf("got %q", got)
	}

	// Saving on top of the string form re-materializes the map.
	SaveItemDeclaration("signing", "org-2", nil, data)
	m, is := data["signing"].(map[string]interface{})
	if !is {
		t.Fatalf("store shape: %T", data["signing"])
	}
	if len(m) != 2 {
		t.Fatalf("got %d declarations, want 2", len(m))
	}
}

func TestMultiCollectionItems(t *testing.T) {
	data := conditional.FormData{}

	id := AddCollectionItem("contacts", map[string]interface{}{"name": "Alice"}, data)
	if id == "" {
		t.Fatal("no instance id")
	}
	AddCollectionItem("contacts", map[string]interface{}{"id": "fixed", "name": "Bob"}, data)

	items := CollectionItems("contacts", data)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	UpdateCollectionItem("contacts", "fixed", map[string]interface{}{"name": "Robert"}, data)
	items = CollectionItems("contacts", data)
	if items[1]["name"] != "Robert" || items[1]["id"] != "fixed" {
		t.Fatalf("updated item: %+v", items[1])
	}

	// Unknown id: no change.
	UpdateCollectionItem("contacts", "nope", map[string]interface{}{"name": "X"}, data)
	if len(CollectionItems("contacts", data)) != 2 {
		t.Fatal("update of unknown id changed the list")
	}

	DeleteCollectionItem("contacts", id, data)
	items = CollectionItems("contacts", data)
	if len(items) != 1 || items[0]["id"] != "fixed" {
		t.Fatalf("after delete: %+v", items)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"orgName", "orgname"},
		{"Data[orgName]", "orgname"},
		{"Data_orgName", "orgname"},
		{"data_orgName", "orgname"},
		{"  OrgName  ", "orgname"},
		{"plain", "plain"},
	}
	for _, tc := range tests {
		if got := normalizeKey(tc.in); got != tc.want {
			t.Fatalf("%q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}
