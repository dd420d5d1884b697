package flow

import (
	"encoding/json"
	"html"
	"math/rand"
	"strings"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

// DefaultItemStatus is the status of a derived-collection item before
// anyone has completed its sub-flow.
const DefaultItemStatus = "Not signed yet"

// DerivedItem is one generated sub-flow instance of a
// derived-collection task.  Built transiently from the source field's
// value; never stored on its own.
type DerivedItem struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`

	// Prefilled carries item data to seed the sub-flow's fields.
	Prefilled map[string]interface{} `json:"prefilled,omitempty"`

	// Source is the raw decoded record the item came from.
	Source map[string]interface{} `json:"source,omitempty"`
}

// GenerateItemsFromSourceField builds one item per entry of the
// source field's value.
//
// The raw value may be a decoded array, a JSON array string, or an
// HTML-entity-encoded JSON array string (the result of round-tripping
// through a form textarea), so decoding unescapes first.  Editing a
// previously added entry in the browser can duplicate it under
// differently cased or bracket-suffixed keys ("Data[org]" vs
// "Data_org"); entries are deduplicated so the output never contains
// two items with the same resolved id.
//
// A value that can't be decoded yields an empty list, not an error.
// A dead page is worse than an empty one.
func GenerateItemsFromSourceField(sourceFieldID string, data conditional.FormData, cfg *template.TaskSummaryConfiguration) []*DerivedItem {
	if cfg == nil {
		return nil
	}

	records := decodeSourceValue(data[sourceFieldID])
	if len(records) == 0 {
		return nil
	}

	// Statuses are keyed the same way the dedup below keys items,
	// so a declaration saved under a differently cased id still
	// reaches its item.
	statuses := map[string]string{}
	if cfg.FlowID != "" {
		for id, s := range ItemStatuses(cfg.FlowID, data) {
			statuses[strings.ToLower(id)] = s
		}
	}

	var (
		acc  []*DerivedItem
		seen = map[string]bool{}
	)
	for _, rec := range records {
		body := itemBody(rec, cfg.SourceType)
		id, title := resolveItem(body, cfg.ItemTitleBinding)
		if id == "" {
			continue
		}
		key := strings.ToLower(id)
		if seen[key] {
			continue
		}
		seen[key] = true

		status := statuses[key]
		if status == "" {
			status = DefaultItemStatus
		}
		acc = append(acc, &DerivedItem{
			ID:          id,
			DisplayName: title,
			Status:      status,
			Prefilled:   normalizeKeys(body),
			Source:      rec,
		})
	}
	return acc
}

// decodeSourceValue turns the source field's raw value into a list of
// records.  Unescape-then-parse for values that went through a form
// round trip.
func decodeSourceValue(x interface{}) []map[string]interface{} {
	switch v := x.(type) {
	case nil:
		return nil
	case []interface{}:
		return recordsOf(v)
	case []map[string]interface{}:
		return v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		var ys []interface{}
		if err := json.Unmarshal([]byte(s), &ys); err != nil {
			s = html.UnescapeString(s)
			if err = json.Unmarshal([]byte(s), &ys); err != nil {
				return nil
			}
		}
		return recordsOf(ys)
	default:
		return nil
	}
}

func recordsOf(ys []interface{}) []map[string]interface{} {
	acc := make([]map[string]interface{}, 0, len(ys))
	for _, y := range ys {
		if m, is := y.(map[string]interface{}); is {
			acc = append(acc, m)
		}
	}
	return acc
}

// itemBody descends into the record when the configuration names a
// nested source type ("organisation" for records shaped
// {"organisation": {...}}).
func itemBody(rec map[string]interface{}, sourceType string) map[string]interface{} {
	if sourceType == "" {
		return rec
	}
	want := normalizeKey(sourceType)
	for k, v := range rec {
		if normalizeKey(k) != want {
			continue
		}
		if m, is := v.(map[string]interface{}); is {
			return m
		}
	}
	return rec
}

// resolveItem extracts the item's id and display name.  The title
// binding is a dotted path; the id is the record's own "id" when it
// has one, else the title itself.
func resolveItem(body map[string]interface{}, titleBinding string) (id, title string) {
	title = stringAt(body, titleBinding)
	id = stringAt(body, "id")
	if id == "" {
		id = title
	}
	if title == "" {
		title = id
	}
	return id, title
}

// stringAt follows a dotted path through normalized keys.
func stringAt(m map[string]interface{}, path string) string {
	if path == "" {
		return ""
	}
	var cur interface{} = m
	for _, part := range strings.Split(path, ".") {
		mm, is := cur.(map[string]interface{})
		if !is {
			return ""
		}
		want := normalizeKey(part)
		var found interface{}
		for k, v := range mm {
			if normalizeKey(k) == want {
				found = v
				break
			}
		}
		if found == nil {
			return ""
		}
		cur = found
	}
	switch v := cur.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64, bool:
		bs, _ := json.Marshal(v)
		return string(bs)
	default:
		return ""
	}
}

// normalizeKey collapses the key variants a browser edit introduces:
// "Data[orgName]", "Data_orgName", and "orgname" all resolve to the
// same key.
func normalizeKey(k string) string {
	k = strings.TrimSpace(k)
	if i := strings.Index(k, "["); i >= 0 && strings.HasSuffix(k, "]") {
		k = k[i+1 : len(k)-1]
	}
	k = strings.TrimPrefix(k, "Data_")
	k = strings.TrimPrefix(k, "data_")
	return strings.ToLower(k)
}

func normalizeKeys(m map[string]interface{}) map[string]interface{} {
	acc := make(map[string]interface{}, len(m))
	for k, v := range m {
		acc[normalizeKey(k)] = v
	}
	return acc
}

// Declarations for derived-collection items are stored inside the
// owning field's value as a map from item id to the declaration
// record.  The status lives under "status" in each record.

// ItemStatuses returns the status of every declared item of the
// field.
func ItemStatuses(fieldID string, data conditional.FormData) map[string]string {
	acc := map[string]string{}
	for id, rec := range declarations(fieldID, data) {
		if m, is := rec.(map[string]interface{}); is {
			if s, is := m["status"].(string); is && s != "" {
				acc[id] = s
			}
		}
	}
	return acc
}

// ItemDeclarationData returns one item's declaration record, or nil.
func ItemDeclarationData(fieldID, itemID string, data conditional.FormData) map[string]interface{} {
	if m, is := declarations(fieldID, data)[itemID].(map[string]interface{}); is {
		return m
	}
	return nil
}

// SaveItemDeclaration writes one item's declaration record into the
// caller's form data.  The only mutating operation in this file; the
// caller persists the map afterward.
func SaveItemDeclaration(fieldID, itemID string, decl map[string]interface{}, data conditional.FormData) {
	if decl == nil {
		decl = map[string]interface{}{}
	}
	if _, has := decl["status"]; !has {
		decl["status"] = "Signed"
	}
	all := declarations(fieldID, data)
	all[itemID] = decl
	data[fieldID] = all
}

func declarations(fieldID string, data conditional.FormData) map[string]interface{} {
	switch v := data[fieldID].(type) {
	case map[string]interface{}:
		return v
	case string:
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(v), &m); err == nil {
			return m
		}
	}
	return map[string]interface{}{}
}

// Multi-collection flows: user-authored repeatable items, stored as a
// list under the owning field.

// CollectionItems returns the items of a multi-collection field.
func CollectionItems(fieldID string, data conditional.FormData) []map[string]interface{} {
	return decodeSourceValue(data[fieldID])
}

// AddCollectionItem appends an item and returns its instance id.
// Writes into the caller's form data.
func AddCollectionItem(fieldID string, item map[string]interface{}, data conditional.FormData) string {
	if item == nil {
		item = map[string]interface{}{}
	}
	id, _ := item["id"].(string)
	if id == "" {
		id = gensym(12)
		item["id"] = id
	}
	data[fieldID] = append(toGeneric(CollectionItems(fieldID, data)), item)
	return id
}

// UpdateCollectionItem replaces the item with the given id.  Unknown
// ids are ignored.
func UpdateCollectionItem(fieldID, itemID string, item map[string]interface{}, data conditional.FormData) {
	items := CollectionItems(fieldID, data)
	for i, it := range items {
		if id, _ := it["id"].(string); id == itemID {
			if item == nil {
				item = map[string]interface{}{}
			}
			item["id"] = itemID
			items[i] = item
			break
		}
	}
	data[fieldID] = toGeneric(items)
}

// DeleteCollectionItem removes the item with the given id.
func DeleteCollectionItem(fieldID, itemID string, data conditional.FormData) {
	items := CollectionItems(fieldID, data)
	acc := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		if id, _ := it["id"].(string); id == itemID {
			continue
		}
		acc = append(acc, it)
	}
	data[fieldID] = toGeneric(acc)
}

func toGeneric(items []map[string]interface{}) []interface{} {
	acc := make([]interface{}, len(items))
	for i, it := range items {
		acc[i] = it
	}
	return acc
}

var alphabet = []byte("abcdefghijklmnopqrstuvwxyz0123456789")

// gensym makes a random instance id.
func gensym(n int) string {
	bs := make([]byte, n)
	for i := range bs {
		bs[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(bs)
}
