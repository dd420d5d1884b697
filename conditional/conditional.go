// Package conditional evaluates conditional-logic rules against a
// snapshot of form data.
//
// Everything here is a pure function of its inputs: no hidden state,
// deterministic, safe to call repeatedly and from concurrent
// requests.  The engine never mutates the form data it is given.
//
// Rules are authored by template administrators and run inside live
// user-facing forms, so a malformed rule is an isolated failure: it
// is recorded in the result and the rest of the rule set still
// evaluates.
package conditional

// FormData is the accumulated answers for one application: a flat map
// from field id to value.  Values are strings, numbers, booleans,
// lists, or nested structures (for complex fields), exactly as they
// arrive from JSON.
type FormData map[string]interface{}

// IsEmpty reports whether a form-data value counts as empty: nil
// (including a missing key), a whitespace-only string, or an empty
// list or map.
func IsEmpty(x interface{}) bool {
	return isEmptyValue(x)
}

// Copy makes a shallow copy of the form data.
func (d FormData) Copy() FormData {
	acc := make(FormData, len(d))
	for k, v := range d {
		acc[k] = v
	}
	return acc
}
