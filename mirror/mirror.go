// Package mirror hosts the browser-side conditional-logic asset
// (formlogic.js) in-process using Goja.
//
// The asset is the one portable implementation of rule evaluation for
// the browser.  Re-running the same text server-side lets tests pin
// the browser's behavior to package conditional's, instead of hoping
// two hand-written evaluators stay in step.  The server remains
// authoritative: every submit is re-validated by the Go engine.
package mirror

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/conditional"
	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"

	"github.com/dop251/goja"
)

//go:embed formlogic.js
var source string

// Source returns the asset text, for serving to browsers.
func Source() string {
	return source
}

var (
	compileOnce sync.Once
	compiled    *goja.Program
	compileErr  error
)

// Mirror is one loaded instance of the asset.  A Mirror is safe for
// concurrent use; calls are serialized because a Goja runtime is
// single-threaded.
type Mirror struct {
	mu sync.Mutex
	vm *goja.Runtime

	evaluateCondition goja.Callable
	evaluateGroup     goja.Callable
	run               goja.Callable
}

// New loads the embedded asset into a fresh runtime.
func New() (*Mirror, error) {
	compileOnce.Do(func() {
		compiled, compileErr = goja.Compile("formlogic.js", source, true)
	})
	if compileErr != nil {
		return nil, compileErr
	}

	vm := goja.New()
	if _, err := vm.RunProgram(compiled); err != nil {
		return nil, err
	}

	v := vm.Get("FormLogic")
	if v == nil || goja.IsUndefined(v) {
		return nil, errors.New("formlogic.js did not define FormLogic")
	}
	api := v.ToObject(vm)

	m := &Mirror{vm: vm}
	for name, target := range map[string]*goja.Callable{
		"evaluateCondition": &m.evaluateCondition,
		"evaluateGroup":     &m.evaluateGroup,
		"run":               &m.run,
	} {
		fn, is := goja.AssertFunction(api.Get(name))
		if !is {
			return nil, fmt.Errorf("FormLogic.%s is not a function", name)
		}
		*target = fn
	}

	return m, nil
}

// EvaluateCondition runs the asset's condition evaluator.
func (m *Mirror) EvaluateCondition(c *template.Condition, data conditional.FormData) (bool, error) {
	v, err := m.call(m.evaluateCondition, c, map[string]interface{}(data))
	if err != nil {
		return false, err
	}
	return v.ToBoolean(), nil
}

// EvaluateGroup runs the asset's group evaluator.
func (m *Mirror) EvaluateGroup(g *template.ConditionGroup, data conditional.FormData) (bool, error) {
	v, err := m.call(m.evaluateGroup, g, map[string]interface{}(data))
	if err != nil {
		return false, err
	}
	return v.ToBoolean(), nil
}

// Run evaluates a rule set and returns the asset's folded state maps
// (fieldVisibility, fieldRequired, values, ...), exported as plain
// maps for comparison against package flow's fold.
func (m *Mirror) Run(rules []*template.Rule, data conditional.FormData) (map[string]interface{}, error) {
	v, err := m.call(m.run, rules, map[string]interface{}(data))
	if err != nil {
		return nil, err
	}
	x := v.Export()
	state, is := x.(map[string]interface{})
	if !is {
		return nil, fmt.Errorf("FormLogic.run returned %T, not an object", x)
	}
	return state, nil
}

func (m *Mirror) call(fn goja.Callable, args ...interface{}) (goja.Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vals := make([]goja.Value, 0, len(args))
	for _, a := range args {
		x, err := canonicalize(a)
		if err != nil {
			return nil, err
		}
		vals = append(vals, m.vm.ToValue(x))
	}
	return fn(goja.Undefined(), vals...)
}

// canonicalize converts Go structs to the plain JSON shapes the asset
// expects, via a marshal round trip.  The struct tags are the wire
// format, so this is exactly what the browser would receive.
func canonicalize(x interface{}) (interface{}, error) {
	if x == nil {
		return nil, nil
	}
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}
