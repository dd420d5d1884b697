package conditional

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/DFE-Digital/local-send-reform-plans-web-sub001/template"
)

var (
	// Now is called for the date operators (isToday, isInPast,
	// isInFuture).  Swap it out in tests.
	Now = time.Now

	// LogUnknownOperators controls whether an unknown operator is
	// reported via the standard logger.  An unknown operator
	// always evaluates to false and never fails the rule.
	LogUnknownOperators = true

	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,18}[0-9]$`)
)

// EvaluateCondition evaluates a single condition (leaf or nested
// group) against the form data.  Never panics; a condition that
// cannot be evaluated is false.
func EvaluateCondition(c *template.Condition, data FormData) bool {
	ok, err := evalCondition(c, data)
	if err != nil {
		log.Printf("conditional: condition on %q: %v", c.TriggerField, err)
		return false
	}
	return ok
}

// EvaluateConditionGroup evaluates a boolean tree of conditions
// against the form data.  Never panics; a group that cannot be
// evaluated is false.
func EvaluateConditionGroup(g *template.ConditionGroup, data FormData) bool {
	ok, err := evalGroup(g, data)
	if err != nil {
		log.Printf("conditional: group: %v", err)
		return false
	}
	return ok
}

func evalGroup(g *template.ConditionGroup, data FormData) (bool, error) {
	if g == nil {
		return false, nil
	}

	results := make([]bool, 0, len(g.Conditions))
	for _, c := range g.Conditions {
		ok, err := evalCondition(c, data)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}

	switch g.LogicalOperator {
	case template.And, "":
		for _, ok := range results {
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case template.Or:
		for _, ok := range results {
			if ok {
				return true, nil
			}
		}
		return false, nil
	case template.Not:
		// "not" is true unless all children are true (NAND).
		// Both the original server and client evaluators agreed
		// on this reading, so it is preserved exactly.
		for _, ok := range results {
			if !ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown logical operator %q", g.LogicalOperator)
	}
}

func evalCondition(c *template.Condition, data FormData) (bool, error) {
	if c == nil {
		return false, nil
	}
	if c.IsGroup() {
		return evalGroup(c.Group(), data)
	}
	return evalLeaf(c, data)
}

func evalLeaf(c *template.Condition, data FormData) (bool, error) {
	// A missing value is just empty.  Never an error.
	actual := data[c.TriggerField]
	expected := c.Value

	dt := c.DataType
	if dt == "" {
		dt = template.TypeString
	}

	switch c.Operator {

	case template.OpEquals:
		return equals(actual, expected, dt), nil
	case template.OpNotEquals:
		return !equals(actual, expected, dt), nil

	case template.OpIn:
		return within(actual, expected), nil
	case template.OpNotIn:
		return !within(actual, expected), nil

	case template.OpContains:
		return strings.Contains(fold(actual), fold(expected)), nil
	case template.OpStartsWith:
		return strings.HasPrefix(fold(actual), fold(expected)), nil
	case template.OpEndsWith:
		return strings.HasSuffix(fold(actual), fold(expected)), nil

	case template.OpGreaterThan:
		return ordered(actual, expected, dt, func(cmp int) bool { return cmp > 0 }), nil
	case template.OpLessThan:
		return ordered(actual, expected, dt, func(cmp int) bool { return cmp < 0 }), nil
	case template.OpGreaterThanOrEqual:
		return ordered(actual, expected, dt, func(cmp int) bool { return cmp >= 0 }), nil
	case template.OpLessThanOrEqual:
		return ordered(actual, expected, dt, func(cmp int) bool { return cmp <= 0 }), nil
	case template.OpBetween:
		return between(actual, expected, dt), nil

	case template.OpBefore:
		a, aok := toTime(actual)
		b, bok := toTime(expected)
		return aok && bok && a.Before(b), nil
	case template.OpAfter:
		a, aok := toTime(actual)
		b, bok := toTime(expected)
		return aok && bok && a.After(b), nil
	case template.OpDateBetween:
		return between(actual, expected, template.TypeDate), nil
	case template.OpIsToday:
		a, ok := toTime(actual)
		return ok && sameDay(a, Now()), nil
	case template.OpIsInPast:
		a, ok := toTime(actual)
		return ok && a.Before(Now()), nil
	case template.OpIsInFuture:
		a, ok := toTime(actual)
		return ok && a.After(Now()), nil

	case template.OpIsTrue:
		return truthy(actual), nil
	case template.OpIsFalse:
		return !truthy(actual), nil
	case template.OpIsEmpty:
		return isEmptyValue(actual), nil
	case template.OpIsNotEmpty:
		return !isEmptyValue(actual), nil

	case template.OpHasLength:
		return hasLength(actual, expected, dt), nil
	case template.OpMatchesPattern:
		re, err := regexp.Compile(stringify(expected))
		if err != nil {
			return false, fmt.Errorf("bad pattern %q: %v", stringify(expected), err)
		}
		return re.MatchString(stringify(actual)), nil
	case template.OpIsValidEmail:
		return emailPattern.MatchString(strings.TrimSpace(stringify(actual))), nil
	case template.OpIsValidPhone:
		return phonePattern.MatchString(strings.TrimSpace(stringify(actual))), nil

	default:
		if LogUnknownOperators {
			log.Printf("conditional: unknown operator %q on field %q", c.Operator, c.TriggerField)
		}
		return false, nil
	}
}

// fold stringifies and lowercases for the case-insensitive string
// operators.
func fold(x interface{}) string {
	return strings.ToLower(stringify(x))
}

func equals(actual, expected interface{}, dt template.DataType) bool {
	switch dt {
	case template.TypeNumber:
		a, aok := toNumber(actual)
		b, bok := toNumber(expected)
		return aok && bok && a == b
	case template.TypeBoolean:
		return truthy(actual) == truthy(expected)
	default:
		return strings.EqualFold(stringify(actual), stringify(expected))
	}
}

// within reports membership of the actual value in the expected list.
// When the actual value is itself a list (checkbox groups), any
// element in the expected list counts.
func within(actual, expected interface{}) bool {
	members := toList(expected)
	var candidates []string
	switch actual.(type) {
	case []interface{}, []string:
		candidates = toList(actual)
	default:
		candidates = []string{stringify(actual)}
	}
	for _, c := range candidates {
		for _, m := range members {
			if strings.EqualFold(c, m) {
				return true
			}
		}
	}
	return false
}

func compare(actual, expected interface{}, dt template.DataType) (int, bool) {
	switch dt {
	case template.TypeNumber:
		a, aok := toNumber(actual)
		b, bok := toNumber(expected)
		if !aok || !bok {
			return 0, false
		}
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		default:
			return 0, true
		}
	case template.TypeDate:
		a, aok := toTime(actual)
		b, bok := toTime(expected)
		if !aok || !bok {
			return 0, false
		}
		switch {
		case a.Before(b):
			return -1, true
		case a.After(b):
			return 1, true
		default:
			return 0, true
		}
	default:
		return strings.Compare(stringify(actual), stringify(expected)), true
	}
}

func ordered(actual, expected interface{}, dt template.DataType, accept func(int) bool) bool {
	cmp, ok := compare(actual, expected, dt)
	return ok && accept(cmp)
}

func between(actual, expected interface{}, dt template.DataType) bool {
	bounds := toList(expected)
	if len(bounds) != 2 {
		return false
	}
	lo, lok := compare(actual, bounds[0], dt)
	hi, hok := compare(actual, bounds[1], dt)
	return lok && hok && lo >= 0 && hi <= 0
}

func hasLength(actual, expected interface{}, dt template.DataType) bool {
	var n int
	if dt == template.TypeArray {
		n = len(toList(actual))
	} else if isEmptyValue(actual) {
		n = 0
	} else {
		n = len(stringify(actual))
	}

	switch exp := expected.(type) {
	case []interface{}:
		bounds := toList(exp)
		if len(bounds) != 2 {
			return false
		}
		lo, lok := toNumber(bounds[0])
		hi, hok := toNumber(bounds[1])
		return lok && hok && float64(n) >= lo && float64(n) <= hi
	default:
		want, ok := toNumber(expected)
		return ok && float64(n) == want
	}
}
