package rules

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"submission-processor/internal/models"
)

// Evaluate decides whether a submission matches a rule's conditions. Pure
// function: no I/O, no clock, same inputs always yield the same verdict.
//
// Field conditions are ANDed against the form data via dotted-path lookup;
// user conditions require exact equality against the user info. Unknown
// operators and failed numeric coercions evaluate false rather than erroring.
func Evaluate(conditions models.RuleConditions, formData, userInfo map[string]any) bool {
	for path, cond := range conditions.FieldConditions {
		value, present := Resolve(formData, path)
		if !matchField(cond.Operator, value, present, cond.Value) {
			return false
		}
	}
	for key, expected := range conditions.UserConditions {
		actual, ok := userInfo[key]
		if !ok || !valuesEqual(actual, expected) {
			return false
		}
	}
	return true
}

func matchField(op models.ConditionOperator, value any, present bool, expected any) bool {
	switch op {
	case models.OperatorEquals:
		return valuesEqual(value, expected)
	case models.OperatorNotEquals:
		return !valuesEqual(value, expected)
	case models.OperatorContains:
		return strings.Contains(stringify(value), stringify(expected))
	case models.OperatorNotContains:
		return !strings.Contains(stringify(value), stringify(expected))
	case models.OperatorStartsWith:
		return strings.HasPrefix(stringify(value), stringify(expected))
	case models.OperatorEndsWith:
		return strings.HasSuffix(stringify(value), stringify(expected))
	case models.OperatorGreaterThan:
		a, aok := toNumber(value)
		b, bok := toNumber(expected)
		return aok && bok && a > b
	case models.OperatorLessThan:
		a, aok := toNumber(value)
		b, bok := toNumber(expected)
		return aok && bok && a < b
	case models.OperatorIsEmpty:
		return isEmpty(value, present)
	case models.OperatorIsNotEmpty:
		return !isEmpty(value, present)
	default:
		// Unrecognized operators fail closed.
		return false
	}
}

// valuesEqual is strict equality over decoded JSON values. Native numeric
// types compare by value (BSON may hand back int32/int64 where JSON gives
// float64), but a number never equals its string form.
func valuesEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	if _, ok := asFloat(b); ok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// asFloat widens native numeric types only; it never parses strings.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toNumber is the coercing variant used by the ordering operators. A string
// that does not parse as a number yields ok=false, which makes greater_than
// and less_than evaluate false.
func toNumber(v any) (float64, bool) {
	if f, ok := asFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// isEmpty treats absent paths, nulls, empty strings, zero and false as empty.
func isEmpty(v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	default:
		if f, ok := asFloat(v); ok {
			return f == 0
		}
		return false
	}
}
