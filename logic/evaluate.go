package logic

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Evaluate reports whether answer satisfies the rule's condition. It
// is pure and total: an unanswered question, a coercion failure or an
// unknown condition evaluates to false instead of failing, so one
// malformed rule never aborts an evaluation pass.
func Evaluate(answer any, rule Rule) bool {
	if answer == nil {
		return false
	}

	if numericConditions[rule.Condition] {
		a, ok := toFloat(answer)
		if !ok {
			return false
		}
		b, ok := toFloat(rule.Value)
		if !ok {
			return false
		}
		if math.IsNaN(a) || math.IsNaN(b) {
			return false
		}
		switch rule.Condition {
		case CondEqual:
			return a == b
		case CondNotEqual:
			return a != b
		case CondGreater:
			return a > b
		case CondGreaterOrEqual:
			return a >= b
		case CondLess:
			return a < b
		case CondLessOrEqual:
			return a <= b
		}
	}

	switch rule.Condition {
	case CondIs:
		return looseEqual(answer, rule.Value)
	case CondIsNot:
		return !looseEqual(answer, rule.Value)
	case CondContains:
		a, ok1 := answer.(string)
		b, ok2 := rule.Value.(string)
		return ok1 && ok2 && strings.Contains(a, b)
	case CondNotContains:
		a, ok1 := answer.(string)
		b, ok2 := rule.Value.(string)
		return ok1 && ok2 && !strings.Contains(a, b)
	}
	return false
}

// looseEqual compares in the string/boolean domain: when both sides
// are boolean-like ("Yes"/"No"/true/false) they compare as booleans,
// otherwise as trimmed case-sensitive strings.
func looseEqual(a, b any) bool {
	ab, aok := toBool(a)
	bb, bok := toBool(b)
	if aok && bok {
		return ab == bb
	}
	return strings.TrimSpace(toString(a)) == strings.TrimSpace(toString(b))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.TrimSpace(x) {
		case "Yes", "true":
			return true, true
		case "No", "false":
			return false, true
		}
	}
	return false, false
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
