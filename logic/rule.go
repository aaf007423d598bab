package logic

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Trigger kinds a rule can fire.
const (
	TriggerRequireEvidence = "require_evidence"
	TriggerAskQuestions    = "ask_questions"
	TriggerDisplayMessage  = "display_message"
)

// Supported conditions. The first six compare in the numeric domain,
// "is"/"is not" in the string/boolean domain, the last two are
// substring checks on text answers.
const (
	CondEqual          = "equal to"
	CondNotEqual       = "not equal to"
	CondGreater        = "greater than"
	CondGreaterOrEqual = "greater than or equal to"
	CondLess           = "less than"
	CondLessOrEqual    = "less than or equal to"
	CondIs             = "is"
	CondIsNot          = "is not"
	CondContains       = "contains"
	CondNotContains    = "not contains"
)

var numericConditions = map[string]bool{
	CondEqual:          true,
	CondNotEqual:       true,
	CondGreater:        true,
	CondGreaterOrEqual: true,
	CondLess:           true,
	CondLessOrEqual:    true,
}

var knownConditions = map[string]bool{
	CondEqual:          true,
	CondNotEqual:       true,
	CondGreater:        true,
	CondGreaterOrEqual: true,
	CondLess:           true,
	CondLessOrEqual:    true,
	CondIs:             true,
	CondIsNot:          true,
	CondContains:       true,
	CondNotContains:    true,
}

// SubQuestion is the follow-up question spec carried by an
// ask_questions rule.
type SubQuestion struct {
	Text         string   `json:"text"`
	ResponseType string   `json:"responseType"`
	Options      []string `json:"options,omitempty"`
}

// Rule is one conditional logic rule attached to a question. This is
// the canonical flat schema: id, condition, value, trigger, message,
// subQuestion, with no nesting under any trigger-config object.
type Rule struct {
	ID          string       `json:"id"`
	Condition   string       `json:"condition"`
	Value       any          `json:"value"`
	Trigger     string       `json:"trigger"`
	Message     string       `json:"message,omitempty"`
	SubQuestion *SubQuestion `json:"subQuestion,omitempty"`
}

// RuleSet is a question's ordered rule list. Stored order is both
// evaluation order and tie-break order.
type RuleSet []Rule

// RuleError reports which rule of a set is malformed and why.
type RuleError struct {
	RuleID string
	Field  string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q: %s: %s", e.RuleID, e.Field, e.Reason)
}

// Validate checks the set against the owning question's response type:
// triggers must be known and carry their required payload, numeric
// conditions need a numeric rule value on a numeric question, and
// Yes/No equality values must be boolean-like. Called at template
// write time so a malformed rule never reaches evaluation.
func (rs RuleSet) Validate(responseType string) error {
	seen := make(map[string]bool, len(rs))
	for _, r := range rs {
		if r.ID != "" {
			if seen[r.ID] {
				return &RuleError{RuleID: r.ID, Field: "id", Reason: "duplicate rule id"}
			}
			seen[r.ID] = true
		}
		if !knownConditions[r.Condition] {
			return &RuleError{RuleID: r.ID, Field: "condition", Reason: fmt.Sprintf("unknown condition %q", r.Condition)}
		}
		switch r.Trigger {
		case TriggerRequireEvidence:
		case TriggerDisplayMessage:
			if r.Message == "" {
				return &RuleError{RuleID: r.ID, Field: "message", Reason: "display_message rules need a message"}
			}
		case TriggerAskQuestions:
			if r.SubQuestion == nil || r.SubQuestion.Text == "" {
				return &RuleError{RuleID: r.ID, Field: "subQuestion", Reason: "ask_questions rules need a subQuestion"}
			}
		default:
			return &RuleError{RuleID: r.ID, Field: "trigger", Reason: fmt.Sprintf("unknown trigger %q", r.Trigger)}
		}
		if numericConditions[r.Condition] {
			if !isNumericType(responseType) {
				return &RuleError{RuleID: r.ID, Field: "condition", Reason: fmt.Sprintf("%q needs a numeric question, got %q", r.Condition, responseType)}
			}
			if _, ok := toFloat(r.Value); !ok {
				return &RuleError{RuleID: r.ID, Field: "value", Reason: "not coercible to a number"}
			}
		}
		if responseType == "Yes/No" && (r.Condition == CondIs || r.Condition == CondIsNot) {
			if _, ok := toBool(r.Value); !ok {
				return &RuleError{RuleID: r.ID, Field: "value", Reason: "Yes/No rules need a Yes/No value"}
			}
		}
	}
	return nil
}

// Find returns the rule with the given id.
func (rs RuleSet) Find(id string) (Rule, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

func isNumericType(responseType string) bool {
	return responseType == "Number" || responseType == "Slider"
}

// Value / Scan let GORM persist the set as a single JSON column while
// the rest of the code only ever sees typed rules.

func (rs RuleSet) Value() (driver.Value, error) {
	if len(rs) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(rs)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (rs *RuleSet) Scan(src any) error {
	if src == nil {
		*rs = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RuleSet", src)
	}
	if len(b) == 0 {
		*rs = nil
		return nil
	}
	return json.Unmarshal(b, rs)
}
