package logic

// DisplayMessage is one fired display_message rule.
type DisplayMessage struct {
	RuleID  string `json:"rule_id"`
	Message string `json:"message"`
}

// FollowUp is one fired ask_questions rule.
type FollowUp struct {
	RuleID      string      `json:"rule_id"`
	SubQuestion SubQuestion `json:"sub_question"`
}

// ResolvedEffects is everything a submitted answer triggers. Effects
// of different trigger kinds are independent and combine freely; for
// the evidence requirement the first firing rule in stored order wins.
// DisplayMessages and FollowUps keep every firing rule in stored
// order; any pick-one policy lives with the caller.
type ResolvedEffects struct {
	RequireEvidence bool
	EvidenceRuleID  string
	DisplayMessages []DisplayMessage
	FollowUps       []FollowUp
}

// Resolve runs the answer through the question's rules in stored
// order. Pure in-memory computation, no persistence.
func Resolve(rules RuleSet, answer any) ResolvedEffects {
	var out ResolvedEffects
	for _, r := range rules {
		if !Evaluate(answer, r) {
			continue
		}
		switch r.Trigger {
		case TriggerRequireEvidence:
			if !out.RequireEvidence {
				out.RequireEvidence = true
				out.EvidenceRuleID = r.ID
			}
		case TriggerDisplayMessage:
			out.DisplayMessages = append(out.DisplayMessages, DisplayMessage{RuleID: r.ID, Message: r.Message})
		case TriggerAskQuestions:
			if r.SubQuestion != nil {
				out.FollowUps = append(out.FollowUps, FollowUp{RuleID: r.ID, SubQuestion: *r.SubQuestion})
			}
		}
	}
	return out
}

// FirstDisplayMessage returns the tie-break winner among fired
// display_message rules.
func (e ResolvedEffects) FirstDisplayMessage() (DisplayMessage, bool) {
	if len(e.DisplayMessages) == 0 {
		return DisplayMessage{}, false
	}
	return e.DisplayMessages[0], true
}
