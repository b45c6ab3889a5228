package validation

import "strings"

// Evaluate reports whether a report record with the given evidence image count
// satisfies the rule set. It is pure and deterministic: a nil record fails,
// an insufficient image count fails, and otherwise every base, conditional and
// string rule must hold, followed by the custom predicate if one is set.
// Evaluation stops at the first failing check.
func Evaluate(rec Record, imageCount int, rs *RuleSet) bool {
	if rec == nil {
		return false
	}
	if imageCount < rs.minImages {
		return false
	}
	for _, f := range rs.baseFields {
		if !present(rec[f]) {
			return false
		}
	}
	for _, r := range rs.conditional {
		if rec[r.Field] != r.Value {
			continue
		}
		for _, f := range r.Required {
			if !present(rec[f]) {
				return false
			}
		}
	}
	for _, r := range rs.stringRules {
		if !stringRuleHolds(rec, r) {
			return false
		}
	}
	if rs.custom != nil && !rs.custom(rec) {
		return false
	}
	return true
}

func stringRuleHolds(rec Record, r StringRule) bool {
	active := rec[r.Field] == r.Value
	if r.Negate {
		active = !active
	}
	if !active {
		return true
	}
	s, ok := rec[r.Target].(string)
	return ok && strings.TrimSpace(s) != ""
}

// Check lists the fields failing the rule set for rec, letting a client
// highlight them individually. Unlike Evaluate it does not short-circuit; the
// two agree on pass/fail for every record the custom predicate accepts.
// Image count and the custom predicate are not field failures and are not
// reported here.
func Check(rec Record, rs *RuleSet) []string {
	if rec == nil {
		return rs.BaseFields()
	}
	var failing []string
	seen := make(map[string]bool)
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			failing = append(failing, f)
		}
	}
	for _, f := range rs.baseFields {
		if !present(rec[f]) {
			add(f)
		}
	}
	for _, r := range rs.conditional {
		if rec[r.Field] != r.Value {
			continue
		}
		for _, f := range r.Required {
			if !present(rec[f]) {
				add(f)
			}
		}
	}
	for _, r := range rs.stringRules {
		if !stringRuleHolds(rec, r) {
			add(r.Target)
		}
	}
	return failing
}
