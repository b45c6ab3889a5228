package validation

// Record is a flat report record as filled in by a field agent on the mobile
// app: field name to value. A field is considered present when its value is
// neither nil nor an empty string. The evaluator only reads records.
type Record map[string]any

// ConditionalRule activates additional required fields when the record's
// condition field strictly equals the condition value.
type ConditionalRule struct {
	Field    string
	Value    any
	Required []string
}

// StringRule requires the target field to be non-empty text (after trimming
// whitespace) when the condition holds. With Negate set the condition is
// inverted, giving "required unless" semantics.
type StringRule struct {
	Field  string
	Value  any
	Target string
	Negate bool
}

// RuleSet is the validation configuration for one form variant. It is built
// once via Builder and read-only afterwards; evaluation never mutates it.
type RuleSet struct {
	minImages   int
	baseFields  []string
	conditional []ConditionalRule
	stringRules []StringRule
	custom      func(Record) bool
}

// MinImages returns the minimum number of evidence photos required before the
// form may be submitted.
func (rs *RuleSet) MinImages() int {
	return rs.minImages
}

// BaseFields returns the unconditionally required fields.
func (rs *RuleSet) BaseFields() []string {
	out := make([]string, len(rs.baseFields))
	copy(out, rs.baseFields)
	return out
}

func present(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}
