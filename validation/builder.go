package validation

import (
	"errors"
	"fmt"
)

// Builder assembles a RuleSet through chained calls, decoupling rule
// authorship from evaluation. Builder calls never fail on their own; all
// validation happens in Build.
type Builder struct {
	rs      RuleSet
	allowed map[string]bool
	errs    []error
}

// NewBuilder starts a rule set requiring at least minImages evidence photos
// and the given unconditionally required fields.
func NewBuilder(minImages int, baseFields ...string) *Builder {
	b := &Builder{
		rs: RuleSet{
			minImages:  minImages,
			baseFields: append([]string(nil), baseFields...),
		},
	}
	if minImages < 0 {
		b.errs = append(b.errs, fmt.Errorf("minimum image count must be non-negative, got %d", minImages))
	}
	return b
}

// Fields declares the closed set of field names the form knows about. Once
// set, Build rejects any rule referencing a field outside the set, so a typo
// in a rule is a build error rather than a silent no-op.
func (b *Builder) Fields(names ...string) *Builder {
	b.allowed = make(map[string]bool, len(names))
	for _, n := range names {
		b.allowed[n] = true
	}
	return b
}

// RequireWhen adds a conditional-requirement rule: when the record's field
// strictly equals value, every field in required must be present. Rules
// accumulate in call order and are combined with logical AND.
func (b *Builder) RequireWhen(field string, value any, required ...string) *Builder {
	b.rs.conditional = append(b.rs.conditional, ConditionalRule{
		Field:    field,
		Value:    value,
		Required: append([]string(nil), required...),
	})
	return b
}

// RequireText adds a string-presence rule: when the record's field strictly
// equals value, target must be a string that is non-empty after trimming.
func (b *Builder) RequireText(field string, value any, target string) *Builder {
	b.rs.stringRules = append(b.rs.stringRules, StringRule{
		Field:  field,
		Value:  value,
		Target: target,
	})
	return b
}

// RequireTextUnless is RequireText with the condition negated: target is
// required exactly when the record's field does not equal value.
func (b *Builder) RequireTextUnless(field string, value any, target string) *Builder {
	b.rs.stringRules = append(b.rs.stringRules, StringRule{
		Field:  field,
		Value:  value,
		Target: target,
		Negate: true,
	})
	return b
}

// Custom sets the single custom predicate, evaluated last over the full
// record. A second call overwrites the first; the slot is deliberately not a
// list.
func (b *Builder) Custom(pred func(Record) bool) *Builder {
	b.rs.custom = pred
	return b
}

// Build finalizes the rule set. It fails when the minimum image count is
// negative or, if Fields was called, when any rule references an unknown
// field.
func (b *Builder) Build() (*RuleSet, error) {
	errs := append([]error(nil), b.errs...)
	if b.allowed != nil {
		check := func(context, name string) {
			if !b.allowed[name] {
				errs = append(errs, fmt.Errorf("%s references unknown field %q", context, name))
			}
		}
		for _, f := range b.rs.baseFields {
			check("base field", f)
		}
		for _, r := range b.rs.conditional {
			check("conditional rule", r.Field)
			for _, f := range r.Required {
				check("conditional rule", f)
			}
		}
		for _, r := range b.rs.stringRules {
			check("string rule", r.Field)
			check("string rule", r.Target)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	rs := b.rs
	return &rs, nil
}

// MustBuild is Build for statically declared form rule sets; it panics on a
// build error.
func MustBuild(b *Builder) *RuleSet {
	rs, err := b.Build()
	if err != nil {
		panic(err)
	}
	return rs
}
