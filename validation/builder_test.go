package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderRejectsNegativeMinimum(t *testing.T) {
	_, err := NewBuilder(-1).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestBuilderZeroMinimumIsValid(t *testing.T) {
	rs, err := NewBuilder(0).Build()
	require.NoError(t, err)
	assert.Equal(t, 0, rs.MinImages())
}

func TestBuilderClosedFieldEnumeration(t *testing.T) {
	testCases := []struct {
		name    string
		builder *Builder
		wantErr string
	}{
		{
			name: "all fields known",
			builder: NewBuilder(1, "status").
				Fields("status", "holdReason", "remarks").
				RequireText("status", "Hold", "holdReason").
				RequireTextUnless("status", "Positive", "remarks"),
		},
		{
			name:    "typo in base field",
			builder: NewBuilder(0, "staus").Fields("status"),
			wantErr: `"staus"`,
		},
		{
			name: "typo in conditional rule target",
			builder: NewBuilder(0).
				Fields("status", "holdReason").
				RequireWhen("status", "Hold", "holdReson"),
			wantErr: `"holdReson"`,
		},
		{
			name: "typo in string rule condition field",
			builder: NewBuilder(0).
				Fields("status", "remarks").
				RequireText("sttus", "Hold", "remarks"),
			wantErr: `"sttus"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rs, err := tc.builder.Build()
			if tc.wantErr == "" {
				require.NoError(t, err)
				require.NotNil(t, rs)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestBuilderWithoutEnumerationAcceptsAnyField(t *testing.T) {
	rs, err := NewBuilder(0, "whatever").
		RequireWhen("free", "form", "fields").
		Build()
	require.NoError(t, err)
	assert.NotNil(t, rs)
}

func TestBuilderCustomPredicateSecondCallOverwrites(t *testing.T) {
	rs := mustRules(t, NewBuilder(0).
		Custom(func(Record) bool { return false }).
		Custom(func(Record) bool { return true }))

	// Only the second predicate is kept; the slot does not compose.
	assert.True(t, Evaluate(Record{}, 0, rs))
}

func TestBuilderRuleOrderDoesNotChangeOutcome(t *testing.T) {
	forward := mustRules(t, NewBuilder(0).
		RequireWhen("a", "on", "aDetail").
		RequireWhen("b", "on", "bDetail"))
	reversed := mustRules(t, NewBuilder(0).
		RequireWhen("b", "on", "bDetail").
		RequireWhen("a", "on", "aDetail"))

	records := []Record{
		{"a": "on", "b": "on"},
		{"a": "on", "aDetail": "x", "b": "on", "bDetail": "y"},
		{"a": "off", "b": "on", "bDetail": "y"},
	}
	for _, rec := range records {
		assert.Equal(t, Evaluate(rec, 0, forward), Evaluate(rec, 0, reversed))
	}
}

func TestBuilderResultIsIsolatedFromBuilder(t *testing.T) {
	b := NewBuilder(1, "status")
	rs := mustRules(t, b)

	// Further builder calls must not leak into the finalized rule set.
	b.RequireText("status", "Hold", "holdReason")
	assert.True(t, Evaluate(Record{"status": "Hold"}, 1, rs))
}

func TestMustBuildPanicsOnInvalidRules(t *testing.T) {
	assert.Panics(t, func() {
		MustBuild(NewBuilder(-5))
	})
}
