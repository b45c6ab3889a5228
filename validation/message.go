package validation

import "fmt"

// User-facing submission messages shown by the mobile app.
const (
	MsgNoRecord       = "Report data is not available."
	MsgMissingFields  = "Please fill all required fields to submit."
	msgMinImagesOneOf = "Please capture at least %d photos to submit."
)

// Message classifies a failed submission into one of exactly four outcomes,
// in priority order: missing record, too few photos, missing required fields,
// or pass (empty string). It deliberately does not name the failing field;
// callers wanting that use Check. The classifier recomputes record presence
// and the image count comparison itself and must stay in priority agreement
// with Evaluate.
func Message(rec Record, imageCount int, rs *RuleSet) string {
	if rec == nil {
		return MsgNoRecord
	}
	if imageCount < rs.minImages {
		return fmt.Sprintf(msgMinImagesOneOf, rs.minImages)
	}
	if !Evaluate(rec, imageCount, rs) {
		return MsgMissingFields
	}
	return ""
}
