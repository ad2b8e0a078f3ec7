package sanitize

// Schema v1 allow-list. A field absent from this list can never appear in a
// SanitizedContext: the projection below is built field by field from this
// schema, there is no generic copy that could smuggle extra data through.
const SchemaV1 = "v1"

// FieldAllowList enumerates the JSON fields a SanitizedContext may carry,
// keyed by schema version. Property tests assert serialized contexts never
// step outside this set.
var FieldAllowList = map[string][]string{
	SchemaV1: {
		"schema_version",
		"action",
		"reason_category",
		"policy_citations",
		"risk_band",
		"signal_quality",
	},
}

// Risk bands are the only form in which a fused score may leave the decision
// boundary. Raw scores stay inside.
const (
	BandLow      = "low"
	BandElevated = "elevated"
	BandHigh     = "high"
)

// Signal quality describes how complete the signal picture behind a decision
// was, without naming sources or scores.
const (
	QualityComplete = "complete"
	QualityPartial  = "partial"
	QualityAbsent   = "absent"
)

// GenericReason is used whenever a reason code has no approved category or
// the input record was malformed.
const GenericReason = "unspecified"

// reasonCategories maps internal reason codes to the coarse, non-identifying
// categories approved for external exposure. Default-deny: a code missing
// here becomes GenericReason.
var reasonCategories = map[string]string{
	"NEW_BENEFICIARY_HIGH_VELOCITY": "new_beneficiary_velocity",
	"QR_CHANNEL_TIER1_LIMIT":        "qr_channel_limit",
	"QR_CHANNEL_TIER2_LIMIT":        "qr_channel_limit",
	"VELOCITY_LIMIT_EXCEEDED":       "velocity_limit",
	"REPEATED_AUTH_FAILURES":        "authentication_failures",
	"NIGHT_HIGH_VALUE":              "temporal_anomaly",
	"HIGH_RISK_SCORE":               "model_risk",
	"ELEVATED_RISK_SCORE":           "model_risk",
	"SIGNAL_TIMEOUT":                "degraded_signals",
	"SIGNAL_UNAVAILABLE":            "degraded_signals",
	"BUDGET_EXCEEDED":               "degraded_signals",
	"POLICY_INPUT_INVALID":          "policy_input_invalid",
	"NO_SIGNIFICANT_RISK":           "no_significant_risk",
}

// categoryOf resolves a reason code, defaulting closed.
func categoryOf(code string) string {
	if cat, ok := reasonCategories[code]; ok {
		return cat
	}
	return GenericReason
}

// knownCategory reports whether v is an approved category value. Used when
// re-sanitizing already-sanitized input.
func knownCategory(v string) bool {
	if v == GenericReason {
		return true
	}
	for _, cat := range reasonCategories {
		if cat == v {
			return true
		}
	}
	return false
}
