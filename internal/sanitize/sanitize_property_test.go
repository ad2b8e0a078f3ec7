package sanitize_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"fraudshield/internal/domain"
	"fraudshield/internal/sanitize"
)

// arbitraryRecord builds adversarial DecisionRecords: arbitrary action
// strings, arbitrary reason codes, citations carrying PII-looking payloads,
// out-of-range scores.
func arbitraryRecord(action string, reasons, citations []string, score float64, confidences []float64) domain.DecisionRecord {
	signals := make([]domain.RiskSignal, 0, len(confidences))
	for i, c := range confidences {
		src := domain.SourceEnsemble
		if i%2 == 1 {
			src = domain.SourceAnomaly
		}
		signals = append(signals, domain.RiskSignal{Source: src, Score: score, Confidence: c, Missing: c == 0})
	}
	verdicts := make([]domain.PolicyVerdict, 0, len(citations))
	for _, c := range citations {
		verdicts = append(verdicts, domain.PolicyVerdict{RuleID: c, Citation: c, Outcome: domain.OutcomeSoftBlock})
	}
	return domain.DecisionRecord{
		TransactionRef: "txn-prop",
		Action:         domain.Action(action),
		RiskScore:      score,
		Signals:        signals,
		Verdicts:       verdicts,
		ReasonCodes:    reasons,
	}
}

func allowedFieldSet() map[string]bool {
	allowed := make(map[string]bool)
	for _, f := range sanitize.FieldAllowList[sanitize.SchemaV1] {
		allowed[f] = true
	}
	return allowed
}

func TestSanitizeNeverLeaksFieldsOutsideAllowList(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	s := sanitize.New(0.50, 0.85)
	allowed := allowedFieldSet()

	properties.Property("serialized context fields are a subset of the allow-list", prop.ForAll(
		func(action string, reasons []string, citations []string, score float64, confidences []float64) bool {
			ctx := s.Sanitize(arbitraryRecord(action, reasons, citations, score, confidences))

			raw, err := json.Marshal(ctx)
			if err != nil {
				return false
			}
			var asMap map[string]any
			if err := json.Unmarshal(raw, &asMap); err != nil {
				return false
			}
			for field := range asMap {
				if !allowed[field] {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.AnyString()),
		gen.Float64Range(-10, 10),
		gen.SliceOf(gen.Float64Range(0, 1)),
	))

	properties.TestingRun(t)
}

func TestSanitizeIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	s := sanitize.New(0.50, 0.85)

	properties.Property("same record sanitizes identically", prop.ForAll(
		func(action string, reasons []string, score float64) bool {
			rec := arbitraryRecord(action, reasons, nil, score, nil)
			return reflect.DeepEqual(s.Sanitize(rec), s.Sanitize(rec))
		},
		gen.AnyString(),
		gen.SliceOf(gen.AnyString()),
		gen.Float64Range(-10, 10),
	))

	properties.TestingRun(t)
}

func TestResanitizeIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	s := sanitize.New(0.50, 0.85)

	properties.Property("resanitizing sanitized output is a fixpoint", prop.ForAll(
		func(action string, reasons []string, citations []string, score float64) bool {
			ctx := s.Sanitize(arbitraryRecord(action, reasons, citations, score, nil))
			once := s.Resanitize(ctx)
			twice := s.Resanitize(once)
			return reflect.DeepEqual(once, twice) && reflect.DeepEqual(ctx, once)
		},
		gen.AnyString(),
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.AnyString()),
		gen.Float64Range(-10, 10),
	))

	properties.TestingRun(t)
}

func TestResanitizeScrubsTamperedContexts(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	s := sanitize.New(0.50, 0.85)

	properties.Property("tampered fields collapse to approved values", prop.ForAll(
		func(action, category, band, quality string, citations []string) bool {
			tampered := sanitize.SanitizedContext{
				SchemaVersion:   "v999",
				Action:          action,
				ReasonCategory:  category,
				PolicyCitations: citations,
				RiskBand:        band,
				SignalQuality:   quality,
			}
			out := s.Resanitize(tampered)
			if out.SchemaVersion != sanitize.SchemaV1 {
				return false
			}
			switch out.RiskBand {
			case sanitize.BandLow, sanitize.BandElevated, sanitize.BandHigh:
			default:
				return false
			}
			switch out.SignalQuality {
			case sanitize.QualityComplete, sanitize.QualityPartial, sanitize.QualityAbsent:
			default:
				return false
			}
			return reflect.DeepEqual(out, s.Resanitize(out))
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}
