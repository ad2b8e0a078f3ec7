package agent

import (
	"context"
	"fmt"
	"strings"

	"fraudshield/internal/knowledge"
	"fraudshield/internal/sanitize"
)

// ExplanationAgent produces the regulator-facing natural-language
// explanation by handing the sanitized context and snippets to the
// generative collaborator.
type ExplanationAgent struct {
	generator Generator
}

func NewExplanationAgent(generator Generator) *ExplanationAgent {
	return &ExplanationAgent{generator: generator}
}

// ExplanationAgentID is the coordinator-visible name of the explanation
// agent; consumers pick its output out of the aggregated results by it.
const ExplanationAgentID = "explanation"

func (a *ExplanationAgent) ID() string { return ExplanationAgentID }

func (a *ExplanationAgent) Run(ctx context.Context, sctx sanitize.SanitizedContext, snippets []knowledge.Snippet) (string, error) {
	text, err := a.generator.Generate(ctx, sctx, snippets)
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}
	return text, nil
}

// TemplateGenerator is the bundled deterministic generator: it assembles the
// explanation from retrieved guidance without any external model, so the
// same context and snippets always yield the same text.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator { return &TemplateGenerator{} }

func (g *TemplateGenerator) Generate(_ context.Context, sctx sanitize.SanitizedContext, snippets []knowledge.Snippet) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "The transaction was %s.", describeAction(sctx.Action))
	fmt.Fprintf(&b, " Primary factor: %s (risk band: %s).",
		strings.ReplaceAll(sctx.ReasonCategory, "_", " "), sctx.RiskBand)

	if len(sctx.PolicyCitations) > 0 {
		fmt.Fprintf(&b, " Applicable policy references: %s.", strings.Join(sctx.PolicyCitations, ", "))
	}
	if sctx.SignalQuality != sanitize.QualityComplete {
		b.WriteString(" The decision was taken under a conservative policy because part of the risk-signal picture was unavailable.")
	}

	if len(snippets) > 0 {
		b.WriteString(" Guidance: ")
		for i, sn := range snippets {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(firstSentence(sn.Text))
		}
	}

	b.WriteString(" This explanation references observable behavior patterns only, not any individual or account.")
	return b.String(), nil
}

func describeAction(action string) string {
	switch action {
	case "ALLOW":
		return "allowed"
	case "CHALLENGE":
		return "allowed subject to additional verification"
	case "SOFT_BLOCK":
		return "held for review"
	case "HARD_BLOCK":
		return "declined"
	default:
		return "processed"
	}
}

func firstSentence(text string) string {
	if i := strings.IndexAny(text, ".!?"); i >= 0 {
		return text[:i+1]
	}
	return text
}
