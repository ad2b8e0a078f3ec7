package knowledge

import (
	"context"
	"sort"
	"strings"
)

// StaticIndex is a deterministic keyword index over a bundled guidance
// corpus. It stands in when no external vector store is configured and keeps
// retrieval fully local: same terms, same snippets, same order.
type StaticIndex struct {
	snippets []Snippet
}

// NewStaticIndex builds the index over the bundled corpus.
func NewStaticIndex() *StaticIndex {
	return &StaticIndex{snippets: guidanceCorpus}
}

// NewStaticIndexWith builds an index over a caller-supplied corpus. Used in
// tests and for environments that ship their own guidance set.
func NewStaticIndexWith(snippets []Snippet) *StaticIndex {
	return &StaticIndex{snippets: snippets}
}

// Retrieve scores snippets by term overlap and returns the top k. Ties break
// on snippet ID so results are stable across runs.
func (s *StaticIndex) Retrieve(_ context.Context, terms []string, k int) ([]Snippet, error) {
	if k <= 0 || len(terms) == 0 {
		return nil, nil
	}

	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}

	type scored struct {
		snippet Snippet
		score   int
	}
	ranked := make([]scored, 0, len(s.snippets))
	for _, sn := range s.snippets {
		body := strings.ToLower(sn.Title + " " + sn.Text)
		score := 0
		for _, t := range lowered {
			if strings.Contains(body, t) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{snippet: sn, score: score})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].snippet.ID < ranked[j].snippet.ID
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]Snippet, len(ranked))
	for i, r := range ranked {
		out[i] = r.snippet
	}
	return out, nil
}

// guidanceCorpus is the bundled regulatory guidance set. Snippets describe
// behavior patterns, never individuals or accounts.
var guidanceCorpus = []Snippet{
	{
		ID:    "kb-001",
		Title: "New beneficiary cool-down",
		Text: "Transfers to a recently added beneficiary carry elevated risk, particularly at high value. " +
			"A cool-down period after beneficiary addition limits exposure: transactions above the configured " +
			"limit inside the cool-down window warrant blocking or step-up verification.",
	},
	{
		ID:    "kb-002",
		Title: "QR channel scrutiny",
		Text: "QR-initiated payments are a common social-engineering vector because the payee is encoded by " +
			"the counterparty. Scrutiny tiers apply progressively stricter controls as transaction value rises " +
			"on the QR channel.",
	},
	{
		ID:    "kb-003",
		Title: "Transaction velocity limits",
		Text: "A burst of transactions inside a short window is a recognized mule-account and account-takeover " +
			"pattern. Velocity limits cap the count of transfers per day; exceeding the cap indicates automation " +
			"or coercion rather than routine payment behavior.",
	},
	{
		ID:    "kb-004",
		Title: "Authentication failure bursts",
		Text: "Repeated authentication failures preceding a payment suggest credential guessing or device " +
			"compromise. Decisions taken shortly after a failure burst should be treated as elevated risk even " +
			"when the final authentication succeeded.",
	},
	{
		ID:    "kb-005",
		Title: "Night-hour anomalies",
		Text: "High-value transfers initiated between midnight and early morning deviate from typical payment " +
			"behavior and correlate with coerced or compromised sessions. Temporal anomaly checks flag such " +
			"transactions for stricter review.",
	},
	{
		ID:    "kb-006",
		Title: "Model risk bands",
		Text: "A high fused risk band means the supervised ensemble and the anomaly detector independently " +
			"observed patterns associated with fraudulent behavior. Banded scores support review without " +
			"exposing model internals or raw feature values.",
	},
	{
		ID:    "kb-007",
		Title: "Degraded signal handling",
		Text: "When a scoring source is unavailable or times out, the decision is taken from the remaining " +
			"signals under a conservative policy: incomplete evidence moves the outcome toward the stricter " +
			"branch, never the permissive one.",
	},
}
