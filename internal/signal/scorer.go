// Package signal normalizes the outputs of the ensemble and anomaly scoring
// collaborators into common risk-signal records. It performs no caching and
// keeps no state: a scoring call either answers within its timeout or is
// recorded as missing.
package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fraudshield/internal/features"
)

// RawScore is the wire contract of a scoring collaborator.
type RawScore struct {
	Score        float64         `json:"score"`
	Confidence   float64         `json:"confidence"`
	Attributions json.RawMessage `json:"attributions,omitempty"`
}

// Scorer is the scoring collaborator contract. Implementations must respect
// ctx cancellation; the adapter treats a late answer as unavailable.
type Scorer interface {
	Score(ctx context.Context, vec features.Vector) (RawScore, error)
}

// HTTPScorer calls a remote scoring service. Both the ensemble and the
// anomaly collaborators expose the same shape.
type HTTPScorer struct {
	url    string
	client *http.Client
}

func NewHTTPScorer(url string) *HTTPScorer {
	return &HTTPScorer{url: url, client: &http.Client{}}
}

type scoreRequest struct {
	Features []float64 `json:"features"`
}

func (s *HTTPScorer) Score(ctx context.Context, vec features.Vector) (RawScore, error) {
	body, err := json.Marshal(scoreRequest{Features: vec[:]})
	if err != nil {
		return RawScore{}, fmt.Errorf("encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return RawScore{}, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return RawScore{}, fmt.Errorf("score call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RawScore{}, fmt.Errorf("score call: unexpected status %d", resp.StatusCode)
	}

	var raw RawScore
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return RawScore{}, fmt.Errorf("decode score response: %w", err)
	}
	return raw, nil
}
