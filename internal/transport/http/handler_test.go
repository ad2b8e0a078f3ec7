package httptransport_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudshield/internal/analyst"
	"fraudshield/internal/domain"
	"fraudshield/internal/platform/middleware"
	"fraudshield/internal/storage"
	httptransport "fraudshield/internal/transport/http"
	"fraudshield/pkg/faults"
)

const testSigningKey = "test-signing-key"

type stubDecider struct {
	rec domain.DecisionRecord
	err error
}

func (s stubDecider) Decide(_ context.Context, txn domain.Transaction) (domain.DecisionRecord, error) {
	if s.err != nil {
		return domain.DecisionRecord{}, s.err
	}
	rec := s.rec
	rec.TransactionRef = txn.Ref
	return rec, nil
}

type stubExplainer struct{}

func (stubExplainer) RequestExplanation(context.Context, string) error { return nil }

type env struct {
	server       *httptest.Server
	decisions    *storage.MemoryDecisionStore
	explanations *storage.MemoryExplanationStore
}

func newEnv(t *testing.T, decider httptransport.Decider) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	decisions := storage.NewMemoryDecisionStore()
	explanations := storage.NewMemoryExplanationStore()
	actions := storage.NewMemoryAnalystActionStore()
	analystSvc := analyst.NewService(decisions, actions, stubExplainer{}, logger, nil)

	h := httptransport.New(decider, analystSvc, explanations,
		middleware.NewHMACValidator(testSigningKey), logger)
	server := httptest.NewServer(httptransport.NewRouter(h, logger))
	t.Cleanup(server.Close)

	return &env{server: server, decisions: decisions, explanations: explanations}
}

func analystToken(t *testing.T) string {
	t.Helper()
	token, err := middleware.IssueAnalystToken(testSigningKey, "analyst-7", time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

const validSubmission = `{
	"ref": "txn-1",
	"payer_ref": "payer-1",
	"payee_ref": "payee-1",
	"amount": 50000,
	"at": "2026-08-27T12:00:00Z",
	"channel": "QR",
	"beneficiary_age_min": 10
}`

func TestSubmitDecision(t *testing.T) {
	e := newEnv(t, stubDecider{rec: domain.DecisionRecord{
		ID:                  "d-1",
		Action:              domain.ActionHardBlock,
		RiskScore:           0.9,
		ReasonCodes:         []string{"NEW_BENEFICIARY_HIGH_VELOCITY"},
		RuleSetVersion:      "v1",
		DecidedAt:           time.Now().UTC(),
		ExplanationRequired: true,
	}})

	resp := doJSON(t, http.MethodPost, e.server.URL+"/v1/decisions", "", validSubmission)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body httptransport.DecisionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "txn-1", body.TransactionRef)
	assert.Equal(t, "HARD_BLOCK", body.Action)
	assert.True(t, body.ExplanationRequired)
	assert.Contains(t, body.ReasonCodes, "NEW_BENEFICIARY_HIGH_VELOCITY")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestSubmitDecisionMalformedBody(t *testing.T) {
	e := newEnv(t, stubDecider{})

	resp := doJSON(t, http.MethodPost, e.server.URL+"/v1/decisions", "", `{"ref": `)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_INPUT", body["error"])
}

func TestSubmitDecisionRejectedTransaction(t *testing.T) {
	e := newEnv(t, stubDecider{err: faults.New(faults.CodeInvalidInput, "amount must be positive")})

	resp := doJSON(t, http.MethodPost, e.server.URL+"/v1/decisions", "", validSubmission)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueueRequiresAuth(t *testing.T) {
	e := newEnv(t, stubDecider{})

	resp := doJSON(t, http.MethodGet, e.server.URL+"/v1/decisions", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, e.server.URL+"/v1/decisions", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestQueueListsAndFilters(t *testing.T) {
	e := newEnv(t, stubDecider{})
	require.NoError(t, e.decisions.Save(context.Background(),
		domain.DecisionRecord{ID: "d-1", TransactionRef: "txn-1", Action: domain.ActionAllow}))
	require.NoError(t, e.decisions.Save(context.Background(),
		domain.DecisionRecord{ID: "d-2", TransactionRef: "txn-2", Action: domain.ActionHardBlock}))

	resp := doJSON(t, http.MethodGet, e.server.URL+"/v1/decisions?action=HARD_BLOCK", analystToken(t), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body httptransport.QueueResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Decisions, 1)
	assert.Equal(t, "txn-2", body.Decisions[0].TransactionRef)
}

func TestExplanationLookup(t *testing.T) {
	e := newEnv(t, stubDecider{})
	require.NoError(t, e.explanations.Save(context.Background(), domain.Explanation{
		TransactionRef: "txn-1",
		Trigger:        domain.TriggerSystem,
		Text:           "The transaction was declined.",
		CreatedAt:      time.Now().UTC(),
	}))

	resp := doJSON(t, http.MethodGet, e.server.URL+"/v1/decisions/txn-1/explanation", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body httptransport.ExplanationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "The transaction was declined.", body.Text)
	assert.Equal(t, "SYSTEM", body.Trigger)
}

func TestExplanationNotFound(t *testing.T) {
	e := newEnv(t, stubDecider{})

	resp := doJSON(t, http.MethodGet, e.server.URL+"/v1/decisions/missing/explanation", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalystActionRecorded(t *testing.T) {
	e := newEnv(t, stubDecider{})
	require.NoError(t, e.decisions.Save(context.Background(),
		domain.DecisionRecord{ID: "d-1", TransactionRef: "txn-1", Action: domain.ActionHardBlock}))

	resp := doJSON(t, http.MethodPost, e.server.URL+"/v1/analyst/actions", analystToken(t),
		`{"transaction_ref": "txn-1", "type": "CONFIRM_FRAUD", "notes": "verified"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body httptransport.AnalystActionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "analyst-7", body.AnalystID, "analyst identity comes from the token")
	assert.Equal(t, "d-1", body.DecisionID)
	assert.NotEmpty(t, body.ID)
}

func TestAnalystActionRequiresAuth(t *testing.T) {
	e := newEnv(t, stubDecider{})

	resp := doJSON(t, http.MethodPost, e.server.URL+"/v1/analyst/actions", "",
		`{"transaction_ref": "txn-1", "type": "CONFIRM_FRAUD"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAnalystActionUnknownTransaction(t *testing.T) {
	e := newEnv(t, stubDecider{})

	resp := doJSON(t, http.MethodPost, e.server.URL+"/v1/analyst/actions", analystToken(t),
		`{"transaction_ref": "missing", "type": "CONFIRM_FRAUD"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, stubDecider{})

	resp := doJSON(t, http.MethodGet, e.server.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
