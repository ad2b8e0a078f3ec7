package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fraudshield/internal/agent/metrics"
	"fraudshield/internal/domain"
	"fraudshield/internal/knowledge"
	"fraudshield/internal/sanitize"
)

// Options bound one coordinator run. Values come from the configuration
// snapshot captured by the decision this run explains.
type Options struct {
	AgentTimeout     time.Duration
	RetrievalTimeout time.Duration
	RetrievalK       int
	MaxOutputBytes   int
}

// Coordinator dispatches agents against a sanitized context. Agents run
// concurrently, each under its own timeout; composition happens only here,
// by aggregating AgentResults in registration order.
type Coordinator struct {
	retriever knowledge.Retriever
	agents    []Agent
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

func NewCoordinator(retriever knowledge.Retriever, agents []Agent, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		retriever: retriever,
		agents:    agents,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer("fraudshield/agent"),
	}
}

// Run retrieves knowledge once, then fans out to every agent. It always
// returns one result per agent; a timeout or failure shows up as that
// agent's status, never as a missing entry or an error for its peers.
func (c *Coordinator) Run(ctx context.Context, sctx sanitize.SanitizedContext, opts Options) []domain.AgentResult {
	ctx, span := c.tracer.Start(ctx, "agents.run",
		trace.WithAttributes(attribute.Int("agents.count", len(c.agents))))
	defer span.End()

	snippets := c.retrieve(ctx, sctx, opts)

	results := make([]domain.AgentResult, len(c.agents))
	var wg sync.WaitGroup
	for i, ag := range c.agents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.invoke(ctx, ag, sctx, snippets, opts)
		}()
	}
	wg.Wait()

	return results
}

// retrieve queries the knowledge collaborator with context-derived terms
// only. Retrieval failure degrades to no snippets; agents still run.
func (c *Coordinator) retrieve(ctx context.Context, sctx sanitize.SanitizedContext, opts Options) []knowledge.Snippet {
	ctx, cancel := context.WithTimeout(ctx, opts.RetrievalTimeout)
	defer cancel()

	snippets, err := c.retriever.Retrieve(ctx, sctx.QueryTerms(), opts.RetrievalK)
	if err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "knowledge retrieval failed", "error", err)
		}
		return nil
	}

	// Scrub at the boundary: the corpus is outside our trust domain.
	scrubbed := make([]knowledge.Snippet, len(snippets))
	for i, sn := range snippets {
		scrubbed[i] = knowledge.Snippet{ID: sn.ID, Title: Scrub(sn.Title), Text: Scrub(sn.Text)}
	}
	return scrubbed
}

func (c *Coordinator) invoke(ctx context.Context, ag Agent, sctx sanitize.SanitizedContext, snippets []knowledge.Snippet, opts Options) domain.AgentResult {
	ctx, cancel := context.WithTimeout(ctx, opts.AgentTimeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "agent.invoke",
		trace.WithAttributes(attribute.String("agent.id", ag.ID())))
	defer span.End()

	start := time.Now()
	output, err := c.runIsolated(ctx, ag, sctx, snippets)
	elapsed := time.Since(start)

	result := domain.AgentResult{AgentID: ag.ID(), Duration: elapsed}
	switch {
	case err == nil:
		result.Status = domain.AgentOK
		result.Output = bound(Scrub(output), opts.MaxOutputBytes)
	case errors.Is(err, context.DeadlineExceeded):
		result.Status = domain.AgentTimeout
	default:
		result.Status = domain.AgentFailed
	}

	c.metrics.ObserveAgent(ag.ID(), string(result.Status), elapsed)
	if err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "agent invocation failed",
			"agent", ag.ID(),
			"status", result.Status,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
	}
	return result
}

// runIsolated confines an agent to its own goroutine so a hung agent cannot
// outlive its timeout and a panicking one is reported as FAILED instead of
// taking the coordinator down.
func (c *Coordinator) runIsolated(ctx context.Context, ag Agent, sctx sanitize.SanitizedContext, snippets []knowledge.Snippet) (output string, err error) {
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("agent panic: %v", r)}
			}
		}()
		text, err := ag.Run(ctx, sctx, snippets)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case out := <-done:
		return out.text, out.err
	}
}

func bound(s string, maxBytes int) string {
	if maxBytes > 0 && len(s) > maxBytes {
		return s[:maxBytes]
	}
	return s
}
