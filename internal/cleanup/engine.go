// Package cleanup reverses the side effects of a scenario after it ran.
//
// The Engine walks a World's cleanup queue last-registered first, sending
// each request with an admin bearer token from a CredentialCache. Teardown
// is best effort: no response or transport failure is ever returned to the
// caller, and a failing item never stops the items after it.
package cleanup

import (
	"context"
	"net/http"
	"unicode/utf8"

	"bddkit/internal/transport"
	"bddkit/internal/world"
	"bddkit/pkg/logging"
)

// Outcome classifies what happened to one cleanup item.
type Outcome string

const (
	OutcomeDeleted      Outcome = "deleted"
	OutcomeAlreadyGone  Outcome = "already_gone"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeFailed       Outcome = "failed"
	OutcomeError        Outcome = "error"
)

// ItemResult is the observed result of one cleanup request.
type ItemResult struct {
	Item    world.CleanupItem
	Outcome Outcome
	Status  int
	Err     error
}

// Report lists item results in the order the requests were sent.
type Report struct {
	Skipped bool
	Items   []ItemResult
}

// Engine runs cleanup queues. It is safe to share between scenarios.
type Engine struct {
	cache   *CredentialCache
	metrics *Metrics
}

// NewEngine returns an Engine authorizing requests through cache.
func NewEngine(cache *CredentialCache) *Engine {
	m := NewMetrics()
	cache.metrics = m
	return &Engine{cache: cache, metrics: m}
}

// Cache returns the engine's credential cache.
func (e *Engine) Cache() *CredentialCache {
	return e.cache
}

// Metrics returns the engine's counters.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Run reverses w's cleanup queue through r. Requests are sent one at a time
// in reverse registration order. Run never fails; the Report is for logging.
func (e *Engine) Run(ctx context.Context, r transport.Requester, w *world.World) Report {
	queue := w.CleanupQueue()
	if w.SkipCleanup {
		if len(queue) > 0 {
			logging.Info("Cleanup", "Skipping cleanup of %d item(s) as requested", len(queue))
		}
		return Report{Skipped: true}
	}
	if len(queue) == 0 {
		return Report{}
	}

	report := Report{Items: make([]ItemResult, 0, len(queue))}
	for i := len(queue) - 1; i >= 0; i-- {
		res := e.runItem(ctx, r, queue[i])
		e.metrics.recordRequest(res.Outcome)
		report.Items = append(report.Items, res)
	}
	return report
}

func (e *Engine) runItem(ctx context.Context, r transport.Requester, item world.CleanupItem) ItemResult {
	headers := map[string]string{}
	if token, ok := e.cache.Token(ctx, r); ok {
		headers["Authorization"] = "Bearer " + token
	}
	for k, v := range item.Headers {
		headers[k] = v
	}

	resp, err := r.Do(ctx, transport.Request{
		Method:  item.Method,
		Path:    item.Path,
		Headers: headers,
	})
	if err != nil {
		logging.WarnErr("Cleanup", err, "Cleanup %s %s failed", item.Method, item.Path)
		return ItemResult{Item: item, Outcome: OutcomeError, Err: err}
	}

	res := ItemResult{Item: item, Status: resp.Status}
	switch {
	case resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden:
		e.cache.Invalidate()
		logging.Warn("Cleanup", "Cleanup %s %s rejected with %d; admin token dropped", item.Method, item.Path, resp.Status)
		res.Outcome = OutcomeUnauthorized
	case resp.Status == http.StatusNotFound:
		logging.Debug("Cleanup", "Cleanup %s %s: already gone", item.Method, item.Path)
		res.Outcome = OutcomeAlreadyGone
	case resp.Status >= 400:
		logging.Warn("Cleanup", "Cleanup %s %s returned %d: %s", item.Method, item.Path, resp.Status, truncate(string(resp.Body), 200))
		res.Outcome = OutcomeFailed
	default:
		res.Outcome = OutcomeDeleted
	}
	return res
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
