package goShield

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeClock is a manually advanced Clock so window math is exact in tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// protectionTestConfig is the default policy with the memory janitor off so
// nothing in a test runs off the wall clock.
func protectionTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Backend.JanitorInterval = 0
	return cfg
}

func newMemoryEngine(t *testing.T, cfg Config) (*Engine, *fakeClock) {
	t.Helper()

	clk := newFakeClock()
	engine, err := New().WithConfig(cfg).WithClock(clk).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine, clk
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func loginReq(source, account string) AccessRequest {
	return AccessRequest{Source: source, Account: account, Class: ClassLogin}
}

func mustEvaluate(t *testing.T, e *Engine, req AccessRequest) Decision {
	t.Helper()
	d, err := e.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return d
}

func mustReport(t *testing.T, e *Engine, req AccessRequest, outcome Outcome) {
	t.Helper()
	if err := e.Report(context.Background(), req, outcome); err != nil {
		t.Fatalf("Report failed: %v", err)
	}
}

func TestEvaluateAllowsFreshRequest(t *testing.T) {
	engine, _ := newMemoryEngine(t, protectionTestConfig())

	d := mustEvaluate(t, engine, loginReq("203.0.113.7", "alice"))
	if !d.Allowed {
		t.Fatalf("expected allow, got %+v", d)
	}
	if d.Reason != ReasonNone {
		t.Fatalf("expected ReasonNone, got %q", d.Reason)
	}
	// Source rule admits 3 per window, the account rule 5; the tighter one
	// drives Remaining.
	if d.Remaining != 3 {
		t.Fatalf("expected remaining 3, got %d", d.Remaining)
	}
	if d.RetryAfter != 0 {
		t.Fatalf("expected zero retry-after on allow, got %v", d.RetryAfter)
	}
	if !d.ResetAt.IsZero() {
		t.Fatalf("expected zero reset on an empty window, got %v", d.ResetAt)
	}
}

func TestEvaluateRejectsMalformedRequests(t *testing.T) {
	engine, _ := newMemoryEngine(t, protectionTestConfig())

	oversized := strings.Repeat("x", 513)
	tests := []struct {
		name    string
		req     AccessRequest
		wantErr error
	}{
		{"empty source", AccessRequest{Account: "alice", Class: ClassLogin}, ErrInvalidSource},
		{"oversized source", AccessRequest{Source: oversized, Class: ClassLogin}, ErrInvalidSource},
		{"oversized account", AccessRequest{Source: "203.0.113.7", Account: oversized, Class: ClassLogin}, ErrInvalidAccount},
		{"empty class", AccessRequest{Source: "203.0.113.7"}, ErrUnknownActionClass},
		{"undeclared class", AccessRequest{Source: "203.0.113.7", Class: "billing"}, ErrUnknownActionClass},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.Evaluate(context.Background(), tc.req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEvaluateConsumesNoBudget(t *testing.T) {
	engine, _ := newMemoryEngine(t, protectionTestConfig())
	req := loginReq("203.0.113.7", "alice")

	for i := 0; i < 10; i++ {
		d := mustEvaluate(t, engine, req)
		if !d.Allowed || d.Remaining != 3 {
			t.Fatalf("evaluate %d: expected untouched budget 3, got %+v", i+1, d)
		}
	}
}

func TestEvaluateDeniesWhenSourceWindowExhausted(t *testing.T) {
	engine, clk := newMemoryEngine(t, protectionTestConfig())
	req := loginReq("203.0.113.7", "alice")
	start := clk.Now()

	// Successful outcomes consume budget too; only three attempts per source
	// fit in the window regardless of how they ended.
	for i := 0; i < 3; i++ {
		mustReport(t, engine, req, OutcomeSuccess)
	}

	d := mustEvaluate(t, engine, req)
	if d.Allowed {
		t.Fatal("expected denial once the source window is exhausted")
	}
	if d.Reason != ReasonRateLimited {
		t.Fatalf("expected rate-limited, got %q", d.Reason)
	}
	if want := 15 * time.Minute; d.RetryAfter != want {
		t.Fatalf("expected retry-after %v, got %v", want, d.RetryAfter)
	}
	if want := start.Add(15 * time.Minute); !d.ResetAt.Equal(want) {
		t.Fatalf("expected reset at %v, got %v", want, d.ResetAt)
	}
}

func TestEvaluateAccountWindowSpansSources(t *testing.T) {
	engine, _ := newMemoryEngine(t, protectionTestConfig())

	// A distributed attack: five sources spend the account's budget of five.
	sources := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}
	for _, src := range sources {
		mustReport(t, engine, loginReq(src, "alice"), OutcomeSuccess)
	}

	d := mustEvaluate(t, engine, loginReq("10.0.0.6", "alice"))
	if d.Allowed {
		t.Fatal("expected the account window to deny a sixth source")
	}
	if d.Reason != ReasonRateLimited {
		t.Fatalf("expected rate-limited, got %q", d.Reason)
	}

	// A different account from the same fresh source is unaffected.
	d = mustEvaluate(t, engine, loginReq("10.0.0.6", "bob"))
	if !d.Allowed {
		t.Fatalf("expected other accounts to stay open, got %+v", d)
	}
}

func TestEvaluateWindowSlides(t *testing.T) {
	engine, clk := newMemoryEngine(t, protectionTestConfig())
	req := loginReq("203.0.113.7", "alice")

	for i := 0; i < 3; i++ {
		mustReport(t, engine, req, OutcomeSuccess)
	}
	if d := mustEvaluate(t, engine, req); d.Allowed {
		t.Fatal("expected denial before the window slides")
	}

	clk.Advance(15*time.Minute + time.Second)

	d := mustEvaluate(t, engine, req)
	if !d.Allowed {
		t.Fatalf("expected the slid window to admit again, got %+v", d)
	}
	// The 30m account window still holds all three hits, so it now sets the
	// tighter bound: 5-3 against a fully recovered source budget of 3.
	if d.Remaining != 2 {
		t.Fatalf("expected remaining 2 from the account window, got %d", d.Remaining)
	}
}

func TestEvaluateEngineNotReady(t *testing.T) {
	var nilEngine *Engine
	if _, err := nilEngine.Evaluate(context.Background(), loginReq("203.0.113.7", "")); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady from nil engine, got %v", err)
	}

	if _, err := (&Engine{}).Evaluate(context.Background(), loginReq("203.0.113.7", "")); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady from zero engine, got %v", err)
	}
}

func TestEvaluateAndReportAgainstSharedBackend(t *testing.T) {
	_, rdb := newTestRedis(t)

	clk := newFakeClock()
	engine, err := New().
		WithConfig(protectionTestConfig()).
		WithClock(clk).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	req := loginReq("203.0.113.7", "alice")
	if d := mustEvaluate(t, engine, req); !d.Allowed {
		t.Fatalf("expected allow against a healthy backend, got %+v", d)
	}

	for i := 0; i < 3; i++ {
		mustReport(t, engine, req, OutcomeSuccess)
	}

	d := mustEvaluate(t, engine, req)
	if d.Allowed || d.Reason != ReasonRateLimited {
		t.Fatalf("expected a rate-limited denial through Redis, got %+v", d)
	}
	if d.Degraded {
		t.Fatal("expected a non-degraded decision from a healthy backend")
	}

	if rep := engine.ProtectionReport(); !rep.SharedBackendActive {
		t.Fatal("expected the shared backend to be reported active")
	}
}
