//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	goShield "github.com/MrEthical07/goShield"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// tripCounter tallies Redis traffic through the go-redis hook chain: every
// command executed, plus the number of pipeline flushes that carried them.
type tripCounter struct {
	total   atomic.Int64
	batches atomic.Int64
}

func (h *tripCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *tripCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.total.Add(1)
		return next(ctx, cmd)
	}
}

func (h *tripCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		// A flushed pipeline costs one round-trip however many commands it carries.
		h.batches.Add(1)
		h.total.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *tripCounter) Reset() {
	h.total.Store(0)
	h.batches.Store(0)
}

func (h *tripCounter) Total() int64   { return h.total.Load() }
func (h *tripCounter) Batches() int64 { return h.batches.Load() }

// newCountedEngine builds an engine backed by miniredis with a tripCounter
// installed on the client. Reset the counter before each measured operation.
func newCountedEngine(t *testing.T) (*goShield.Engine, *tripCounter, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counter := &tripCounter{}
	rdb.AddHook(counter)

	// The first command on a fresh connection drags protocol negotiation
	// along with it (HELLO, CLIENT SETNAME and friends). Ping once so the
	// budgets below start from zero.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}
	counter.Reset()

	engine := buildEngineOn(t, rdb, integrationConfig(), newAdjustableClock())
	return engine, counter, func() {
		_ = engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

// TestEvaluateRedisBudget verifies the read path's command budget: one block
// lookup (GET), one lockout read (HGETALL), one two-command counter pipeline
// per login rule and the event append pipeline (LPUSH+LTRIM) — 8 commands on
// a clean account.
func TestEvaluateRedisBudget(t *testing.T) {
	engine, counter, cleanup := newCountedEngine(t)
	defer cleanup()

	counter.Reset()

	dec := evaluate(t, engine, loginRequest("203.0.113.7", "alice"))
	if !dec.Allowed {
		t.Fatalf("expected allow, got %q", dec.Reason)
	}

	cmds := counter.Total()
	if cmds > 12 {
		t.Errorf("Evaluate used %d Redis commands; budget is <= 12", cmds)
	}
	t.Logf("Evaluate: %d commands across %d pipeline flushes", cmds, counter.Batches())
}

// TestReportFailureRedisBudget verifies the failure path's command budget:
// two four-command counter pipelines, the lockout failure pipeline, the
// reputation penalty pipeline plus score read, and the event append — 17
// commands below every threshold.
func TestReportFailureRedisBudget(t *testing.T) {
	engine, counter, cleanup := newCountedEngine(t)
	defer cleanup()

	counter.Reset()

	if err := engine.Report(context.Background(), loginRequest("203.0.113.7", "alice"), goShield.OutcomeFailure); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	cmds := counter.Total()
	if cmds > 22 {
		t.Errorf("Report(failure) used %d Redis commands; budget is <= 22", cmds)
	}
	t.Logf("Report(failure): %d commands across %d pipeline flushes", cmds, counter.Batches())
}

// TestReportSuccessRedisBudget verifies the success path's command budget:
// two counter pipelines, one lockout clear (DEL) and the event append — 11
// commands for an account with no failure record.
func TestReportSuccessRedisBudget(t *testing.T) {
	engine, counter, cleanup := newCountedEngine(t)
	defer cleanup()

	counter.Reset()

	if err := engine.Report(context.Background(), loginRequest("203.0.113.7", "alice"), goShield.OutcomeSuccess); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	cmds := counter.Total()
	if cmds > 16 {
		t.Errorf("Report(success) used %d Redis commands; budget is <= 16", cmds)
	}
	t.Logf("Report(success): %d commands across %d pipeline flushes", cmds, counter.Batches())
}

// TestListEventsRedisBudget verifies that a single-page event listing is one
// LRANGE scan.
func TestListEventsRedisBudget(t *testing.T) {
	engine, counter, cleanup := newCountedEngine(t)
	defer cleanup()

	for i := 0; i < 3; i++ {
		_ = evaluate(t, engine, loginRequest("203.0.113.7", "alice"))
	}

	counter.Reset()

	page, err := engine.ListEvents(context.Background(), goShield.EventFilter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(page.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(page.Events))
	}

	cmds := counter.Total()
	if cmds > 2 {
		t.Errorf("ListEvents used %d Redis commands; budget is <= 2 (one LRANGE page)", cmds)
	}
	t.Logf("ListEvents: %d commands across %d pipeline flushes", cmds, counter.Batches())
}
