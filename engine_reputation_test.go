package goShield

import (
	"context"
	"math"
	"testing"
	"time"
)

// reputationTestConfig isolates reputation behavior: lockout is off so
// failure reports feed only the source score.
func reputationTestConfig() Config {
	cfg := protectionTestConfig()
	cfg.Lockout.Enabled = false
	return cfg
}

func TestRepeatedFailuresBlockSource(t *testing.T) {
	engine, clk := newMemoryEngine(t, reputationTestConfig())
	req := loginReq("203.0.113.7", "alice")

	// Failure weight 3 against a block threshold of 10: the fourth reported
	// failure crosses it.
	for i := 0; i < 4; i++ {
		mustReport(t, engine, req, OutcomeFailure)
	}

	st, err := engine.GetReputation(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("GetReputation failed: %v", err)
	}
	if !st.Blocked {
		t.Fatalf("expected a blocked source, got %+v", st)
	}
	wantUntil := clk.Now().Add(time.Hour)
	if !st.BlockedUntil.Equal(wantUntil) {
		t.Fatalf("expected block until %v, got %v", wantUntil, st.BlockedUntil)
	}

	page, err := engine.ListEvents(context.Background(), EventFilter{Type: "source_blocked"})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(page.Events) != 1 {
		t.Fatalf("expected one source_blocked event, got %d", len(page.Events))
	}
	ev := page.Events[0]
	if ev.Severity != SeverityError {
		t.Fatalf("expected error severity, got %q", ev.Severity)
	}
	if ev.Detail["score"] != "12.00" {
		t.Fatalf("expected score detail 12.00, got %v", ev.Detail)
	}
}

func TestBlockedSourceDeniesBeforeAccountState(t *testing.T) {
	engine, _ := newMemoryEngine(t, reputationTestConfig())

	for i := 0; i < 4; i++ {
		mustReport(t, engine, loginReq("203.0.113.7", "alice"), OutcomeFailure)
	}

	// The block is keyed by source; it denies attempts against any account.
	d := mustEvaluate(t, engine, loginReq("203.0.113.7", "bob"))
	if d.Allowed {
		t.Fatal("expected a blocked source to deny")
	}
	if d.Reason != ReasonSourceBlocked {
		t.Fatalf("expected source-blocked, got %q", d.Reason)
	}
	if d.RetryAfter != time.Hour {
		t.Fatalf("expected retry-after 1h, got %v", d.RetryAfter)
	}
}

func TestDeniedBlockedSourceDoesNotExtendBlock(t *testing.T) {
	engine, clk := newMemoryEngine(t, reputationTestConfig())
	req := loginReq("203.0.113.7", "alice")

	for i := 0; i < 4; i++ {
		mustReport(t, engine, req, OutcomeFailure)
	}
	wantUntil := clk.Now().Add(time.Hour)

	clk.Advance(30 * time.Minute)

	// Hammering a blocked source is not new evidence; the expiry must hold
	// still rather than slide forward with every denied probe.
	for i := 0; i < 5; i++ {
		d := mustEvaluate(t, engine, req)
		if d.Reason != ReasonSourceBlocked {
			t.Fatalf("expected source-blocked, got %q", d.Reason)
		}
		if d.RetryAfter != 30*time.Minute {
			t.Fatalf("expected retry-after 30m, got %v", d.RetryAfter)
		}
	}

	st, err := engine.GetReputation(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("GetReputation failed: %v", err)
	}
	if !st.BlockedUntil.Equal(wantUntil) {
		t.Fatalf("expected block until %v unchanged, got %v", wantUntil, st.BlockedUntil)
	}
}

func TestReputationScoreDecays(t *testing.T) {
	engine, clk := newMemoryEngine(t, reputationTestConfig())

	mustReport(t, engine, loginReq("203.0.113.7", "alice"), OutcomeFailure)

	st, err := engine.GetReputation(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("GetReputation failed: %v", err)
	}
	if math.Abs(st.Score-3) > 0.001 {
		t.Fatalf("expected fresh score 3, got %f", st.Score)
	}

	// One half-life later the contribution has halved.
	clk.Advance(15 * time.Minute)

	st, err = engine.GetReputation(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("GetReputation failed: %v", err)
	}
	if math.Abs(st.Score-1.5) > 0.01 {
		t.Fatalf("expected decayed score 1.5, got %f", st.Score)
	}
	if st.Blocked {
		t.Fatalf("expected no block below threshold, got %+v", st)
	}
}

func TestDenialPenaltiesAccumulateIntoBlock(t *testing.T) {
	engine, _ := newMemoryEngine(t, reputationTestConfig())
	req := AccessRequest{Source: "198.51.100.4", Class: ClassLogin}

	// Exhaust the source window with successes so reputation stays clean.
	for i := 0; i < 3; i++ {
		mustReport(t, engine, req, OutcomeSuccess)
	}

	// Each denied evaluation adds the denial weight of 1. The tenth denial
	// reaches the threshold and applies the block.
	for i := 0; i < 10; i++ {
		d := mustEvaluate(t, engine, req)
		if d.Reason != ReasonRateLimited {
			t.Fatalf("denial %d: expected rate-limited, got %q", i+1, d.Reason)
		}
	}

	d := mustEvaluate(t, engine, req)
	if d.Reason != ReasonSourceBlocked {
		t.Fatalf("expected the accumulated denials to block the source, got %q", d.Reason)
	}

	st, err := engine.GetReputation(context.Background(), "198.51.100.4")
	if err != nil {
		t.Fatalf("GetReputation failed: %v", err)
	}
	if !st.Blocked || st.Score < 9.99 {
		t.Fatalf("expected a blocked source at score 10, got %+v", st)
	}
}

func TestSourceBlockExpires(t *testing.T) {
	engine, clk := newMemoryEngine(t, reputationTestConfig())
	req := loginReq("203.0.113.7", "alice")

	for i := 0; i < 4; i++ {
		mustReport(t, engine, req, OutcomeFailure)
	}

	// Past the block expiry the windows have slid empty as well, so the
	// source is admitted again.
	clk.Advance(time.Hour + time.Second)

	d := mustEvaluate(t, engine, req)
	if !d.Allowed {
		t.Fatalf("expected an expired block to admit again, got %+v", d)
	}

	st, err := engine.GetReputation(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("GetReputation failed: %v", err)
	}
	if st.Blocked {
		t.Fatalf("expected no active block, got %+v", st)
	}
}

func TestReputationDisabledStaysPassive(t *testing.T) {
	cfg := reputationTestConfig()
	cfg.Reputation.Enabled = false
	engine, _ := newMemoryEngine(t, cfg)
	req := loginReq("203.0.113.7", "alice")

	for i := 0; i < 10; i++ {
		mustReport(t, engine, req, OutcomeFailure)
	}

	st, err := engine.GetReputation(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("GetReputation failed: %v", err)
	}
	if st.Score != 0 || st.Blocked {
		t.Fatalf("expected a passive tracker, got %+v", st)
	}

	// The exhausted window still denies, but never as source-blocked.
	d := mustEvaluate(t, engine, req)
	if d.Reason != ReasonRateLimited {
		t.Fatalf("expected rate-limited, got %q", d.Reason)
	}

	page, err := engine.ListEvents(context.Background(), EventFilter{Type: "source_blocked"})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(page.Events) != 0 {
		t.Fatalf("expected no source_blocked events, got %d", len(page.Events))
	}
}
