package lockout

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Enabled:      true,
		Threshold:    3,
		BaseDuration: time.Minute,
		CapDuration:  5 * time.Minute,
		IdleTTL:      time.Hour,
	}
}

func newTestTracker(cfg Config) (*Tracker, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	return NewTracker(NewMemory(func() time.Time { return *clock }), cfg), clock
}

func TestTrackerFailBelowThresholdStaysActive(t *testing.T) {
	tr, clock := newTestTracker(testConfig())
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		st, justLocked, err := tr.Fail(ctx, "alice", *clock)
		if err != nil {
			t.Fatalf("Fail %d failed: %v", i, err)
		}
		if justLocked {
			t.Fatalf("Fail %d: unexpected lock below threshold", i)
		}
		if st.State != StateActive {
			t.Fatalf("Fail %d: expected active, got %s", i, st.State)
		}
		if st.ConsecutiveFailures != uint64(i) {
			t.Fatalf("Fail %d: expected %d failures, got %d", i, i, st.ConsecutiveFailures)
		}
	}
}

func TestTrackerFailAtThresholdLocks(t *testing.T) {
	tr, clock := newTestTracker(testConfig())
	ctx := context.Background()

	tr.Fail(ctx, "alice", *clock)
	tr.Fail(ctx, "alice", *clock)

	st, justLocked, err := tr.Fail(ctx, "alice", *clock)
	if err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	if !justLocked {
		t.Fatal("expected the threshold failure to lock")
	}
	if st.State != StateLocked {
		t.Fatalf("expected locked, got %s", st.State)
	}
	want := clock.Add(time.Minute)
	if !st.LockedUntil.Equal(want) {
		t.Fatalf("expected lock until %v, got %v", want, st.LockedUntil)
	}
	if st.RetryAfter != time.Minute {
		t.Fatalf("expected retry after 1m, got %v", st.RetryAfter)
	}
}

func TestTrackerLockDurationDoublesPerExtraFailure(t *testing.T) {
	tr, clock := newTestTracker(testConfig())
	ctx := context.Background()

	durations := make([]time.Duration, 0, 4)
	for i := 0; i < 6; i++ {
		st, _, err := tr.Fail(ctx, "alice", *clock)
		if err != nil {
			t.Fatalf("Fail failed: %v", err)
		}
		if st.State == StateLocked {
			durations = append(durations, st.RetryAfter)
		}
	}

	// Failures 3..6 lock for 1m, 2m, 4m, then the cap at 5m.
	want := []time.Duration{time.Minute, 2 * time.Minute, 4 * time.Minute, 5 * time.Minute}
	if len(durations) != len(want) {
		t.Fatalf("expected %d locks, got %d", len(want), len(durations))
	}
	for i := range want {
		if durations[i] != want[i] {
			t.Fatalf("lock %d: expected %v, got %v", i, want[i], durations[i])
		}
	}
}

func TestTrackerStatusReflectsExpiry(t *testing.T) {
	tr, clock := newTestTracker(testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tr.Fail(ctx, "alice", *clock)
	}

	st, err := tr.Status(ctx, "alice", *clock)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.State != StateLocked {
		t.Fatalf("expected locked, got %s", st.State)
	}
	if st.RetryAfter != time.Minute {
		t.Fatalf("expected retry after 1m, got %v", st.RetryAfter)
	}

	// Past the lock expiry the account reads active again, failures intact.
	later := clock.Add(time.Minute + time.Second)
	st, err = tr.Status(ctx, "alice", later)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.State != StateActive {
		t.Fatalf("expected active after expiry, got %s", st.State)
	}
	if st.ConsecutiveFailures != 3 {
		t.Fatalf("expected failure count to persist, got %d", st.ConsecutiveFailures)
	}
	if st.RetryAfter != 0 {
		t.Fatalf("expected zero retry after expiry, got %v", st.RetryAfter)
	}
}

func TestTrackerResetClearsRecord(t *testing.T) {
	tr, clock := newTestTracker(testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tr.Fail(ctx, "alice", *clock)
	}

	cleared, err := tr.Reset(ctx, "alice")
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if !cleared {
		t.Fatal("expected Reset to report a cleared record")
	}

	st, err := tr.Status(ctx, "alice", *clock)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.State != StateActive || st.ConsecutiveFailures != 0 {
		t.Fatalf("expected a clean record, got %+v", st)
	}

	cleared, err = tr.Reset(ctx, "alice")
	if err != nil {
		t.Fatalf("second Reset failed: %v", err)
	}
	if cleared {
		t.Fatal("expected second Reset to find nothing")
	}
}

func TestTrackerFailureCountSurvivesElapsedLock(t *testing.T) {
	tr, clock := newTestTracker(testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tr.Fail(ctx, "alice", *clock)
	}

	// Another failure after the lock lapsed relocks immediately for longer.
	later := clock.Add(2 * time.Minute)
	st, justLocked, err := tr.Fail(ctx, "alice", later)
	if err != nil {
		t.Fatalf("Fail failed: %v", err)
	}
	if !justLocked || st.State != StateLocked {
		t.Fatalf("expected immediate relock, got %+v", st)
	}
	if st.RetryAfter != 2*time.Minute {
		t.Fatalf("expected doubled lock of 2m, got %v", st.RetryAfter)
	}
}

func TestTrackerDisabledIsPassive(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	tr, clock := newTestTracker(cfg)
	ctx := context.Background()

	st, justLocked, err := tr.Fail(ctx, "alice", *clock)
	if err != nil || justLocked {
		t.Fatalf("expected passive Fail, got locked=%v err=%v", justLocked, err)
	}
	if st.State != StateActive {
		t.Fatalf("expected active, got %s", st.State)
	}
	if tr.Enabled() {
		t.Fatal("expected Enabled to report false")
	}
}

func TestTrackerEmptyAccountIsPassive(t *testing.T) {
	tr, clock := newTestTracker(testConfig())
	ctx := context.Background()

	st, justLocked, err := tr.Fail(ctx, "", *clock)
	if err != nil || justLocked || st.State != StateActive {
		t.Fatalf("expected passive handling of empty account, got %+v locked=%v err=%v", st, justLocked, err)
	}

	status, err := tr.Status(ctx, "", *clock)
	if err != nil || status.State != StateActive {
		t.Fatalf("expected active status for empty account, got %+v err=%v", status, err)
	}
}

func TestTrackerIdleRecordExpires(t *testing.T) {
	tr, clock := newTestTracker(testConfig())
	ctx := context.Background()

	tr.Fail(ctx, "alice", *clock)

	// Advance the store clock past the idle TTL; the record is gone.
	*clock = clock.Add(2 * time.Hour)
	st, err := tr.Status(ctx, "alice", *clock)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.ConsecutiveFailures != 0 {
		t.Fatalf("expected idle record to expire, got %d failures", st.ConsecutiveFailures)
	}
}

func TestTrackerStoreErrorsPropagate(t *testing.T) {
	errDown := errors.New("down")
	tr := NewTracker(failingLockoutStore{err: errDown}, testConfig())
	ctx := context.Background()

	if _, _, err := tr.Fail(ctx, "alice", time.Now()); !errors.Is(err, errDown) {
		t.Fatalf("expected store error from Fail, got %v", err)
	}
	if _, err := tr.Status(ctx, "alice", time.Now()); !errors.Is(err, errDown) {
		t.Fatalf("expected store error from Status, got %v", err)
	}
	if _, err := tr.Reset(ctx, "alice"); !errors.Is(err, errDown) {
		t.Fatalf("expected store error from Reset, got %v", err)
	}
}

type failingLockoutStore struct {
	err error
}

func (f failingLockoutStore) Fail(context.Context, string, time.Time, time.Duration) (uint64, error) {
	return 0, f.err
}

func (f failingLockoutStore) Lock(context.Context, string, time.Time, time.Duration) error {
	return f.err
}

func (f failingLockoutStore) Get(context.Context, string) (uint64, time.Time, time.Time, error) {
	return 0, time.Time{}, time.Time{}, f.err
}

func (f failingLockoutStore) Clear(context.Context, string) (bool, error) {
	return false, f.err
}
