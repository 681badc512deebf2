//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"
	"time"

	goShield "github.com/MrEthical07/goShield"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// adjustableClock moves engine time without touching the Redis server clock.
// Window cutoffs are computed from this clock, so advancing it slides the
// sliding windows on any backend.
type adjustableClock struct {
	mu  sync.Mutex
	now time.Time
}

func newAdjustableClock() *adjustableClock {
	return &adjustableClock{now: time.Now()}
}

func (c *adjustableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *adjustableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func integrationConfig() goShield.Config {
	cfg := goShield.DefaultConfig()
	cfg.Backend.JanitorInterval = 0
	return cfg
}

func newIntegrationRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return rdb, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func buildEngineOn(t *testing.T, rdb redis.UniversalClient, cfg goShield.Config, clk goShield.Clock) *goShield.Engine {
	t.Helper()

	engine, err := goShield.New().WithConfig(cfg).WithRedis(rdb).WithClock(clk).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine
}

func newIntegrationEngine(t *testing.T, cfg goShield.Config) (*goShield.Engine, *miniredis.Miniredis, *adjustableClock, func()) {
	t.Helper()

	rdb, mr, cleanup := newIntegrationRedis(t)
	clk := newAdjustableClock()
	engine := buildEngineOn(t, rdb, cfg, clk)

	return engine, mr, clk, func() {
		_ = engine.Close()
		cleanup()
	}
}

// uniqueID keeps identifiers distinct across runs so the suite stays clean
// against persistent Redis backends that are not flushed between runs.
func uniqueID(kind string) string {
	return kind + "-" + uuid.NewString()
}

func loginRequest(source, account string) goShield.AccessRequest {
	return goShield.AccessRequest{Source: source, Account: account, Class: goShield.ClassLogin}
}

func evaluate(t *testing.T, engine *goShield.Engine, req goShield.AccessRequest) goShield.Decision {
	t.Helper()

	dec, err := engine.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return dec
}

func reportFailure(t *testing.T, engine *goShield.Engine, req goShield.AccessRequest) {
	t.Helper()

	if err := engine.Report(context.Background(), req, goShield.OutcomeFailure); err != nil {
		t.Fatalf("Report(failure) failed: %v", err)
	}
}

func reportSuccess(t *testing.T, engine *goShield.Engine, req goShield.AccessRequest) {
	t.Helper()

	if err := engine.Report(context.Background(), req, goShield.OutcomeSuccess); err != nil {
		t.Fatalf("Report(success) failed: %v", err)
	}
}
