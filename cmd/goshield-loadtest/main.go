package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goShield "github.com/MrEthical07/goShield"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v2"
)

type scenario struct {
	Sources     int           `yaml:"sources"`
	Accounts    int           `yaml:"accounts"`
	Rate        float64       `yaml:"rate"`
	FailureRate float64       `yaml:"failure_rate"`
	Classes     []classWeight `yaml:"classes"`
}

type classWeight struct {
	Class  string `yaml:"class"`
	Weight int    `yaml:"weight"`
}

func defaultScenario() scenario {
	return scenario{
		Sources:     500,
		Accounts:    2000,
		FailureRate: 0.3,
		Classes: []classWeight{
			{Class: string(goShield.ClassLogin), Weight: 70},
			{Class: string(goShield.ClassSensitiveForm), Weight: 20},
			{Class: string(goShield.ClassAdminAction), Weight: 10},
		},
	}
}

func main() {
	var (
		ops          = flag.Int("ops", 200000, "operations per phase (evaluate + report)")
		concurrency  = flag.Int("concurrency", 256, "number of concurrent workers")
		redisAddr    = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		scenarioPath = flag.String("scenario", "", "yaml scenario file overriding the built-in traffic mix")
		pace         = flag.Float64("rate", 0, "target ops/sec across all workers; 0 = unpaced")
	)
	flag.Parse()

	if *ops <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "ops and concurrency must be > 0")
		os.Exit(2)
	}

	sc := defaultScenario()
	if *scenarioPath != "" {
		raw, err := os.ReadFile(*scenarioPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read scenario: %v\n", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(raw, &sc); err != nil {
			fmt.Fprintf(os.Stderr, "parse scenario: %v\n", err)
			os.Exit(1)
		}
	}
	if *pace > 0 {
		sc.Rate = *pace
	}
	if sc.Sources <= 0 || sc.Accounts <= 0 || len(sc.Classes) == 0 {
		fmt.Fprintln(os.Stderr, "scenario needs sources, accounts and at least one class")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("target: miniredis %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("target: redis %s\n", addr)
	}
	defer cleanup()

	engine, err := goShield.New().
		WithConfig(goShield.HighThroughputConfig()).
		WithRedis(client).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	p := newPicker(sc.Classes)
	limiter := paceLimiter(sc.Rate)

	evalSummary := runPhase(ctx, "evaluate", *ops, *concurrency, limiter,
		func(ctx context.Context, r *rand.Rand) error {
			_, err := engine.Evaluate(ctx, requestFor(r, sc, p))
			return err
		})

	reportSummary := runPhase(ctx, "evaluate+report", *ops, *concurrency, limiter,
		func(ctx context.Context, r *rand.Rand) error {
			req := requestFor(r, sc, p)
			decision, err := engine.Evaluate(ctx, req)
			if err != nil || !decision.Allowed {
				return err
			}
			outcome := goShield.OutcomeSuccess
			if r.Float64() < sc.FailureRate {
				outcome = goShield.OutcomeFailure
			}
			return engine.Report(ctx, req, outcome)
		})

	fmt.Println("== results ==")
	printSummary("evaluate", evalSummary)
	printSummary("evaluate+report", reportSummary)

	snap := engine.MetricsSnapshot()
	fmt.Printf("allowed=%d denied=%d degraded=%d\n",
		snap.Counters[goShield.MetricEvaluateAllowed],
		snap.Counters[goShield.MetricEvaluateDenied],
		snap.Counters[goShield.MetricDegradedMode],
	)
}

type picker struct {
	classes []classWeight
	total   int
}

func newPicker(classes []classWeight) picker {
	total := 0
	for _, c := range classes {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	return picker{classes: classes, total: total}
}

func (p picker) pick(r *rand.Rand) string {
	if p.total <= 0 {
		return p.classes[0].Class
	}
	n := r.Intn(p.total)
	for _, c := range p.classes {
		if c.Weight <= 0 {
			continue
		}
		if n < c.Weight {
			return c.Class
		}
		n -= c.Weight
	}
	return p.classes[len(p.classes)-1].Class
}

func requestFor(r *rand.Rand, sc scenario, p picker) goShield.AccessRequest {
	return goShield.AccessRequest{
		Source:  fmt.Sprintf("10.0.%d.%d", r.Intn(sc.Sources)/256, r.Intn(sc.Sources)%256),
		Account: fmt.Sprintf("user-%d", r.Intn(sc.Accounts)),
		Class:   goShield.ActionClass(p.pick(r)),
	}
}

// runPhase drives op from a worker pool until ops operations have been
// claimed, recording per-operation latency and failures.
func runPhase(ctx context.Context, name string, ops, concurrency int, limiter *rate.Limiter, op func(context.Context, *rand.Rand) error) phaseSummary {
	rec := newLatencyRecorder(ops)
	var cursor int64

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		worker := w
		g.Go(func() error {
			r := rand.New(rand.NewSource(time.Now().UnixNano() ^ (int64(worker+1) << 17)))
			for atomic.AddInt64(&cursor, 1) <= int64(ops) {
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						return err
					}
				}
				t0 := time.Now()
				err := op(gctx, r)
				rec.record(time.Since(t0), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "%s phase: %v\n", name, err)
	}
	return rec.summarize(time.Since(start))
}

func paceLimiter(opsPerSec float64) *rate.Limiter {
	if opsPerSec <= 0 {
		return nil
	}
	burst := int(opsPerSec / 10)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(opsPerSec), burst)
}

// latencyRecorder collects per-operation samples from many workers.
type latencyRecorder struct {
	mu       sync.Mutex
	samples  []time.Duration
	failures int64
}

func newLatencyRecorder(capacity int) *latencyRecorder {
	return &latencyRecorder{samples: make([]time.Duration, 0, capacity)}
}

func (lr *latencyRecorder) record(d time.Duration, err error) {
	if err != nil {
		atomic.AddInt64(&lr.failures, 1)
	}
	lr.mu.Lock()
	lr.samples = append(lr.samples, d)
	lr.mu.Unlock()
}

func (lr *latencyRecorder) summarize(elapsed time.Duration) phaseSummary {
	lr.mu.Lock()
	samples := lr.samples
	lr.mu.Unlock()

	failures := atomic.LoadInt64(&lr.failures)
	if len(samples) == 0 {
		return phaseSummary{elapsed: elapsed, failures: failures}
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseSummary{
		elapsed:    elapsed,
		ops:        len(samples),
		failures:   failures,
		throughput: float64(len(samples)) / elapsed.Seconds(),
		p50:        percentile(samples, 50),
		p95:        percentile(samples, 95),
		p99:        percentile(samples, 99),
	}
}

type phaseSummary struct {
	elapsed    time.Duration
	ops        int
	failures   int64
	throughput float64
	p50        time.Duration
	p95        time.Duration
	p99        time.Duration
}

// percentile expects sorted samples and uses nearest-rank selection.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	return sorted[(len(sorted)-1)*p/100]
}

func printSummary(name string, s phaseSummary) {
	fmt.Printf("%-16s ops=%d fail=%d elapsed=%s throughput=%.0f/s p50=%s p95=%s p99=%s\n",
		name+":",
		s.ops,
		s.failures,
		s.elapsed.Round(time.Millisecond),
		s.throughput,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
