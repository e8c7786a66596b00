package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sshcheck/internal/domain"
)

// fakeProber records how many probes are inside their blocking phase at once.
type fakeProber struct {
	delay  time.Duration
	status domain.Status

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	calls       int
}

func (f *fakeProber) Probe(_ context.Context, req domain.ProbeRequest) domain.ProbeResult {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	status := f.status
	if status == "" {
		status = domain.StatusConnected
	}
	return domain.ProbeResult{
		Host:      req.Host,
		Port:      req.Port,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}

func makeRequests(n int) []domain.ProbeRequest {
	reqs := make([]domain.ProbeRequest, n)
	for i := range reqs {
		reqs[i] = domain.ProbeRequest{Host: fmt.Sprintf("host-%02d", i)}
		reqs[i].Normalize()
	}
	return reqs
}

func TestRunner_ConcurrencyCapHolds(t *testing.T) {
	fp := &fakeProber{delay: 20 * time.Millisecond}
	r := NewRunner(zap.NewNop(), fp, 3)

	results, err := r.Run(context.Background(), makeRequests(20), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 20 {
		t.Fatalf("want 20 results, got %d", len(results))
	}
	if fp.maxInFlight > 3 {
		t.Fatalf("concurrency cap violated: %d probes in flight", fp.maxInFlight)
	}
	if fp.maxInFlight < 2 {
		t.Fatalf("pool barely used, max in flight %d", fp.maxInFlight)
	}
}

func TestRunner_ResultsPreserveInputOrder(t *testing.T) {
	fp := &fakeProber{delay: 5 * time.Millisecond}
	r := NewRunner(zap.NewNop(), fp, 8)

	reqs := makeRequests(25)
	results, err := r.Run(context.Background(), reqs, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, res := range results {
		if res.Host != reqs[i].Host {
			t.Fatalf("result %d out of order: want %s got %s", i, reqs[i].Host, res.Host)
		}
	}
}

func TestRunner_DuplicatesGetIndependentResults(t *testing.T) {
	fp := &fakeProber{}
	r := NewRunner(zap.NewNop(), fp, 4)

	reqs := []domain.ProbeRequest{
		{Host: "dup.example.com"},
		{Host: "dup.example.com"},
		{Host: "dup.example.com"},
	}
	for i := range reqs {
		reqs[i].Normalize()
	}

	results, err := r.Run(context.Background(), reqs, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 3 || fp.calls != 3 {
		t.Fatalf("want 3 independent probes, got %d results / %d calls", len(results), fp.calls)
	}
}

func TestRunner_EmptyInput(t *testing.T) {
	r := NewRunner(zap.NewNop(), &fakeProber{}, 5)
	ticks := 0
	results, err := r.Run(context.Background(), nil, func(int, int, domain.ProbeResult) { ticks++ })
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("want empty results, got %d", len(results))
	}
	if ticks != 0 {
		t.Fatalf("want zero progress callbacks, got %d", ticks)
	}
}

func TestRunner_ProgressCountsEveryCompletion(t *testing.T) {
	fp := &fakeProber{delay: 2 * time.Millisecond}
	r := NewRunner(zap.NewNop(), fp, 4)

	var mu sync.Mutex
	seen := map[int]bool{}
	lastTotal := 0
	results, err := r.Run(context.Background(), makeRequests(12), func(completed, total int, res domain.ProbeResult) {
		mu.Lock()
		defer mu.Unlock()
		if seen[completed] {
			// completed must be a strictly increasing running count
			t.Errorf("completed=%d reported twice", completed)
		}
		seen[completed] = true
		lastTotal = total
		if res.Host == "" {
			t.Error("progress callback missing result")
		}
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 12 || len(seen) != 12 || !seen[12] || lastTotal != 12 {
		t.Fatalf("progress accounting off: results=%d ticks=%d", len(results), len(seen))
	}
}

func TestRunner_RejectsBadConfigurationUpFront(t *testing.T) {
	fp := &fakeProber{}

	r := &Runner{Logger: zap.NewNop(), Prober: fp, Concurrency: 0}
	if _, err := r.Run(context.Background(), makeRequests(2), nil); err == nil {
		t.Fatal("want error for concurrency < 1")
	}

	r = NewRunner(zap.NewNop(), fp, 2)
	bad := []domain.ProbeRequest{{Host: "ok.example.com", Port: 22, TimeoutSeconds: 5}, {Host: "", Port: 22, TimeoutSeconds: 5}}
	_, err := r.Run(context.Background(), bad, nil)
	if err == nil {
		t.Fatal("want validation error for missing host")
	}
	if !strings.Contains(err.Error(), "request 1") {
		t.Fatalf("error should name the offending request: %v", err)
	}
	if fp.calls != 0 {
		t.Fatalf("no probe may start before validation passes, got %d calls", fp.calls)
	}
}

func TestRunner_CallbackPanicDoesNotAbortBatch(t *testing.T) {
	fp := &fakeProber{}
	r := NewRunner(zap.NewNop(), fp, 2)

	results, err := r.Run(context.Background(), makeRequests(6), func(completed, _ int, _ domain.ProbeResult) {
		if completed == 1 {
			panic("sink exploded")
		}
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("batch aborted by callback panic: %d results", len(results))
	}
}

func TestRunner_CancellationKeepsPartialResults(t *testing.T) {
	fp := &fakeProber{delay: 25 * time.Millisecond}
	r := NewRunner(zap.NewNop(), fp, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := r.Run(ctx, makeRequests(10), func(completed, _ int, _ domain.ProbeResult) {
		if completed == 1 {
			cancel()
		}
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) == 0 || len(results) >= 10 {
		t.Fatalf("want partial results after cancellation, got %d", len(results))
	}
	// Whatever was produced must still be ordered and complete records.
	for _, res := range results {
		if res.Host == "" || res.Status == "" {
			t.Fatalf("partial result incomplete: %+v", res)
		}
	}
}
