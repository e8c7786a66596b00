package batch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sshcheck/internal/domain"
	"github.com/hamed0406/sshcheck/internal/probe"
)

// DefaultConcurrency is the cap used when a caller does not pick one.
// Deployments keep it at 10 regardless of batch size.
const DefaultConcurrency = 10

// ProgressFunc receives one call per completed probe, in completion order.
// completed counts results produced so far, total is the batch size.
type ProgressFunc func(completed, total int, result domain.ProbeResult)

// Runner fans a batch of probe requests out to a Prober under a hard
// concurrency cap. All state is scoped to a single Run call; a Runner is safe
// to reuse and to share between goroutines.
type Runner struct {
	Logger      *zap.Logger
	Prober      probe.Prober
	Concurrency int
}

func NewRunner(logger *zap.Logger, p probe.Prober, concurrency int) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	return &Runner{Logger: logger, Prober: p, Concurrency: concurrency}
}

// Run probes every request and returns one result per request, in input
// order. Progress callbacks fire in completion order. Invalid configuration
// and malformed requests are rejected before any probing starts; per-host
// failures never surface as errors, only as result statuses.
//
// Cancelling ctx stops admission of queued requests; probes already in
// flight run to their own deadline and their results are kept. The returned
// slice then holds only the results actually produced, still in input order.
func (r *Runner) Run(ctx context.Context, requests []domain.ProbeRequest, onProgress ProgressFunc) ([]domain.ProbeResult, error) {
	if r.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency %d must be at least 1", r.Concurrency)
	}
	var verr error
	for i, req := range requests {
		if err := req.Validate(); err != nil {
			verr = multierr.Append(verr, fmt.Errorf("request %d (%s): %w", i, req.Host, err))
		}
	}
	if verr != nil {
		return nil, verr
	}
	if len(requests) == 0 {
		return []domain.ProbeResult{}, nil
	}

	total := len(requests)
	// Slots are keyed by input position so the final slice preserves input
	// order no matter when each probe finishes.
	slots := make([]*domain.ProbeResult, total)

	// In-flight probes outlive a cancelled batch on purpose: they are
	// bounded by their own per-request timeout.
	probeCtx := context.WithoutCancel(ctx)

	sem := make(chan struct{}, r.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

admit:
	for i, req := range requests {
		// Checked ahead of the select so cancellation wins over a free slot.
		if ctx.Err() != nil {
			r.Logger.Info("batch_cancelled",
				zap.Int("admitted", i),
				zap.Int("total", total),
			)
			break admit
		}
		select {
		case <-ctx.Done():
			r.Logger.Info("batch_cancelled",
				zap.Int("admitted", i),
				zap.Int("total", total),
			)
			break admit
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, req domain.ProbeRequest) {
			defer wg.Done()
			defer func() { <-sem }()

			res := r.Prober.Probe(probeCtx, req)

			mu.Lock()
			slots[i] = &res
			completed++
			done := completed
			r.notify(onProgress, done, total, res)
			mu.Unlock()

			r.Logger.Debug("probe_done",
				zap.String("host", req.Host),
				zap.Int("port", req.Port),
				zap.String("status", string(res.Status)),
				zap.Float64("response_time_ms", res.ResponseTimeMS),
			)
		}(i, req)
	}

	wg.Wait()

	results := make([]domain.ProbeResult, 0, total)
	for _, s := range slots {
		if s != nil {
			results = append(results, *s)
		}
	}
	return results, nil
}

// notify invokes the progress callback, swallowing panics so a broken sink
// cannot abort the batch.
func (r *Runner) notify(fn ProgressFunc, completed, total int, res domain.ProbeResult) {
	if fn == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Warn("progress_callback_panic", zap.Any("panic", rec))
		}
	}()
	fn(completed, total, res)
}
