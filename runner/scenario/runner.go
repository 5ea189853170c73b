package scenario

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/gate4ai/leadsuite/shared/logging"
)

// Func runs one attempt of a case. attempt starts at 1.
type Func func(ctx context.Context, c Case, attempt int) error

// Result is the outcome of one case run.
type Result struct {
	Case Case
	// Repeat is the zero-based repetition when RepeatEach is used.
	Repeat   int
	Attempts int
	Duration time.Duration
	Err      error
}

func (r Result) Passed() bool { return r.Err == nil }

// Name is the case name, suffixed with the repetition when there is more than one.
func (r Result) Name(repeats int) string {
	if repeats > 1 {
		return fmt.Sprintf("%s #%d", r.Case.Name, r.Repeat+1)
	}
	return r.Case.Name
}

// Runner executes cases as independent units. A failing case never stops the others.
type Runner struct {
	// Workers bounds how many cases run at once. Values below 1 mean 1.
	Workers int
	// Retries is how many extra attempts a failing case gets.
	Retries int
	// RepeatEach runs every case this many times when greater than zero.
	RepeatEach int
	// Timeout bounds each attempt when greater than zero.
	Timeout time.Duration
	// RetryBackoff is the first pause before a retry; later pauses grow exponentially.
	// Zero retries immediately.
	RetryBackoff time.Duration
	// StartsPerMinute paces attempt starts across all workers when greater than zero.
	StartsPerMinute int
	// Limiter paces attempt starts instead of StartsPerMinute. Share one to pace several
	// runners together.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// NewStartLimiter paces starts to perMinute, or returns nil when perMinute is not positive.
func NewStartLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perMinute)/60.0, 1)
}

// Run executes every case and returns the results in case order, repetitions adjacent.
func (r Runner) Run(ctx context.Context, cases []Case, fn Func) []Result {
	logger := logging.OrNop(r.Logger)
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	repeats := r.RepeatEach
	if repeats < 1 {
		repeats = 1
	}

	limiter := r.Limiter
	if limiter == nil {
		limiter = NewStartLimiter(r.StartsPerMinute)
	}

	results := make([]Result, len(cases)*repeats)
	var g errgroup.Group
	g.SetLimit(workers)
	for i, c := range cases {
		for rep := 0; rep < repeats; rep++ {
			slot := i*repeats + rep
			g.Go(func() error {
				results[slot] = r.runCase(ctx, logger, limiter, c, rep, fn)
				return nil
			})
		}
	}
	_ = g.Wait()
	return results
}

func (r Runner) runCase(ctx context.Context, logger *zap.Logger, limiter *rate.Limiter, c Case, rep int, fn Func) Result {
	c.Repeat = rep
	res := Result{Case: c, Repeat: rep}
	start := time.Now()
	maxAttempts := 1 + max(r.Retries, 0)
	pauses := r.retryPauses()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, pauses.NextBackOff()); err != nil {
				break
			}
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				if res.Err == nil {
					res.Err = err
				}
				break
			}
		}
		if err := ctx.Err(); err != nil {
			if res.Err == nil {
				res.Err = err
			}
			break
		}
		res.Attempts = attempt
		res.Err = r.attempt(ctx, c, attempt, fn)
		if res.Err == nil {
			break
		}
		logger.Warn("Case attempt failed",
			zap.String("case", c.Name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(res.Err))
	}
	res.Duration = time.Since(start)

	if res.Err != nil {
		logger.Error("Case failed", zap.String("case", c.Name), zap.Int("attempts", res.Attempts), zap.Duration("duration", res.Duration), zap.Error(res.Err))
	} else {
		logger.Info("Case passed", zap.String("case", c.Name), zap.Int("attempts", res.Attempts), zap.Duration("duration", res.Duration))
	}
	return res
}

// retryPauses returns the pause sequence between attempts of one case.
func (r Runner) retryPauses() backoff.BackOff {
	if r.RetryBackoff <= 0 {
		return &backoff.ZeroBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.RetryBackoff
	b.MaxInterval = 10 * r.RetryBackoff
	// Retries are bounded by count, not by elapsed time.
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r Runner) attempt(ctx context.Context, c Case, attempt int, fn Func) (err error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("case %q panicked: %v", c.Name, p)
		}
	}()
	return fn(ctx, c, attempt)
}

// Failed counts the failed results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed() {
			n++
		}
	}
	return n
}
