package action

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StepRecord is one closed (or still running) step and its children.
type StepRecord struct {
	Name     string
	Started  time.Time
	Duration time.Duration
	Err      error
	Children []*StepRecord
}

// Failed reports whether the step or any of its children failed.
func (r *StepRecord) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, c := range r.Children {
		if c.Failed() {
			return true
		}
	}
	return false
}

type stepKey struct{}

// Stepper opens named, nested tracing scopes. It is safe for concurrent use, though a
// scenario normally owns its own Stepper.
type Stepper struct {
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	roots []*StepRecord
}

func NewStepper(logger *zap.Logger) *Stepper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stepper{logger: logger, now: time.Now}
}

// Step runs fn inside a step called name. Steps opened with the context passed to fn
// become children of this one. The step is closed whatever fn returns, and fn's error
// is returned unchanged. A panic in fn closes the step as failed and keeps panicking.
func (s *Stepper) Step(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	rec := &StepRecord{Name: name, Started: s.now()}

	s.mu.Lock()
	if parent, ok := ctx.Value(stepKey{}).(*StepRecord); ok && parent != nil {
		parent.Children = append(parent.Children, rec)
	} else {
		s.roots = append(s.roots, rec)
	}
	s.mu.Unlock()

	s.logger.Debug("Step started", zap.String("step", name))

	var err error
	defer func() {
		p := recover()
		if p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		s.mu.Lock()
		rec.Duration = s.now().Sub(rec.Started)
		rec.Err = err
		s.mu.Unlock()
		if err != nil {
			s.logger.Warn("Step failed", zap.String("step", name), zap.Duration("duration", rec.Duration), zap.Error(err))
		} else {
			s.logger.Debug("Step passed", zap.String("step", name), zap.Duration("duration", rec.Duration))
		}
		if p != nil {
			panic(p)
		}
	}()

	err = fn(context.WithValue(ctx, stepKey{}, rec))
	return err
}

// Steps returns the top-level steps recorded so far.
func (s *Stepper) Steps() []*StepRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*StepRecord, len(s.roots))
	copy(out, s.roots)
	return out
}

// Reset drops all recorded steps, for reuse across retry attempts.
func (s *Stepper) Reset() {
	s.mu.Lock()
	s.roots = nil
	s.mu.Unlock()
}
