package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/runner/action"
	"github.com/gate4ai/leadsuite/runner/pages"
	"github.com/gate4ai/leadsuite/runner/session"
	"github.com/gate4ai/leadsuite/shared/config"
	"github.com/gate4ai/leadsuite/shared/fakedata"
	"github.com/gate4ai/leadsuite/shared/logging"
	"github.com/gate4ai/leadsuite/shared/selectors"
)

// Live runs case attempts against a real browser, one session per attempt.
type Live struct {
	Suite       *config.Suite
	Browser     playwright.Browser
	Playwright  *playwright.Playwright
	Selectors   selectors.Set
	Credentials config.Credentials
	// LoginURL is the page Login navigates to.
	LoginURL string
	Logger   *zap.Logger
}

// ActionOptions maps the configured timeouts, waits and typing delays onto action options.
func ActionOptions(cfg *config.Suite, sel selectors.Set) action.Options {
	return action.Options{
		ActionTimeout:        cfg.Timeouts.Action,
		ExpectTimeout:        cfg.Timeouts.Expect,
		VisibleTimeout:       cfg.Timeouts.Visible,
		AttachedTimeout:      cfg.Timeouts.Attached,
		MinWait:              cfg.Waits.Min,
		MediumWait:           cfg.Waits.Medium,
		MaxWait:              cfg.Waits.Max,
		KeystrokeDelay:       cfg.Typing.KeystrokeDelay,
		SubmitKeystrokeDelay: cfg.Typing.SubmitKeystrokeDelay,
		SpinnerLocator:       sel.Spinner,
	}
}

// AttemptSeed derives the synthetic-data seed of one attempt of one repetition of the case
// at index. A zero base seed stays zero, which draws a random seed.
func AttemptSeed(base uint64, index, repeat, attempt int) uint64 {
	if base == 0 {
		return 0
	}
	return base + uint64(index)*1_000_000 + uint64(repeat)*1000 + uint64(attempt)
}

// recorder is the part of a session an attempt reports back to.
type recorder interface {
	WriteSteps(steps []*action.StepRecord) error
	Close(failed bool) error
}

// finish writes the step log and closes the session with the attempt's outcome. It must be
// deferred directly: a panicking attempt closes as failed and keeps panicking.
func finish(r recorder, stepper *action.Stepper, logger *zap.Logger, err *error) {
	p := recover()
	failed := p != nil || *err != nil
	if werr := r.WriteSteps(stepper.Steps()); werr != nil {
		logger.Warn("Could not write steps", zap.Error(werr))
	}
	if cerr := r.Close(failed); cerr != nil && !failed {
		*err = cerr
	}
	if p != nil {
		panic(p)
	}
}

// Attempt is a Func: it opens a session, runs CreateLead inside a step named after the
// case and closes the session with the outcome.
func (l Live) Attempt(ctx context.Context, c Case, attempt int) (err error) {
	if l.Browser == nil {
		return errors.New("no browser")
	}
	logger := logging.OrNop(l.Logger)

	name := c.Name
	if c.Repeat > 0 {
		name = fmt.Sprintf("%s #%d", c.Name, c.Repeat+1)
	}
	s, err := session.Open(l.Browser, session.Options{
		Name:       name,
		Attempt:    attempt,
		Suite:      l.Suite,
		Playwright: l.Playwright,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	stepper := action.NewStepper(logger)
	defer finish(s, stepper, logger, &err)

	acts := action.New(s.Driver, stepper, logger, ActionOptions(l.Suite, l.Selectors))
	p := pages.New(acts, l.Selectors, l.LoginURL, logger)
	gen := fakedata.New(AttemptSeed(l.Suite.Run.Seed, c.Index, c.Repeat, attempt))

	return stepper.Step(ctx, c.Name, func(ctx context.Context) error {
		created, err := CreateLead(ctx, p, l.Credentials, c.Lead, gen)
		if err != nil {
			return fmt.Errorf("lead %s %s: %w", created.FirstName, created.LastName, err)
		}
		logger.Info("Lead created",
			zap.String("case", c.Name),
			zap.String("first_name", created.FirstName),
			zap.String("last_name", created.LastName),
			zap.String("company", created.Company))
		return nil
	})
}
