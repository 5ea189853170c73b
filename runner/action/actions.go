package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Pause classes accepted by Wait.
const (
	MinWait    = "minWait"
	MediumWait = "mediumWait"
	MaxWait    = "maxWait"
)

// Options bounds every wait an action performs. Zero fields take the defaults from
// DefaultOptions.
type Options struct {
	ActionTimeout   time.Duration
	ExpectTimeout   time.Duration
	VisibleTimeout  time.Duration
	AttachedTimeout time.Duration

	MinWait    time.Duration
	MediumWait time.Duration
	MaxWait    time.Duration

	KeystrokeDelay       time.Duration
	SubmitKeystrokeDelay time.Duration

	// SpinnerLocator is polled by WaitSpinnerGone.
	SpinnerLocator string
	PollInterval   time.Duration

	// Sleep pauses for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultOptions() Options {
	return Options{
		ActionTimeout:        10 * time.Second,
		ExpectTimeout:        15 * time.Second,
		VisibleTimeout:       20 * time.Second,
		AttachedTimeout:      30 * time.Second,
		MinWait:              3 * time.Second,
		MediumWait:           5 * time.Second,
		MaxWait:              10 * time.Second,
		KeystrokeDelay:       100 * time.Millisecond,
		SubmitKeystrokeDelay: 400 * time.Millisecond,
		SpinnerLocator:       "//div[@class='slds-spinner_container slds-grid']",
		PollInterval:         250 * time.Millisecond,
		Sleep:                sleepCtx,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	set := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	set(&o.ActionTimeout, d.ActionTimeout)
	set(&o.ExpectTimeout, d.ExpectTimeout)
	set(&o.VisibleTimeout, d.VisibleTimeout)
	set(&o.AttachedTimeout, d.AttachedTimeout)
	set(&o.MinWait, d.MinWait)
	set(&o.MediumWait, d.MediumWait)
	set(&o.MaxWait, d.MaxWait)
	set(&o.KeystrokeDelay, d.KeystrokeDelay)
	set(&o.SubmitKeystrokeDelay, d.SubmitKeystrokeDelay)
	set(&o.PollInterval, d.PollInterval)
	if o.SpinnerLocator == "" {
		o.SpinnerLocator = d.SpinnerLocator
	}
	if o.Sleep == nil {
		o.Sleep = d.Sleep
	}
	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Actions performs named UI steps against a Driver. It holds no state between calls.
type Actions struct {
	driver Driver
	steps  *Stepper
	logger *zap.Logger
	opts   Options
}

func New(driver Driver, steps *Stepper, logger *zap.Logger, opts Options) *Actions {
	if logger == nil {
		logger = zap.NewNop()
	}
	if steps == nil {
		steps = NewStepper(logger)
	}
	return &Actions{driver: driver, steps: steps, logger: logger, opts: opts.withDefaults()}
}

// Steps returns the stepper the actions record into.
func (a *Actions) Steps() *Stepper { return a.steps }

// Options returns the effective options.
func (a *Actions) Options() Options { return a.opts }

// call describes one action for logging and error reporting.
type call struct {
	step    string
	op      string
	element string
	locator string
	data    string
}

// run executes fn as a step. A failure is logged once and returned as *ActionError;
// errors that already are one pass through untouched.
func (a *Actions) run(ctx context.Context, c call, fn func(ctx context.Context) error) error {
	return a.steps.Step(ctx, c.step, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var ae *ActionError
		if errors.As(err, &ae) {
			return err
		}
		a.logger.Error("Action failed",
			zap.String("op", c.op),
			zap.String("element", c.element),
			zap.String("locator", c.locator),
			zap.String("data", c.data),
			zap.Error(err))
		return &ActionError{Op: c.op, Element: c.element, Locator: c.locator, Data: c.data, Err: err}
	})
}

// Navigate opens url and waits for the load event.
func (a *Actions) Navigate(ctx context.Context, url string) error {
	c := call{step: "Navigate to the page URL: " + url, op: "navigate", data: url}
	return a.run(ctx, c, func(ctx context.Context) error {
		if err := a.driver.Navigate(ctx, url); err != nil {
			return err
		}
		return a.driver.WaitForLoad(ctx)
	})
}

// Click waits for the element to be visible and clicks it. kind names the element type
// in the step, e.g. "button" or "link".
func (a *Actions) Click(ctx context.Context, locator, name, kind string) error {
	c := call{step: fmt.Sprintf("The %s %s clicked", name, kind), op: "click", element: name, locator: locator}
	return a.run(ctx, c, func(ctx context.Context) error {
		if err := a.driver.WaitForState(ctx, locator, StateVisible, a.opts.ActionTimeout); err != nil {
			return err
		}
		return a.driver.Click(ctx, locator)
	})
}

// Fill waits for the textbox, clears it and sets data.
func (a *Actions) Fill(ctx context.Context, locator, name, data string) error {
	c := call{step: fmt.Sprintf("Textbox %s filled with data: %s", name, data), op: "fill", element: name, locator: locator, data: data}
	return a.run(ctx, c, func(ctx context.Context) error {
		if err := a.driver.WaitForState(ctx, locator, StateVisible, a.opts.ActionTimeout); err != nil {
			return err
		}
		if err := a.driver.Clear(ctx, locator); err != nil {
			return err
		}
		return a.driver.SetValue(ctx, locator, data, false)
	})
}

// FillAndSubmit clears the textbox, force-sets data, focuses it and presses Enter.
func (a *Actions) FillAndSubmit(ctx context.Context, locator, name, data string) error {
	c := call{step: fmt.Sprintf("Textbox %s filled with data: %s", name, data), op: "fill and submit", element: name, locator: locator, data: data}
	return a.run(ctx, c, func(ctx context.Context) error {
		if err := a.driver.Clear(ctx, locator); err != nil {
			return err
		}
		if err := a.driver.SetValue(ctx, locator, data, true); err != nil {
			return err
		}
		if err := a.driver.Focus(ctx, locator); err != nil {
			return err
		}
		return a.driver.PressKey(ctx, locator, "Enter")
	})
}

// Type clears the textbox and types data key by key.
func (a *Actions) Type(ctx context.Context, locator, data string) error {
	c := call{step: "Textbox filled with data: " + data, op: "type", locator: locator, data: data}
	return a.run(ctx, c, func(ctx context.Context) error {
		if err := a.driver.Clear(ctx, locator); err != nil {
			return err
		}
		if err := a.driver.Focus(ctx, locator); err != nil {
			return err
		}
		return a.driver.TypeText(ctx, locator, data, a.opts.KeystrokeDelay)
	})
}

// TypeAndSubmit waits for the textbox to attach, types data slowly and presses Enter.
func (a *Actions) TypeAndSubmit(ctx context.Context, locator, name, data string) error {
	c := call{step: fmt.Sprintf("Textbox %s filled with data: %s", name, data), op: "type and submit", element: name, locator: locator, data: data}
	return a.run(ctx, c, func(ctx context.Context) error {
		if err := a.driver.WaitForState(ctx, locator, StateAttached, a.opts.AttachedTimeout); err != nil {
			return err
		}
		if err := a.driver.Clear(ctx, locator); err != nil {
			return err
		}
		if err := a.driver.TypeText(ctx, locator, data, a.opts.SubmitKeystrokeDelay); err != nil {
			return err
		}
		return a.driver.PressKey(ctx, locator, "Enter")
	})
}

// ReadText returns the visible text of the first element matching locator.
func (a *Actions) ReadText(ctx context.Context, locator string) (string, error) {
	var text string
	c := call{step: "Get text from: " + locator, op: "read text", locator: locator}
	err := a.run(ctx, c, func(ctx context.Context) error {
		t, found, err := a.driver.ReadText(ctx, locator)
		if err != nil {
			return err
		}
		if !found {
			return ErrNoText
		}
		text = t
		return nil
	})
	return text, err
}

func (a *Actions) WaitVisible(ctx context.Context, locator, name string) error {
	c := call{step: "Wait for element visible: " + name, op: "wait visible", element: name, locator: locator}
	return a.run(ctx, c, func(ctx context.Context) error {
		return a.driver.WaitForState(ctx, locator, StateVisible, a.opts.VisibleTimeout)
	})
}

func (a *Actions) WaitHidden(ctx context.Context, locator, name string) error {
	c := call{step: "Wait for element hidden: " + name, op: "wait hidden", element: name, locator: locator}
	return a.run(ctx, c, func(ctx context.Context) error {
		return a.driver.WaitForState(ctx, locator, StateHidden, a.opts.VisibleTimeout)
	})
}

func (a *Actions) WaitForLoad(ctx context.Context) error {
	return a.run(ctx, call{step: "Wait for page load", op: "wait for load"}, a.driver.WaitForLoad)
}

// WaitAttached waits for the element to be present in the DOM. An empty name logs as "Element".
func (a *Actions) WaitAttached(ctx context.Context, locator, name string) error {
	if name == "" {
		name = "Element"
	}
	c := call{step: fmt.Sprintf("Waiting for %s Visible", name), op: "wait attached", element: name, locator: locator}
	return a.run(ctx, c, func(ctx context.Context) error {
		return a.driver.WaitForState(ctx, locator, StateAttached, a.opts.AttachedTimeout)
	})
}

// Wait pauses for one of the MinWait, MediumWait or MaxWait classes.
func (a *Actions) Wait(ctx context.Context, class string) error {
	c := call{step: "Wait " + class, op: "wait", data: class}
	return a.run(ctx, c, func(ctx context.Context) error {
		d, err := a.pause(class)
		if err != nil {
			return err
		}
		return a.opts.Sleep(ctx, d)
	})
}

func (a *Actions) pause(class string) (time.Duration, error) {
	switch class {
	case MinWait:
		return a.opts.MinWait, nil
	case MediumWait:
		return a.opts.MediumWait, nil
	case MaxWait:
		return a.opts.MaxWait, nil
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidWaitClass, class)
}

// VerifyExactMatch compares both texts after trimming surrounding whitespace.
func (a *Actions) VerifyExactMatch(ctx context.Context, actual, expected string) error {
	c := call{
		step: fmt.Sprintf("Verify that actual text %q matches expected text %q", actual, expected),
		op:   "verify exact match",
		data: expected,
	}
	return a.run(ctx, c, func(ctx context.Context) error {
		if strings.TrimSpace(actual) != strings.TrimSpace(expected) {
			return &MismatchError{Actual: actual, Expected: expected}
		}
		return nil
	})
}

// VerifyContains checks that actual contains expected.
func (a *Actions) VerifyContains(ctx context.Context, actual, expected string) error {
	c := call{
		step: fmt.Sprintf("Verify that actual text %q contains expected text %q", actual, expected),
		op:   "verify contains",
		data: expected,
	}
	return a.run(ctx, c, func(ctx context.Context) error {
		if !strings.Contains(actual, expected) {
			return &MismatchError{Actual: actual, Expected: expected}
		}
		return nil
	})
}

// WaitSpinnerGone pauses for MinWait and then polls until no spinner is left, for at
// most ExpectTimeout.
func (a *Actions) WaitSpinnerGone(ctx context.Context) error {
	locator := a.opts.SpinnerLocator
	c := call{step: "Wait for spinner to disappear", op: "wait spinner gone", element: "spinner", locator: locator}
	return a.run(ctx, c, func(ctx context.Context) error {
		if err := a.Wait(ctx, MinWait); err != nil {
			return err
		}
		polls := int(a.opts.ExpectTimeout / a.opts.PollInterval)
		for i := 0; ; i++ {
			n, err := a.driver.Count(ctx, locator)
			if err != nil {
				return err
			}
			if n == 0 {
				return nil
			}
			if i >= polls {
				return fmt.Errorf("%w after %s: %d left", ErrSpinnerPresent, a.opts.ExpectTimeout, n)
			}
			if err := a.opts.Sleep(ctx, a.opts.PollInterval); err != nil {
				return err
			}
		}
	})
}

// Highlight outlines the element on the page.
func (a *Actions) Highlight(ctx context.Context, locator, name string) error {
	c := call{step: "Highlight " + name, op: "highlight", element: name, locator: locator}
	return a.run(ctx, c, func(ctx context.Context) error {
		return a.driver.Highlight(ctx, locator)
	})
}

// Title returns the page title. It records no step.
func (a *Actions) Title(ctx context.Context) (string, error) {
	title, err := a.driver.Title(ctx)
	if err != nil {
		a.logger.Error("Action failed", zap.String("op", "title"), zap.Error(err))
		return "", &ActionError{Op: "title", Err: err}
	}
	return title, nil
}
