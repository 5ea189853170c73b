package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver runs actions on a playwright page.
type PlaywrightDriver struct {
	page playwright.Page
}

var _ Driver = (*PlaywrightDriver)(nil)

func NewPlaywrightDriver(page playwright.Page) *PlaywrightDriver {
	return &PlaywrightDriver{page: page}
}

// Page returns the underlying page.
func (d *PlaywrightDriver) Page() playwright.Page { return d.page }

func (d *PlaywrightDriver) first(locator string) playwright.Locator {
	return d.page.Locator(locator).First()
}

// do runs fn unless ctx is already done and maps playwright timeouts to ErrTimeout.
func do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapErr(fn())
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// millis converts d for playwright, where 0 means no timeout. It never rounds below 1ms.
func millis(d time.Duration) *float64 {
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	return playwright.Float(float64(max(ms, 1)))
}

func (d *PlaywrightDriver) Navigate(ctx context.Context, url string) error {
	return do(ctx, func() error {
		_, err := d.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
		})
		return err
	})
}

func (d *PlaywrightDriver) WaitForState(ctx context.Context, locator string, state State, timeout time.Duration) error {
	var s *playwright.WaitForSelectorState
	switch state {
	case StateVisible:
		s = playwright.WaitForSelectorStateVisible
	case StateHidden:
		s = playwright.WaitForSelectorStateHidden
	case StateAttached:
		s = playwright.WaitForSelectorStateAttached
	default:
		return fmt.Errorf("unsupported element state %q", state)
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout < time.Millisecond {
		return fmt.Errorf("%w: %s not %s", ErrTimeout, locator, state)
	}
	return do(ctx, func() error {
		return d.first(locator).WaitFor(playwright.LocatorWaitForOptions{
			State:   s,
			Timeout: millis(timeout),
		})
	})
}

func (d *PlaywrightDriver) Click(ctx context.Context, locator string) error {
	return do(ctx, func() error { return d.first(locator).Click() })
}

func (d *PlaywrightDriver) Clear(ctx context.Context, locator string) error {
	return do(ctx, func() error { return d.first(locator).Clear() })
}

func (d *PlaywrightDriver) SetValue(ctx context.Context, locator, value string, force bool) error {
	return do(ctx, func() error {
		return d.first(locator).Fill(value, playwright.LocatorFillOptions{Force: playwright.Bool(force)})
	})
}

func (d *PlaywrightDriver) Focus(ctx context.Context, locator string) error {
	return do(ctx, func() error { return d.first(locator).Focus() })
}

func (d *PlaywrightDriver) TypeText(ctx context.Context, locator, value string, delay time.Duration) error {
	return do(ctx, func() error {
		return d.first(locator).PressSequentially(value, playwright.LocatorPressSequentiallyOptions{
			Delay: playwright.Float(float64(delay.Milliseconds())),
		})
	})
}

func (d *PlaywrightDriver) PressKey(ctx context.Context, locator, key string) error {
	return do(ctx, func() error { return d.first(locator).Press(key) })
}

func (d *PlaywrightDriver) ReadText(ctx context.Context, locator string) (string, bool, error) {
	var text string
	var found bool
	err := do(ctx, func() error {
		n, err := d.page.Locator(locator).Count()
		if err != nil || n == 0 {
			return err
		}
		found = true
		text, err = d.first(locator).InnerText()
		return err
	})
	return text, found, err
}

func (d *PlaywrightDriver) Count(ctx context.Context, locator string) (int, error) {
	var n int
	err := do(ctx, func() error {
		var err error
		n, err = d.page.Locator(locator).Count()
		return err
	})
	return n, err
}

func (d *PlaywrightDriver) WaitForLoad(ctx context.Context) error {
	return do(ctx, func() error {
		return d.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State: playwright.LoadStateLoad,
		})
	})
}

func (d *PlaywrightDriver) Title(ctx context.Context) (string, error) {
	var title string
	err := do(ctx, func() error {
		var err error
		title, err = d.page.Title()
		return err
	})
	return title, err
}

func (d *PlaywrightDriver) Highlight(ctx context.Context, locator string) error {
	return do(ctx, func() error { return d.first(locator).Highlight() })
}
