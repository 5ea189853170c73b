// Package actiontest provides an in-memory action.Driver for tests.
package actiontest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gate4ai/leadsuite/runner/action"
)

// Element is the fake state behind one locator.
type Element struct {
	Hidden bool
	Text   string
	Value  string
	// Count overrides the match count; zero means one match.
	Count int
}

// Driver records every call and answers from Elements. Locators without an element
// behave as absent: waits time out and ReadText reports not found.
type Driver struct {
	mu        sync.Mutex
	Elements  map[string]*Element
	PageTitle string
	URL       string
	// Fail makes the named op fail on locator ("click", "//button"). Use "" as the
	// locator for page-level ops.
	Fail map[[2]string]error
	// OnClick runs after a successful click on the locator.
	OnClick map[string]func(d *Driver)
	// CountSeq, when set for a locator, is consumed by successive Count calls.
	CountSeq map[string][]int

	calls []Call
}

// Call is one recorded driver call.
type Call struct {
	Op      string
	Locator string
	Args    []string
}

func (c Call) String() string {
	return strings.TrimSpace(strings.Join(append([]string{c.Op, c.Locator}, c.Args...), " "))
}

var _ action.Driver = (*Driver)(nil)

func New() *Driver {
	return &Driver{
		Elements: map[string]*Element{},
		Fail:     map[[2]string]error{},
		OnClick:  map[string]func(d *Driver){},
		CountSeq: map[string][]int{},
	}
}

// Set registers a visible element and returns it.
func (d *Driver) Set(locator string, el Element) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := el
	d.Elements[locator] = &e
	return &e
}

// Remove detaches the element at locator.
func (d *Driver) Remove(locator string) {
	d.mu.Lock()
	delete(d.Elements, locator)
	d.mu.Unlock()
}

// Element returns the element at locator, or nil.
func (d *Driver) Element(locator string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Elements[locator]
}

// Calls returns the recorded calls in order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// CallsFor returns the ops recorded against locator, in order.
func (d *Driver) CallsFor(locator string) []string {
	var ops []string
	for _, c := range d.Calls() {
		if c.Locator == locator {
			ops = append(ops, c.Op)
		}
	}
	return ops
}

// Ops returns every recorded op, in order.
func (d *Driver) Ops() []string {
	var ops []string
	for _, c := range d.Calls() {
		ops = append(ops, c.Op)
	}
	return ops
}

func (d *Driver) record(op, locator string, arg ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Op: op, Locator: locator, Args: arg})
	if err, ok := d.Fail[[2]string{op, locator}]; ok {
		return err
	}
	return nil
}

func (d *Driver) present(locator string) (*Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.Elements[locator]
	if !ok {
		return nil, fmt.Errorf("%w: no element %s", action.ErrTimeout, locator)
	}
	return el, nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.record("navigate", "", url); err != nil {
		return err
	}
	d.mu.Lock()
	d.URL = url
	d.mu.Unlock()
	return ctx.Err()
}

func (d *Driver) WaitForState(ctx context.Context, locator string, state action.State, timeout time.Duration) error {
	if err := d.record("wait", locator, string(state), timeout.String()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	el, ok := d.Elements[locator]
	d.mu.Unlock()
	switch state {
	case action.StateHidden:
		if ok && !el.Hidden {
			return fmt.Errorf("%w: %s still visible", action.ErrTimeout, locator)
		}
		return nil
	case action.StateVisible:
		if !ok || el.Hidden {
			return fmt.Errorf("%w: %s not visible", action.ErrTimeout, locator)
		}
		return nil
	default:
		if !ok {
			return fmt.Errorf("%w: %s not attached", action.ErrTimeout, locator)
		}
		return nil
	}
}

func (d *Driver) Click(ctx context.Context, locator string) error {
	if err := d.record("click", locator); err != nil {
		return err
	}
	if _, err := d.present(locator); err != nil {
		return err
	}
	d.mu.Lock()
	fn := d.OnClick[locator]
	d.mu.Unlock()
	if fn != nil {
		fn(d)
	}
	return ctx.Err()
}

func (d *Driver) Clear(ctx context.Context, locator string) error {
	if err := d.record("clear", locator); err != nil {
		return err
	}
	el, err := d.present(locator)
	if err != nil {
		return err
	}
	d.mu.Lock()
	el.Value = ""
	d.mu.Unlock()
	return ctx.Err()
}

func (d *Driver) SetValue(ctx context.Context, locator, value string, force bool) error {
	op := "set"
	if force {
		op = "forceset"
	}
	if err := d.record(op, locator, value); err != nil {
		return err
	}
	el, err := d.present(locator)
	if err != nil {
		return err
	}
	d.mu.Lock()
	el.Value = value
	d.mu.Unlock()
	return ctx.Err()
}

func (d *Driver) Focus(ctx context.Context, locator string) error {
	if err := d.record("focus", locator); err != nil {
		return err
	}
	_, err := d.present(locator)
	return err
}

func (d *Driver) TypeText(ctx context.Context, locator, value string, delay time.Duration) error {
	if err := d.record("type", locator, value, delay.String()); err != nil {
		return err
	}
	el, err := d.present(locator)
	if err != nil {
		return err
	}
	d.mu.Lock()
	el.Value += value
	d.mu.Unlock()
	return ctx.Err()
}

func (d *Driver) PressKey(ctx context.Context, locator, key string) error {
	if err := d.record("press", locator, key); err != nil {
		return err
	}
	_, err := d.present(locator)
	return err
}

func (d *Driver) ReadText(ctx context.Context, locator string) (string, bool, error) {
	if err := d.record("read", locator); err != nil {
		return "", false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.Elements[locator]
	if !ok {
		return "", false, nil
	}
	return el.Text, true, nil
}

func (d *Driver) Count(ctx context.Context, locator string) (int, error) {
	if err := d.record("count", locator); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq := d.CountSeq[locator]; len(seq) > 0 {
		n := seq[0]
		if len(seq) > 1 {
			d.CountSeq[locator] = seq[1:]
		}
		return n, nil
	}
	el, ok := d.Elements[locator]
	switch {
	case !ok:
		return 0, nil
	case el.Count > 0:
		return el.Count, nil
	default:
		return 1, nil
	}
}

func (d *Driver) WaitForLoad(ctx context.Context) error {
	if err := d.record("load", ""); err != nil {
		return err
	}
	return ctx.Err()
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	if err := d.record("title", ""); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.PageTitle, nil
}

func (d *Driver) Highlight(ctx context.Context, locator string) error {
	if err := d.record("highlight", locator); err != nil {
		return err
	}
	_, err := d.present(locator)
	return err
}

// Sleeper records requested pauses without sleeping.
type Sleeper struct {
	mu    sync.Mutex
	Slept []time.Duration
}

func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Slept = append(s.Slept, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Total returns the sum of all pauses.
func (s *Sleeper) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t time.Duration
	for _, d := range s.Slept {
		t += d
	}
	return t
}
