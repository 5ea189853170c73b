// Package action wraps every UI interaction of the suite in a named step with bounded
// waits, uniform logging and error propagation.
package action

import (
	"context"
	"time"
)

// State is the element state a wait is satisfied by.
type State string

const (
	StateVisible  State = "visible"
	StateHidden   State = "hidden"
	StateAttached State = "attached"
)

// Driver is the UI engine the actions run against. Locators are engine selector strings
// (XPath or CSS); every call acts on the first matching element unless noted.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	WaitForState(ctx context.Context, locator string, state State, timeout time.Duration) error
	Click(ctx context.Context, locator string) error
	Clear(ctx context.Context, locator string) error
	// SetValue replaces the element value. force skips actionability checks.
	SetValue(ctx context.Context, locator, value string, force bool) error
	Focus(ctx context.Context, locator string) error
	// TypeText sends value as individual keystrokes to the focused element.
	TypeText(ctx context.Context, locator, value string, delay time.Duration) error
	PressKey(ctx context.Context, locator, key string) error
	// ReadText returns the visible text of the first match; found is false when nothing matches.
	ReadText(ctx context.Context, locator string) (text string, found bool, err error)
	// Count returns the number of elements matching locator.
	Count(ctx context.Context, locator string) (int, error)
	WaitForLoad(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	Highlight(ctx context.Context, locator string) error
}
