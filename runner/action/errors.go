package action

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = errors.New("timed out")
	// ErrNoText is returned by ReadText when no element matches.
	ErrNoText = errors.New("no element text")
	// ErrInvalidWaitClass is returned by Wait for an unknown pause class.
	ErrInvalidWaitClass = errors.New("invalid wait class")
	// ErrSpinnerPresent is returned when the loading spinner outlives the expect timeout.
	ErrSpinnerPresent = errors.New("spinner still present")
	// ErrTextMismatch is matched by every *MismatchError.
	ErrTextMismatch = errors.New("text mismatch")
)

// ActionError describes a failed action. It unwraps to the underlying cause.
type ActionError struct {
	Op      string
	Element string
	Locator string
	Data    string
	Err     error
}

func (e *ActionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Element != "" {
		fmt.Fprintf(&b, " %q", e.Element)
	}
	if e.Locator != "" {
		fmt.Fprintf(&b, " [%s]", e.Locator)
	}
	if e.Data != "" {
		fmt.Fprintf(&b, " with data %q", e.Data)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ActionError) Unwrap() error { return e.Err }

// MismatchError carries both sides of a failed exact-match verification.
type MismatchError struct {
	Actual   string
	Expected string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("actual text %q does not match expected text %q", e.Actual, e.Expected)
}

func (e *MismatchError) Is(target error) bool { return target == ErrTextMismatch }
