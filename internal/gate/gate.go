// Package gate implements the PIN step that decides whether the admin login
// form is shown at all. It is a shared-secret filter, not an authentication
// mechanism: it has no lockout or attempt counter of its own.
package gate

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// PINLength is the number of characters accepted from the PIN field.
const PINLength = 4

var (
	// ErrPINRequired is returned when the PIN field is empty.
	ErrPINRequired = errors.New("please enter the PIN")
	// ErrPINMismatch is returned when the PIN does not match.
	ErrPINMismatch = errors.New("invalid PIN")
)

// State is the visibility state of the login form.
type State int

const (
	Unverified State = iota
	Verified
)

func (s State) String() string {
	if s == Verified {
		return "verified"
	}
	return "unverified"
}

// Gate compares submitted PINs against the configured one.
type Gate struct {
	pin   string
	delay time.Duration
}

// New returns a Gate for pin. delay is waited before every comparison of a
// non-empty input.
func New(pin string, delay time.Duration) (*Gate, error) {
	if utf8.RuneCountInString(pin) != PINLength {
		return nil, fmt.Errorf("gate pin must be %d characters", PINLength)
	}
	if delay < 0 {
		return nil, fmt.Errorf("gate delay must not be negative")
	}
	return &Gate{pin: pin, delay: delay}, nil
}

// Normalize truncates input to PINLength characters, matching the field's
// maximum length.
func Normalize(input string) string {
	if utf8.RuneCountInString(input) <= PINLength {
		return input
	}
	r := []rune(input)
	return string(r[:PINLength])
}

// Verify checks input against the configured PIN. Empty or whitespace-only
// input returns ErrPINRequired immediately. Otherwise Verify waits the configured delay,
// returning ctx.Err() if ctx ends first, and then compares.
func (g *Gate) Verify(ctx context.Context, input string) error {
	input = Normalize(input)
	if strings.TrimSpace(input) == "" {
		return ErrPINRequired
	}

	if g.delay > 0 {
		t := time.NewTimer(g.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	if subtle.ConstantTimeCompare([]byte(input), []byte(g.pin)) != 1 {
		return ErrPINMismatch
	}
	return nil
}

// Flow is the gate state for one visitor: the current field value, whether
// the login form has been revealed, and the last reported error.
type Flow struct {
	gate  *Gate
	state State
	input string
	err   error
}

// NewFlow starts an unverified flow.
func (g *Gate) NewFlow() *Flow {
	return &Flow{gate: g}
}

// SetInput replaces the field value.
func (f *Flow) SetInput(input string) {
	f.input = Normalize(input)
}

// Input returns the current field value.
func (f *Flow) Input() string { return f.input }

// State returns the current state.
func (f *Flow) State() State { return f.state }

// Err returns the error reported by the last Submit, if any.
func (f *Flow) Err() error { return f.err }

// Submit verifies the current field value. A match moves the flow to
// Verified. A mismatch clears the field and leaves the flow Unverified.
// Submitting an already verified flow is a no-op.
func (f *Flow) Submit(ctx context.Context) error {
	if f.state == Verified {
		return nil
	}

	err := f.gate.Verify(ctx, f.input)
	f.err = err
	switch {
	case err == nil:
		f.state = Verified
	case errors.Is(err, ErrPINMismatch):
		f.input = ""
	}
	return err
}
