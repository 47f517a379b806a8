package chain

import (
	"errors"
	"fmt"
)

// RevertError is a named contract revert, the devnet equivalent of a
// Solidity custom error. The whole transaction is rolled back when one is
// returned from contract code.
type RevertError struct {
	Name   string
	Detail string
}

func Revert(name string) *RevertError {
	return &RevertError{Name: name}
}

func Revertf(name, format string, args ...any) *RevertError {
	return &RevertError{Name: name, Detail: fmt.Sprintf(format, args...)}
}

func (e *RevertError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("execution reverted: %s: %s", e.Name, e.Detail)
	}
	return "execution reverted: " + e.Name
}

// RevertName exposes the custom-error name for error dumps and bindings.
func (e *RevertError) RevertName() string {
	return e.Name
}

// AsRevert unwraps err to a RevertError, or nil.
func AsRevert(err error) *RevertError {
	var typed *RevertError
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsRevert reports whether err is a revert with the given custom-error name.
func IsRevert(err error, name string) bool {
	rev := AsRevert(err)
	return rev != nil && rev.Name == name
}

// ErrTransferFailed is the revert name used when a contract cannot move
// value it does not hold.
const ErrTransferFailed = "TransferFailed"

// ErrInsufficientFunds is returned by Submit before any contract code runs
// when the sender cannot cover the attached value.
var ErrInsufficientFunds = errors.New("insufficient funds for transfer")

// ErrWriteInView is returned when view execution attempts a state change.
var ErrWriteInView = errors.New("state change attempted in view call")
