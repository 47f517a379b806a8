package bindings

import (
	stdErrors "errors"
	"fmt"

	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
)

// submitError translates a failed Submit into a typed error when no
// operation-specific mapping matched. Revert names the caller did not
// recognize still surface with their contract error name attached.
func submitError(action string, err error) error {
	if stdErrors.Is(err, chain.ErrInsufficientFunds) {
		return errors.Wrap(errors.CodePaymentRequired, err, "sender balance below attached value")
	}
	if rev := chain.AsRevert(err); rev != nil {
		typed := errors.Wrap(errors.CodeReverted, err, fmt.Sprintf("failed to %s: %s", action, rev.Name))
		return typed.WithDetails(map[string]string{"revert": rev.Name})
	}
	return errors.Wrap(errors.CodeInternal, err, "failed to "+action)
}

// missingEvent covers a successful receipt whose expected event is
// absent, which indicates a contract/binding mismatch rather than a
// user error.
func missingEvent(name string) error {
	return errors.New(errors.CodeInternal, name+" event not found in transaction logs")
}
