package errors

import (
	"errors"
	"fmt"
)

type reverter interface {
	RevertName() string
}

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	// RevertName holds the contract custom-error name when a transaction
	// revert is anywhere in the chain.
	RevertName string `json:"revert_name,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var rev reverter
	if errors.As(err, &rev) {
		d.RevertName = rev.RevertName()
	}

	return d
}
