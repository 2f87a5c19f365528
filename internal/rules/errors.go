package rules

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("patch validation error")
	ErrIO            = errors.New("i/o error")
)

type Reason string

const (
	ReasonNeedle Reason = "needle is not a valid hex string"
	ReasonPatch  Reason = "patch is not a valid hex string"
	ReasonLength Reason = "patch is longer than needle"
)

// RuleError identifies the first rule that failed validation.
type RuleError struct {
	Category string
	Needle   string
	Patch    string
	Reason   Reason
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid patch %s -> %s in category %q: %s", e.Needle, e.Patch, e.Category, e.Reason)
}

func (e *RuleError) Is(target error) bool {
	return target == ErrValidation
}

// OverrideError reports a bad override document. Kind is ErrConfiguration
// for shape problems and ErrIO for documents that cannot be parsed.
type OverrideError struct {
	Path   string
	Detail string
	Kind   error
	Err    error
}

func (e *OverrideError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (in %s)", msg, e.Path)
	}
	return msg
}

func (e *OverrideError) Is(target error) bool {
	return target == e.Kind
}

func (e *OverrideError) Unwrap() error {
	return e.Err
}
