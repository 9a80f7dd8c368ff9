package quote

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed from current step")
	ErrSubmitting        = errors.New("submission in progress")
	ErrSubmitted         = errors.New("request already submitted")
	ErrPhotoLimit        = errors.New("photo limit reached")
	ErrPhotoIndex        = errors.New("photo index out of range")
	ErrUnknownOption     = errors.New("value not offered")
)

// ValidationError reports the fields blocking a step.
type ValidationError struct {
	Step   Step
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("step %d: invalid %s", e.Step, strings.Join(keys, ", "))
}

// ErrorKind classifies submission failures.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindRateLimited ErrorKind = "rate_limited"
	KindDependency  ErrorKind = "dependency"
)

// SubmitError is a submission failure that must be shown to the customer.
type SubmitError struct {
	Kind    ErrorKind
	Field   string
	Title   string
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Title, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Title)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// codedError is implemented by transport errors that carry a server code.
type codedError interface {
	error
	Code() string
	Details() string
}
