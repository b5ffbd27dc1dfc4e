package models

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is one failed constraint on a raw input field.
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports raw input that must not reach the pipeline.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns the per-field messages in order.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Message)
	}
	return out
}

// ErrComputation is the stable message of every pipeline arithmetic failure.
var ErrComputation = errors.New("model prediction failed")

// ComputationError wraps an internal numeric failure of a pipeline stage.
type ComputationError struct {
	Stage string
	Err   error
}

func (e *ComputationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrComputation, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrComputation, e.Stage)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrComputation) hold for every ComputationError.
func (e *ComputationError) Is(target error) bool { return target == ErrComputation }

// BatchItemError scopes a validation or computation error to one batch index.
type BatchItemError struct {
	Index int
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("batch item %d: %v", e.Index, e.Err)
}

func (e *BatchItemError) Unwrap() error { return e.Err }
