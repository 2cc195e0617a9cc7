// Package core holds the error taxonomy shared by every pipeline stage.
//
// Stages wrap their failures into one of four kinds so callers can branch
// with errors.Is without knowing which package produced the error:
//
//	ds, err := data.LoadCSV(path, schema)
//	if errors.Is(err, core.ErrIO) {
//	    // input file missing or unreadable
//	}
package core

import (
	"errors"
	"fmt"
)

var (
	// ErrIO indicates missing or unreadable input.
	ErrIO = errors.New("io error")
	// ErrParse indicates malformed input or a missing expected column.
	ErrParse = errors.New("parse error")
	// ErrConvergence indicates a model fit that did not converge.
	ErrConvergence = errors.New("convergence error")
	// ErrConfig indicates an invalid hyperparameter or setting.
	ErrConfig = errors.New("config error")
)

// Error is a classified failure raised by a pipeline stage.
type Error struct {
	Kind error  // one of ErrIO, ErrParse, ErrConvergence, ErrConfig
	Op   string // operation that failed, e.g. "data.load"
	Err  error  // underlying cause
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// IOError wraps err as an ErrIO failure of op. A nil err yields nil.
func IOError(op string, err error) error { return wrap(ErrIO, op, err) }

// ConvergenceError wraps err as an ErrConvergence failure of op.
func ConvergenceError(op string, err error) error { return wrap(ErrConvergence, op, err) }

// ParseError builds an ErrParse failure with a formatted message.
func ParseError(op, format string, args ...any) error {
	return &Error{Kind: ErrParse, Op: op, Err: fmt.Errorf(format, args...)}
}

// ConfigError builds an ErrConfig failure with a formatted message.
func ConfigError(op, format string, args ...any) error {
	return &Error{Kind: ErrConfig, Op: op, Err: fmt.Errorf(format, args...)}
}
