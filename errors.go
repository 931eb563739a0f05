package isosurf

import (
	"errors"
	"fmt"
	"runtime"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrBadResolution is returned when a sampling resolution is not positive.
	ErrBadResolution = errors.New("sampling resolution must be positive on every axis")
	// ErrUnknownShape is returned for element shapes without a lattice decomposition.
	ErrUnknownShape = errors.New("unknown element shape")
	// ErrNoIsoValues is returned when IsoValues yields no values.
	ErrNoIsoValues = errors.New("no iso-values requested")
)

// EvalError is returned when the field evaluator fails at a sample point.
// It aborts the sweep of the whole element.
type EvalError struct {
	// Field is the name of the field that failed to evaluate.
	Field string
	// Xi is the local coordinate of the failed evaluation.
	Xi  r3.Vec
	Err error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %s field at ξ=(%g,%g,%g): %v", e.Field, e.Xi.X, e.Xi.Y, e.Xi.Z, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// InternalError reports a broken invariant of the tessellator. It is fatal
// for the element being tessellated but not for the process.
type InternalError struct {
	PanicObj interface{}
	Stack    string
}

func (e *InternalError) Error() string {
	if err, ok := e.PanicObj.(error); ok {
		return "isosurf internal error: " + err.Error()
	}
	return fmt.Sprintf("isosurf internal error: %v", e.PanicObj)
}

func (e *InternalError) Unwrap() error {
	err, _ := e.PanicObj.(error)
	return err
}

// ErrMsg returns an error with a message function name and line number.
func ErrMsg(msg string) error {
	pc, _, line, ok := runtime.Caller(1)
	if !ok {
		return fmt.Errorf("?: %s", msg)
	}
	fn := runtime.FuncForPC(pc)
	return fmt.Errorf("%s line %d: %s", fn.Name(), line, msg)
}
