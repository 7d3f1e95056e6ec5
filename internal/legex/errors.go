package legex

import (
	"errors"
	"fmt"
)

var (
	// ErrOverflow indicates a pattern or input longer than the compiled capacity.
	ErrOverflow = errors.New("exceeds compiled capacity")

	// ErrMalformedPattern indicates a '*' without a symbol to repeat.
	ErrMalformedPattern = errors.New("malformed pattern")

	// ErrThreadPoolExhausted indicates more live threads than MaxThreads.
	ErrThreadPoolExhausted = errors.New("thread pool exhausted")
)

// OverflowError reports which sequence did not fit.
type OverflowError struct {
	What string
	Len  int
	Cap  int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s of length %d %v (capacity %d)", e.What, e.Len, ErrOverflow, e.Cap)
}

func (e *OverflowError) Unwrap() error {
	return ErrOverflow
}

// PatternError locates a malformed '*'.
type PatternError struct {
	Pos    int
	Reason string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%v at position %d: %s", ErrMalformedPattern, e.Pos, e.Reason)
}

func (e *PatternError) Unwrap() error {
	return ErrMalformedPattern
}

// PoolError reports a Split that found every thread slot taken.
type PoolError struct {
	Threads int
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("%v: more than %d threads", ErrThreadPoolExhausted, e.Threads)
}

func (e *PoolError) Unwrap() error {
	return ErrThreadPoolExhausted
}
