// Package gate provides the total arithmetic and selection primitives the
// matching engines are composed of.
//
// Every primitive runs in constant work and never branches on the values it
// is given, so a computation built only from Gate calls has a shape that is
// fixed by its loop bounds. Booleans are the values 0 and 1.
package gate

import (
	"errors"
	"fmt"
)

// Value is a single cell of the computation.
type Value = uint64

// MaxLookupBits bounds the comparison width so that a + 2^bits never wraps.
const MaxLookupBits = 62

var (
	ErrMissingLookupBits = errors.New("lookup bits not set")
	ErrLookupBitsRange   = errors.New("lookup bits out of range")
)

// Gate applies primitives and counts every application.
//
// WARN: Gate is not safe for concurrent use.
type Gate struct {
	bits uint
	ops  uint64
}

// New returns a Gate whose IsLessThan compares lookupBits-wide values.
func New(lookupBits int) (*Gate, error) {
	if lookupBits == 0 {
		return nil, ErrMissingLookupBits
	}
	if lookupBits < 0 || lookupBits > MaxLookupBits {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrLookupBitsRange, lookupBits, MaxLookupBits)
	}
	return &Gate{bits: uint(lookupBits)}, nil
}

// LookupBits returns the comparison width.
func (g *Gate) LookupBits() int { return int(g.bits) }

// Ops returns the number of primitive applications since the last Reset.
func (g *Gate) Ops() uint64 { return g.ops }

// Reset zeroes the operation counter.
func (g *Gate) Reset() { g.ops = 0 }

func isZero(a Value) Value { return ((a | -a) >> 63) ^ 1 }

func (g *Gate) Add(a, b Value) Value {
	g.ops++
	return a + b
}

func (g *Gate) Sub(a, b Value) Value {
	g.ops++
	return a - b
}

func (g *Gate) Mul(a, b Value) Value {
	g.ops++
	return a * b
}

func (g *Gate) IsZero(a Value) Value {
	g.ops++
	return isZero(a)
}

func (g *Gate) IsEqual(a, b Value) Value {
	g.ops++
	return isZero(a ^ b)
}

// Select returns a when cond is 1 and b when cond is 0.
func (g *Gate) Select(cond, a, b Value) Value {
	g.ops++
	return b + cond*(a-b)
}

func (g *Gate) And(a, b Value) Value {
	g.ops++
	return a & b & 1
}

func (g *Gate) Or(a, b Value) Value {
	g.ops++
	return (a | b) & 1
}

func (g *Gate) Not(a Value) Value {
	g.ops++
	return (a & 1) ^ 1
}

// IsLessThan reports a < b over the low LookupBits bits of each operand.
func (g *Gate) IsLessThan(a, b Value) Value {
	g.ops++
	mask := Value(1)<<g.bits - 1
	d := (a & mask) + (mask + 1) - (b & mask)
	return ((d >> g.bits) & 1) ^ 1
}

// IndicatorFromIndex returns a width-long vector with a single 1 at idx. An
// idx outside [0, width) yields the all-zero vector.
func (g *Gate) IndicatorFromIndex(idx Value, width int) []Value {
	out := make([]Value, width)
	for k := range out {
		out[k] = g.IsEqual(idx, Value(k))
	}
	return out
}

// InnerProduct panics if a and b differ in length.
func (g *Gate) InnerProduct(a, b []Value) Value {
	if len(a) != len(b) {
		panic(fmt.Sprintf("gate: inner product of %d and %d values", len(a), len(b)))
	}
	var acc Value
	for i := range a {
		g.ops++
		acc += a[i] * b[i]
	}
	return acc
}

// SelectByIndicator reads values at the position marked by indicator.
func (g *Gate) SelectByIndicator(values, indicator []Value) Value {
	return g.InnerProduct(values, indicator)
}

// SelectFromIndex reads values[idx], or 0 when idx is out of range.
func (g *Gate) SelectFromIndex(values []Value, idx Value) Value {
	return g.SelectByIndicator(values, g.IndicatorFromIndex(idx, len(values)))
}

func (g *Gate) Sum(values []Value) Value {
	var acc Value
	for _, v := range values {
		g.ops++
		acc += v
	}
	return acc
}
