package fsre

import (
	"fmt"
	"os"
	"strconv"

	"github.com/humbornjo/fsre/internal/legex"
)

// EnvLookupBits names the environment variable ConfigFromEnv reads.
const EnvLookupBits = "LOOKUP_BITS"

// ConfigFromEnv returns a Config with LookupBits taken from LOOKUP_BITS.
// An unset variable is a ConfigError, not a default.
func ConfigFromEnv() (Config, error) {
	raw, ok := os.LookupEnv(EnvLookupBits)
	if !ok || raw == "" {
		return Config{}, &ConfigError{Field: EnvLookupBits, Err: ErrMissingLookupBits}
	}
	bits, err := strconv.Atoi(raw)
	if err != nil {
		return Config{}, &ConfigError{Field: EnvLookupBits, Err: err}
	}
	return Config{LookupBits: bits}, nil
}

// Input is the evaluation record. Without PatternLen and InputLen the whole
// strings are meaningful; with them, symbols at or past the logical length
// are padding and never affect the result.
type Input struct {
	Pattern     string  `json:"pattern"`
	InputString string  `json:"input_string"`
	PatternLen  *uint64 `json:"pattern_len,omitempty"`
	InputLen    *uint64 `json:"input_len,omitempty"`
}

func NewInput(pattern, s string) Input {
	return Input{Pattern: pattern, InputString: s}
}

// WithLengths sets the logical lengths.
func (in Input) WithLengths(patternLen, inputLen uint64) Input {
	in.PatternLen, in.InputLen = &patternLen, &inputLen
	return in
}

// loaded is an Input spread over fixed capacity cells.
type loaded struct {
	pattern    []Symbol
	input      []Symbol
	patternLen Symbol
	inputLen   Symbol
}

func logicalLen(what string, n *uint64, physical, capacity int) (int, error) {
	if n == nil {
		return physical, nil
	}
	if *n > uint64(capacity) {
		return 0, &legex.OverflowError{What: what, Len: int(min(*n, 1<<31)), Cap: capacity}
	}
	if int(*n) > physical {
		return 0, fmt.Errorf("%w: %s %d, only %d symbols", ErrInvalidLength, what, *n, physical)
	}
	return int(*n), nil
}

func cells(symbols []rune, capacity int) []Symbol {
	out := make([]Symbol, capacity)
	for i, r := range symbols {
		out[i] = Symbol(r)
	}
	return out
}

func (in Input) load(cfg Config) (*loaded, error) {
	pattern, input := []rune(in.Pattern), []rune(in.InputString)
	lim := cfg.limits()

	if len(input) > lim.MaxInputLen {
		return nil, &legex.OverflowError{What: "input", Len: len(input), Cap: lim.MaxInputLen}
	}
	if len(pattern) > lim.MaxPatternLen {
		return nil, &legex.OverflowError{What: "pattern", Len: len(pattern), Cap: lim.MaxPatternLen}
	}
	patternLen, err := logicalLen("pattern_len", in.PatternLen, len(pattern), lim.MaxPatternLen)
	if err != nil {
		return nil, err
	}
	inputLen, err := logicalLen("input_len", in.InputLen, len(input), lim.MaxInputLen)
	if err != nil {
		return nil, err
	}

	ld := &loaded{
		pattern:    cells(pattern, lim.MaxPatternLen),
		input:      cells(input, lim.MaxInputLen),
		patternLen: Symbol(patternLen),
		inputLen:   Symbol(inputLen),
	}
	if err := legex.Validate(lim, ld.pattern, patternLen); err != nil {
		return nil, &CompileError{Pattern: in.Pattern, Err: err}
	}
	return ld, nil
}
