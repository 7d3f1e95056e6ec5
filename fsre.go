// Package fsre decides whether a bounded pattern of literals, '.' and
// postfix '*' matches a bounded input. Evaluation is a fixed-shape
// computation: the same primitives run in the same order for every pattern
// and input of a given Config, only their values differ.
//
// Two engines implement the same contract. ENGINE_TABLE simulates a state
// set automaton from a transition table, ENGINE_THREAD_VM runs Thompson
// bytecode on a fixed pool of Pike VM threads.
package fsre

import (
	"errors"
	"fmt"

	"github.com/humbornjo/fsre/internal/gate"
	"github.com/humbornjo/fsre/internal/legex"
)

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrInvalidLength  = errors.New("logical length exceeds physical length")
	ErrEngineMismatch = errors.New("engines disagree")

	ErrMissingLookupBits   = gate.ErrMissingLookupBits
	ErrOverflow            = legex.ErrOverflow
	ErrMalformedPattern    = legex.ErrMalformedPattern
	ErrThreadPoolExhausted = legex.ErrThreadPoolExhausted
)

// Symbol is a character code. '*' and '.' are reserved in patterns.
type Symbol = gate.Value

const (
	DefaultMaxPatternLen = 8
	DefaultMaxInputLen   = 8
	DefaultMaxThreads    = 64
)

// Config fixes the shape of every evaluation. Zero limits take the
// defaults; LookupBits has no default and must cover every limit.
type Config struct {
	MaxPatternLen int
	MaxInputLen   int
	MaxThreads    int
	LookupBits    int
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxPatternLen == 0 {
		cfg.MaxPatternLen = DefaultMaxPatternLen
	}
	if cfg.MaxInputLen == 0 {
		cfg.MaxInputLen = DefaultMaxInputLen
	}
	if cfg.MaxThreads == 0 {
		cfg.MaxThreads = DefaultMaxThreads
	}
	return cfg
}

func (cfg Config) limits() legex.Limits {
	return legex.Limits{
		MaxPatternLen: cfg.MaxPatternLen,
		MaxInputLen:   cfg.MaxInputLen,
		MaxThreads:    cfg.MaxThreads,
	}
}

func (cfg Config) validate() error {
	if err := cfg.limits().Validate(); err != nil {
		return &ConfigError{Field: "limits", Err: err}
	}
	if _, err := gate.New(cfg.LookupBits); err != nil {
		return &ConfigError{Field: "LookupBits", Err: err}
	}
	if need := cfg.limits().MaxValue(); need >= 1<<cfg.LookupBits {
		return &ConfigError{
			Field: "LookupBits",
			Err:   fmt.Errorf("%d bits cannot hold %d", cfg.LookupBits, need),
		}
	}
	return nil
}

// ConfigError is fatal: nothing is evaluated under a bad Config.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrConfiguration, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// CompileError wraps a pattern rejected before compilation.
type CompileError struct {
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %q: %v", e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

type engineMode int

const (
	_ENGINE_NONE engineMode = iota
	ENGINE_TABLE
	ENGINE_THREAD_VM
	// ENGINE_CROSS_CHECK runs both engines and fails when they disagree.
	ENGINE_CROSS_CHECK
)

func (mode engineMode) String() string {
	switch mode {
	case ENGINE_TABLE:
		return "table"
	case ENGINE_THREAD_VM:
		return "vm"
	case ENGINE_CROSS_CHECK:
		return "both"
	}
	return fmt.Sprintf("engineMode(%d)", int(mode))
}

// ParseEngine maps "table", "vm" or "both" to an engine mode.
func ParseEngine(name string) (engineMode, error) {
	for _, mode := range []engineMode{ENGINE_TABLE, ENGINE_THREAD_VM, ENGINE_CROSS_CHECK} {
		if mode.String() == name {
			return mode, nil
		}
	}
	return _ENGINE_NONE, &ConfigError{Field: "engine", Err: fmt.Errorf("unknown engine %q", name)}
}

// TraceEvent is a snapshot of an evaluation in progress.
type TraceEvent = legex.Event

type evaluatorOption func(*Evaluator) *Evaluator

func WithEngine(mode engineMode) evaluatorOption {
	return func(e *Evaluator) *Evaluator {
		e.mode = mode
		return e
	}
}

// WithTrace installs a hook called with every engine snapshot. The hook
// sees the evaluation, it cannot change it.
func WithTrace(fn func(TraceEvent)) evaluatorOption {
	return func(e *Evaluator) *Evaluator {
		e.trace = fn
		return e
	}
}

// Evaluator is safe for concurrent use; every Match takes its own machine
// from a pool.
type Evaluator struct {
	cfg    Config
	mode   engineMode
	engine engine
	trace  legex.Tracer
	pool   *legex.Pool
}

func New(cfg Config, opts ...evaluatorOption) (*Evaluator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	e := &Evaluator{cfg: cfg, mode: ENGINE_TABLE}
	for _, opt := range opts {
		e = opt(e)
	}
	if e.engine = newEngine(e.mode); e.engine == nil {
		return nil, &ConfigError{Field: "engine", Err: fmt.Errorf("unknown engine %v", e.mode)}
	}

	pool, err := legex.NewPool(cfg.limits(), cfg.LookupBits)
	if err != nil {
		return nil, &ConfigError{Field: "limits", Err: err}
	}
	e.pool = pool
	return e, nil
}

func (e *Evaluator) Config() Config { return e.cfg }

func (e *Evaluator) Engine() engineMode { return e.mode }

// Result is the outcome of one evaluation.
type Result struct {
	Accept bool
	// Pattern holds all MaxPatternLen pattern cells, padding included, so
	// the result can be bound to the exact pattern that produced it.
	Pattern []Symbol
	// Ops counts primitive applications. It depends on the Config and the
	// engine only.
	Ops uint64
}

// Match validates in, then evaluates it on the configured engine.
func (e *Evaluator) Match(in Input) (*Result, error) {
	ld, err := in.load(e.cfg)
	if err != nil {
		return nil, err
	}

	m := e.pool.Get()
	defer e.pool.Put(m)

	accept, err := e.engine.match(m, ld, e.trace)
	if err != nil {
		return nil, err
	}
	return &Result{Accept: accept, Pattern: ld.pattern, Ops: m.Gate().Ops()}, nil
}

// MatchString is Match for the simplified record where the logical lengths
// are the string lengths.
func (e *Evaluator) MatchString(pattern, s string) (bool, error) {
	res, err := e.Match(NewInput(pattern, s))
	if err != nil {
		return false, err
	}
	return res.Accept, nil
}
