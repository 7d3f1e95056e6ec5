// Package legex compiles bounded patterns and runs them on one of two
// fixed-shape engines: a table driven state set automaton and a Pike style
// thread VM. Neither engine branches on pattern or input contents; every
// loop runs to a bound derived from Limits alone.
package legex

import (
	"sync"

	"github.com/humbornjo/fsre/internal/gate"
)

type Engine string

const (
	EngineTable Engine = "table"
	EngineVM    Engine = "vm"
)

type EventKind int

const (
	EventClosure EventKind = iota // initial closure, before any input
	EventSymbol                   // table engine consumed one input cell
	EventThread                   // thread VM finished one thread slot
)

// Event is a snapshot handed to a Tracer. States is set for table engine
// events, Thread/PC/SP for VM events.
type Event struct {
	Engine Engine
	Kind   EventKind
	Step   int
	States StateSet
	Thread int
	PC     gate.Value
	SP     gate.Value
}

// Tracer observes an evaluation. It must not retain or modify States.
type Tracer func(Event)

func (tr Tracer) emit(ev Event) {
	if tr != nil {
		tr(ev)
	}
}

// Machine holds the per-evaluation state: a gate with its operation count
// and the double buffered thread arena.
//
// WARN: Machine is not safe for concurrent use, take one per evaluation.
type Machine struct {
	lim     Limits
	g       *gate.Gate
	threads [2][]Thread
}

// Gate exposes the machine's gate, for compiling and for reading Ops.
func (m *Machine) Gate() *gate.Gate { return m.g }

func (m *Machine) Limits() Limits { return m.lim }

// Pool hands out machines for one set of Limits.
type Pool struct {
	lim  Limits
	bits int
	pool sync.Pool
}

// NewPool validates the gate configuration once so Get never fails.
func NewPool(lim Limits, lookupBits int) (*Pool, error) {
	if err := lim.Validate(); err != nil {
		return nil, err
	}
	if _, err := gate.New(lookupBits); err != nil {
		return nil, err
	}
	return &Pool{lim: lim, bits: lookupBits}, nil
}

func (p *Pool) Get() *Machine {
	m, ok := p.pool.Get().(*Machine)
	if !ok {
		g, _ := gate.New(p.bits)
		m = &Machine{lim: p.lim, g: g}
		m.threads[0] = make([]Thread, p.lim.MaxThreads)
		m.threads[1] = make([]Thread, p.lim.MaxThreads)
	}
	m.g.Reset()
	return m
}

func (p *Pool) Put(m *Machine) {
	clear(m.threads[0])
	clear(m.threads[1])
	p.pool.Put(m)
}
