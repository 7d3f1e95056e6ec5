package fsre

import (
	"fmt"

	"github.com/humbornjo/fsre/internal/legex"
)

type engine interface {
	// match compiles the loaded pattern on m and evaluates the loaded
	// input. Every primitive goes through m's gate.
	match(m *legex.Machine, ld *loaded, trace legex.Tracer) (bool, error)
}

func newEngine(mode engineMode) engine {
	switch mode {
	case ENGINE_TABLE:
		return tableEngine{}
	case ENGINE_THREAD_VM:
		return vmEngine{}
	case ENGINE_CROSS_CHECK:
		return crossEngine{tableEngine{}, vmEngine{}}
	}
	return nil
}

// Implemented with a transition table and a reachable state set.
type tableEngine struct{}

var _ engine = tableEngine{}

func (tableEngine) match(m *legex.Machine, ld *loaded, trace legex.Tracer) (bool, error) {
	table := legex.CompileTable(m.Gate(), m.Limits(), ld.pattern, ld.patternLen)
	_, accept := table.Run(m, ld.input, ld.inputLen, trace)
	return accept == 1, nil
}

// Implemented with a regular expression VM on a fixed thread pool.
//
// - https://swtch.com/~rsc/regexp/regexp2.html
type vmEngine struct{}

var _ engine = vmEngine{}

func (vmEngine) match(m *legex.Machine, ld *loaded, trace legex.Tracer) (bool, error) {
	code := legex.CompileCode(m.Gate(), m.Limits(), ld.pattern, ld.patternLen)
	accept, err := code.Run(m, ld.input, ld.inputLen, trace)
	if err != nil {
		return false, err
	}
	return accept == 1, nil
}

// crossEngine runs every engine on the same machine and requires them to
// agree.
type crossEngine []engine

var _ engine = crossEngine{}

func (engines crossEngine) match(m *legex.Machine, ld *loaded, trace legex.Tracer) (bool, error) {
	var first bool
	for i, e := range engines {
		ok, err := e.match(m, ld, trace)
		if err != nil {
			return false, err
		}
		if i == 0 {
			first = ok
			continue
		}
		if ok != first {
			return false, fmt.Errorf("%w: %T says %t, %T says %t", ErrEngineMismatch, engines[0], first, e, ok)
		}
	}
	return first, nil
}
