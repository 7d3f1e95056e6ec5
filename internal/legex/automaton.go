package legex

import (
	"strconv"
	"strings"

	"github.com/humbornjo/fsre/internal/gate"
)

// StateSet marks reachable automaton states, one cell per state id. It is
// always fully materialized and cell 0 is never set.
type StateSet []gate.Value

// Has is for inspection only; the engines read cells through the gate.
func (s StateSet) Has(state int) bool {
	return state >= 0 && state < len(s) && s[state] != 0
}

func (s StateSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for i, v := range s {
		if v == 0 {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(strconv.Itoa(i))
	}
	b.WriteByte('}')
	return b.String()
}

// initial is the set {1} before closure.
func (t *Table) initial() StateSet {
	s := make(StateSet, t.lim.StateWidth())
	s[1] = 1
	return s
}

// lookup returns the state reached from state on symbol, or 0 when no row
// matches. The indicator covers every row whatever the answer is.
func (t *Table) lookup(g *gate.Gate, state, symbol gate.Value) gate.Value {
	key := g.Add(g.Mul(symbol, t.base), state)
	indicator := make([]gate.Value, len(t.keys))
	for k, rk := range t.keys {
		indicator[k] = g.IsEqual(rk, key)
	}
	return g.InnerProduct(indicator, t.next)
}

// addState returns states with toAdd marked. Adding the sentinel 0 leaves
// the set unchanged.
func addState(g *gate.Gate, states StateSet, toAdd gate.Value) StateSet {
	indicator := g.IndicatorFromIndex(toAdd, len(states))
	out := make(StateSet, len(states))
	out[0] = states[0]
	for i := 1; i < len(states); i++ {
		out[i] = g.Or(states[i], indicator[i])
	}
	return out
}

func selectSet(g *gate.Gate, cond gate.Value, a, b StateSet) StateSet {
	out := make(StateSet, len(a))
	for i := range out {
		out[i] = g.Select(cond, a[i], b[i])
	}
	return out
}

// Closure follows '*' edges for ClosureRounds rounds. Each round reads the
// previous round's set and produces a new one.
func (t *Table) Closure(g *gate.Gate, states StateSet) StateSet {
	cur := states
	for r := 0; r < t.lim.ClosureRounds(); r++ {
		next := cur
		for i := 1; i < len(cur); i++ {
			target := t.lookup(g, gate.Value(i), Star)
			next = addState(g, next, g.Mul(target, cur[i]))
		}
		cur = next
	}
	return cur
}

// Step consumes one symbol: for every state, both the literal and the '.'
// transitions are looked up and masked by the state being reachable. An
// input '*' never takes a literal row since those rows are epsilon edges.
func (t *Table) Step(g *gate.Gate, states StateSet, symbol gate.Value) StateSet {
	literal := g.Not(g.IsEqual(symbol, Star))
	next := make(StateSet, len(states))
	for j := range states {
		onSymbol := g.Mul(g.Mul(t.lookup(g, gate.Value(j), symbol), literal), states[j])
		onDot := g.Mul(t.lookup(g, gate.Value(j), Dot), states[j])
		next = addState(g, next, onSymbol)
		next = addState(g, next, onDot)
	}
	return t.Closure(g, next)
}

// Run feeds all MaxInputLen input cells through the automaton. Cells at or
// past inputLen keep the previous set. It returns the final set and the
// accept flag, which is the cell of the final set at Accept.
func (t *Table) Run(m *Machine, input []gate.Value, inputLen gate.Value, trace Tracer) (StateSet, gate.Value) {
	g := m.g
	cur := t.Closure(g, t.initial())
	trace.emit(Event{Engine: EngineTable, Kind: EventClosure, Step: -1, States: cur})
	for i := 0; i < t.lim.MaxInputLen; i++ {
		valid := g.IsLessThan(gate.Value(i), inputLen)
		cur = selectSet(g, valid, t.Step(g, cur, input[i]), cur)
		trace.emit(Event{Engine: EngineTable, Kind: EventSymbol, Step: i, States: cur})
	}
	return cur, g.SelectFromIndex(cur, t.Accept)
}
