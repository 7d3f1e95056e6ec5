package legex

import (
	"github.com/humbornjo/fsre/internal/gate"
)

// A Thread is one path through the bytecode: a program counter and a
// string pointer. PC 0 is a dead or empty slot.
// See https://swtch.com/~rsc/regexp/regexp2.html
type Thread struct {
	PC gate.Value
	SP gate.Value
}

// fetch reads the instruction whose Num equals pc. A pc of 0 only matches
// empty slots, so it fetches the zero instruction.
func (c *Code) fetch(g *gate.Gate, pc gate.Value) (op, arg1, arg2 gate.Value) {
	indicator := make([]gate.Value, len(c.nums))
	for k, num := range c.nums {
		indicator[k] = g.IsEqual(num, pc)
	}
	op = g.SelectByIndicator(c.ops, indicator)
	arg1 = g.SelectByIndicator(c.arg1, indicator)
	arg2 = g.SelectByIndicator(c.arg2, indicator)
	return op, arg1, arg2
}

// spawn copies src into dst with (pc, sp) written into slot avail. A zero
// pc or an avail past the arena writes nothing.
func spawn(g *gate.Gate, dst, src []Thread, pc, sp, avail gate.Value) {
	live := g.Not(g.IsZero(pc))
	for k := range src {
		sel := g.And(g.IsEqual(avail, gate.Value(k)), live)
		dst[k] = Thread{
			PC: g.Select(sel, pc, src[k].PC),
			SP: g.Select(sel, sp, src[k].SP),
		}
	}
}

// Run executes the bytecode over every thread slot for VMSteps steps each.
// Slot 0 starts at pc 1; Split appends its second branch at avail. Threads
// run one after another and only ever append to slots after their own.
//
// The pass always completes. When a live Split found the arena full the
// result is discarded and ErrThreadPoolExhausted is returned instead.
func (c *Code) Run(m *Machine, input []gate.Value, inputLen gate.Value, trace Tracer) (gate.Value, error) {
	g := m.g
	cur, spare := m.threads[0], m.threads[1]
	clear(cur)
	cur[0] = Thread{PC: 1}

	var (
		accept   gate.Value
		overflow gate.Value
		avail    = gate.Value(1)
		limit    = gate.Value(len(cur))
		steps    = c.lim.VMSteps()
	)
	for i := 0; i < len(cur); i++ {
		pc, sp := cur[i].PC, cur[i].SP
		for s := 0; s < steps; s++ {
			op, arg1, arg2 := c.fetch(g, pc)
			isChar := g.IsEqual(op, gate.Value(OpChar))
			isSplit := g.IsEqual(op, gate.Value(OpSplit))
			isJmp := g.IsEqual(op, gate.Value(OpJmp))
			isMatch := g.IsEqual(op, gate.Value(OpMatch))

			accept = g.Or(accept, g.And(isMatch, g.IsEqual(sp, inputLen)))

			symbol := g.SelectFromIndex(input, sp)
			hit := g.Or(g.IsEqual(symbol, arg1), g.IsEqual(arg1, Dot))
			consumed := g.And(isChar, g.And(hit, g.IsLessThan(sp, inputLen)))

			room := g.IsLessThan(avail, limit)
			spawned := g.And(isSplit, room)
			spawn(g, spare, cur, g.Mul(arg2, spawned), sp, avail)
			cur, spare = spare, cur
			overflow = g.Or(overflow, g.And(isSplit, g.Not(room)))
			avail = g.Add(avail, spawned)

			branch := g.Or(isSplit, isJmp)
			alive := g.Or(branch, consumed)
			pc = g.Mul(g.Select(branch, arg1, g.Add(pc, 1)), alive)
			sp = g.Add(sp, consumed)
		}
		trace.emit(Event{Engine: EngineVM, Kind: EventThread, Step: steps, Thread: i, PC: pc, SP: sp})
	}
	m.threads[0], m.threads[1] = cur, spare

	if overflow != 0 {
		return 0, &PoolError{Threads: len(cur)}
	}
	return accept, nil
}
