package legex

import (
	"fmt"

	"github.com/humbornjo/fsre/internal/gate"
)

// Reserved symbols.
const (
	Star gate.Value = '*'
	Dot  gate.Value = '.'
)

// Limits are the compile-time bounds every evaluation is shaped by.
type Limits struct {
	MaxPatternLen int
	MaxInputLen   int
	MaxThreads    int
}

// StateWidth is the StateSet width: sentinel state 0 plus states 1..P+1.
func (l Limits) StateWidth() int { return l.MaxPatternLen + 2 }

// CodeLen is the bytecode length: three slots per position plus Match.
func (l Limits) CodeLen() int { return 3*l.MaxPatternLen + 1 }

// ClosureRounds bounds the epsilon closure. Epsilon edges only go from s to
// s+1 and each one needs a '*' plus the symbol it repeats, so no chain is
// longer than P/2 edges.
func (l Limits) ClosureRounds() int { return l.MaxPatternLen / 2 }

// VMSteps bounds the instructions one thread executes. A thread spends at
// most three instructions (Split, Char, Jmp) per consumed symbol, plus a
// failing Split/Char pair and the final Match.
func (l Limits) VMSteps() int { return 4*l.MaxInputLen + 3 }

// MaxValue is the largest bound a lookup-bits comparison must represent.
func (l Limits) MaxValue() int {
	return max(l.MaxPatternLen, l.MaxInputLen, l.MaxThreads) + 1
}

func (l Limits) Validate() error {
	if l.MaxPatternLen < 1 || l.MaxInputLen < 1 || l.MaxThreads < 1 {
		return fmt.Errorf("limits must be positive: %+v", l)
	}
	return nil
}

// Validate checks the logical prefix of pattern before anything is compiled.
func Validate(lim Limits, pattern []gate.Value, patternLen int) error {
	if len(pattern) > lim.MaxPatternLen {
		return &OverflowError{What: "pattern", Len: len(pattern), Cap: lim.MaxPatternLen}
	}
	if patternLen > lim.MaxPatternLen {
		return &OverflowError{What: "pattern_len", Len: patternLen, Cap: lim.MaxPatternLen}
	}
	for i := 0; i < patternLen && i < len(pattern); i++ {
		if pattern[i] != Star {
			continue
		}
		if i == 0 {
			return &PatternError{Pos: i, Reason: "nothing to repeat"}
		}
		if pattern[i-1] == Star {
			return &PatternError{Pos: i, Reason: "repeated '*'"}
		}
	}
	return nil
}

// Row is one transition: Symbol read in From leads to To. Key encodes
// (Symbol, From) so a lookup is a single equality.
type Row struct {
	Key    gate.Value
	Symbol gate.Value
	From   gate.Value
	To     gate.Value
}

// Table is the compiled transition table of a pattern.
type Table struct {
	Rows   []Row
	Accept gate.Value

	lim  Limits
	base gate.Value
	keys []gate.Value
	next []gate.Value
}

// followedByStar reports pattern[i+1] == '*' inside the logical prefix.
func followedByStar(g *gate.Gate, pattern []gate.Value, patternLen gate.Value, i int) gate.Value {
	if i+1 >= len(pattern) {
		return 0
	}
	star := g.IsEqual(pattern[i+1], Star)
	return g.And(star, g.IsLessThan(gate.Value(i+1), patternLen))
}

// CompileTable builds the transition table. pattern must hold exactly
// MaxPatternLen symbols; positions at or past patternLen contribute
// all-zero rows.
func CompileTable(g *gate.Gate, lim Limits, pattern []gate.Value, patternLen gate.Value) *Table {
	n := lim.MaxPatternLen
	t := &Table{
		Rows: make([]Row, 0, n),
		lim:  lim,
		base: gate.Value(lim.StateWidth()),
		keys: make([]gate.Value, 0, n),
		next: make([]gate.Value, 0, n),
	}

	state := gate.Value(1)
	accept := state
	for i := 0; i < n; i++ {
		valid := g.IsLessThan(gate.Value(i), patternLen)
		inc := g.Not(followedByStar(g, pattern, patternLen, i))
		next := g.Add(state, inc)

		row := Row{
			Symbol: g.Mul(pattern[i], valid),
			From:   g.Mul(state, valid),
			To:     g.Mul(next, valid),
		}
		row.Key = g.Add(g.Mul(row.Symbol, t.base), row.From)
		t.Rows = append(t.Rows, row)
		t.keys = append(t.keys, row.Key)
		t.next = append(t.next, row.To)

		accept = g.Select(valid, next, accept)
		state = next
	}
	t.Accept = accept
	return t
}

type Opcode gate.Value

const (
	OpNone Opcode = iota
	OpChar
	OpSplit
	OpJmp
	OpMatch
)

func (op Opcode) String() string {
	switch op {
	case OpNone:
		return "None"
	case OpChar:
		return "Char"
	case OpSplit:
		return "Split"
	case OpJmp:
		return "Jmp"
	case OpMatch:
		return "Match"
	default:
		return fmt.Sprintf("Unknown(%d)", gate.Value(op))
	}
}

// Inst is a bytecode instruction. Num is its own program counter, so an
// instruction is fetched by equality on Num rather than by index.
type Inst struct {
	Op   Opcode
	Arg1 gate.Value
	Arg2 gate.Value
	Num  gate.Value
}

func (i Inst) String() string {
	switch i.Op {
	case OpChar:
		return fmt.Sprintf("%d: Char %q", i.Num, rune(i.Arg1))
	case OpSplit:
		return fmt.Sprintf("%d: Split %d, %d", i.Num, i.Arg1, i.Arg2)
	case OpJmp:
		return fmt.Sprintf("%d: Jmp %d", i.Num, i.Arg1)
	case OpMatch:
		return fmt.Sprintf("%d: Match", i.Num)
	}
	return "-"
}

// Code is the compiled bytecode of a pattern, kept by column for fetches.
type Code struct {
	Insts []Inst

	lim  Limits
	ops  []gate.Value
	arg1 []gate.Value
	arg2 []gate.Value
	nums []gate.Value
}

func (c *Code) push(inst Inst) {
	c.Insts = append(c.Insts, inst)
	c.ops = append(c.ops, gate.Value(inst.Op))
	c.arg1 = append(c.arg1, inst.Arg1)
	c.arg2 = append(c.arg2, inst.Arg2)
	c.nums = append(c.nums, inst.Num)
}

// scale keeps inst when on is 1 and zeroes every field when on is 0.
func scale(g *gate.Gate, on gate.Value, inst Inst) Inst {
	return Inst{
		Op:   Opcode(g.Mul(gate.Value(inst.Op), on)),
		Arg1: g.Mul(inst.Arg1, on),
		Arg2: g.Mul(inst.Arg2, on),
		Num:  g.Mul(inst.Num, on),
	}
}

// mix picks a when sa is 1, b when sb is 1 and the zero Inst when neither.
// sa and sb are never both 1.
func mix(g *gate.Gate, sa gate.Value, a Inst, sb gate.Value, b Inst) Inst {
	a, b = scale(g, sa, a), scale(g, sb, b)
	return Inst{
		Op:   Opcode(g.Add(gate.Value(a.Op), gate.Value(b.Op))),
		Arg1: g.Add(a.Arg1, b.Arg1),
		Arg2: g.Add(a.Arg2, b.Arg2),
		Num:  g.Add(a.Num, b.Num),
	}
}

// CompileCode builds the Thompson bytecode. Every position yields three
// slots: Split, Char, Jmp for a symbol followed by '*'; Char and two empty
// slots for a plain symbol; three empty slots for a '*' or padding.
func CompileCode(g *gate.Gate, lim Limits, pattern []gate.Value, patternLen gate.Value) *Code {
	n := lim.MaxPatternLen
	code := &Code{lim: lim, Insts: make([]Inst, 0, lim.CodeLen())}

	num := gate.Value(1)
	for i := 0; i < n; i++ {
		c := pattern[i]
		valid := g.IsLessThan(gate.Value(i), patternLen)
		absorbed := g.Or(g.IsEqual(c, Star), g.Not(valid))
		follow := followedByStar(g, pattern, patternLen, i)
		plain := g.Not(g.Or(absorbed, follow))

		split := Inst{Op: OpSplit, Arg1: g.Add(num, 1), Arg2: g.Add(num, 3), Num: num}
		char := Inst{Op: OpChar, Arg1: c, Num: num}
		code.push(mix(g, follow, split, plain, char))
		num = g.Add(num, g.Not(absorbed))

		code.push(scale(g, follow, Inst{Op: OpChar, Arg1: c, Num: num}))
		num = g.Add(num, follow)

		code.push(scale(g, follow, Inst{Op: OpJmp, Arg1: g.Sub(num, 2), Num: num}))
		num = g.Add(num, follow)
	}
	code.push(Inst{Op: OpMatch, Num: num})
	return code
}
