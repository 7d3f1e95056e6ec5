// Package oracle is the reference matcher the fixed-shape engines are
// tested against. It is an ordinary map driven NFA simulation: transitions
// are keyed by (symbol, state), closures run to a fixed point and the loop
// stops as soon as no state is left.
package oracle

const (
	star = '*'
	dot  = '.'
)

type key struct {
	symbol rune
	state  int
}

// Automaton is a compiled pattern. The zero value rejects everything.
type Automaton struct {
	transitions map[key]int
	accept      int
}

// Compile builds the automaton for pattern. A '*' turns the symbol before
// it into a self loop and adds an epsilon edge to the next state. Malformed
// stars are the caller's concern.
func Compile(pattern []rune) *Automaton {
	a := &Automaton{transitions: make(map[key]int)}
	state := 1
	for i, c := range pattern {
		switch {
		case c == star:
			a.transitions[key{star, state}] = state + 1
			state++
		case i+1 < len(pattern) && pattern[i+1] == star:
			a.transitions[key{c, state}] = state
		default:
			a.transitions[key{c, state}] = state + 1
			state++
		}
	}
	a.accept = state
	return a
}

func (a *Automaton) closure(states map[int]bool) map[int]bool {
	for changed := true; changed; {
		changed = false
		for s := range states {
			if next, ok := a.transitions[key{star, s}]; ok && !states[next] {
				states[next] = true
				changed = true
			}
		}
	}
	return states
}

// Match reports whether a accepts all of s.
func (a *Automaton) Match(s []rune) bool {
	if a.transitions == nil {
		return false
	}
	cur := a.closure(map[int]bool{1: true})
	for _, c := range s {
		next := make(map[int]bool)
		for st := range cur {
			if c != star {
				if to, ok := a.transitions[key{c, st}]; ok {
					next[to] = true
				}
			}
			if to, ok := a.transitions[key{dot, st}]; ok {
				next[to] = true
			}
		}
		if len(next) == 0 {
			return false
		}
		cur = a.closure(next)
	}
	return cur[a.accept]
}

// Match compiles pattern and matches it against s.
func Match(pattern, s string) bool {
	return Compile([]rune(pattern)).Match([]rune(s))
}
