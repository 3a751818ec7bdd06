// Package automaton compiles term patterns into deterministic matchers
// used to intersect a field's term dictionary.
package automaton

import (
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// State is a state in a deterministic finite automaton. State 0 is the
// dead state, from which no accepting state is reachable.
type State uint32

const Dead State = 0

// Matcher reports whether a vocabulary term matches a compiled
// pattern. Implementations must be safe for concurrent use.
type Matcher interface {
	Matches(term []byte) bool
}

// maxStates bounds subset construction so a pathological pattern
// cannot blow up compilation.
const maxStates = 1 << 12

const (
	literal = iota
	anyOne  // ?
	anyMany // *
)

type token struct {
	kind int
	r    rune
}

// DFA is a rune-labeled deterministic automaton built from a wildcard
// pattern. Transitions not present in next fall through to other,
// which covers every rune the pattern does not name.
type DFA struct {
	start  State
	states []dfaState
}

type dfaState struct {
	next   map[rune]State
	other  State
	accept bool
}

// CompileWildcard compiles a wildcard pattern where * matches any run
// of characters, ? matches exactly one character, and a backslash
// escapes the next character. The pattern is NFC-normalized before
// compilation. Compilation is pure and fails only on malformed
// pattern syntax.
func CompileWildcard(pattern string) (*DFA, error) {
	toks, err := parse(norm.NFC.String(pattern))
	if err != nil {
		return nil, err
	}
	return determinize(toks)
}

func parse(pattern string) ([]token, error) {
	runes := []rune(pattern)
	toks := make([]token, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			toks = append(toks, token{kind: anyMany})
		case '?':
			toks = append(toks, token{kind: anyOne})
		case '\\':
			i++
			if i == len(runes) {
				return nil, fmt.Errorf("wildcard %q: trailing escape", pattern)
			}
			toks = append(toks, token{kind: literal, r: runes[i]})
		default:
			toks = append(toks, token{kind: literal, r: runes[i]})
		}
	}
	return toks, nil
}

// determinize runs subset construction over the glob NFA whose states
// are token positions: position i is "about to match token i" and
// position len(toks) accepts. The effective alphabet is the pattern's
// literal runes plus a single class for every other rune.
func determinize(toks []token) (*DFA, error) {
	n := len(toks)
	literals := make(map[rune]struct{})
	for _, t := range toks {
		if t.kind == literal {
			literals[t.r] = struct{}{}
		}
	}
	closure := func(set []int) []int {
		seen := make(map[int]bool)
		var out []int
		var add func(i int)
		add = func(i int) {
			if seen[i] {
				return
			}
			seen[i] = true
			out = append(out, i)
			if i < n && toks[i].kind == anyMany {
				add(i + 1)
			}
		}
		for _, i := range set {
			add(i)
		}
		slices.Sort(out)
		return out
	}
	move := func(set []int, r rune, isOther bool) []int {
		var out []int
		for _, i := range set {
			if i == n {
				continue
			}
			switch toks[i].kind {
			case literal:
				if !isOther && toks[i].r == r {
					out = append(out, i+1)
				}
			case anyOne:
				out = append(out, i+1)
			case anyMany:
				out = append(out, i)
			}
		}
		return out
	}
	d := &DFA{states: []dfaState{{}}} // states[0] is Dead
	ids := map[string]State{"": Dead}
	var intern func(set []int) (State, error)
	intern = func(set []int) (State, error) {
		key := setKey(set)
		if id, ok := ids[key]; ok {
			return id, nil
		}
		if len(d.states) >= maxStates {
			return Dead, fmt.Errorf("wildcard pattern too complex")
		}
		id := State(len(d.states))
		ids[key] = id
		d.states = append(d.states, dfaState{})
		accept := false
		for _, i := range set {
			if i == n {
				accept = true
			}
		}
		other, err := intern(closure(move(set, 0, true)))
		if err != nil {
			return Dead, err
		}
		next := make(map[rune]State, len(literals))
		for r := range literals {
			target, err := intern(closure(move(set, r, false)))
			if err != nil {
				return Dead, err
			}
			if target != other {
				next[r] = target
			}
		}
		d.states[id] = dfaState{next: next, other: other, accept: accept}
		return id, nil
	}
	start, err := intern(closure([]int{0}))
	if err != nil {
		return nil, err
	}
	d.start = start
	return d, nil
}

func setKey(set []int) string {
	if len(set) == 0 {
		return ""
	}
	b := make([]byte, 0, len(set)*2)
	for _, i := range set {
		b = append(b, byte(i), byte(i>>8))
	}
	return string(b)
}

func (d *DFA) Start() State { return d.start }

// Step returns the state reached from s on input r, or Dead if no
// match can continue.
func (d *DFA) Step(s State, r rune) State {
	if s == Dead {
		return Dead
	}
	st := &d.states[s]
	if next, ok := st.next[r]; ok {
		return next
	}
	return st.other
}

func (d *DFA) IsAccept(s State) bool {
	return s != Dead && d.states[s].accept
}

// CanMatch reports whether an accepting state is reachable from s. In
// a wildcard automaton every live state can still match, so this is
// simply a dead-state test; dictionary implementations use it to prune
// traversal.
func (d *DFA) CanMatch(s State) bool { return s != Dead }

// Matches implements Matcher by stepping the automaton over the
// term's runes.
func (d *DFA) Matches(term []byte) bool {
	s := d.start
	for _, r := range string(term) {
		s = d.Step(s, r)
		if s == Dead {
			return false
		}
	}
	return d.IsAccept(s)
}
