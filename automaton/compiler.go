package automaton

import (
	arc "github.com/hashicorp/golang-lru/arc/v2"
)

// Compiler caches compiled wildcard automatons by pattern.
// Compilation is pure, so a cached automaton stays valid across index
// snapshots. Useful where the same patterns are stepped repeatedly,
// e.g. a query evaluator; one-shot resolution can call CompileWildcard
// directly.
type Compiler struct {
	cache *arc.ARCCache[string, *DFA]
}

func NewCompiler(size int) (*Compiler, error) {
	cache, err := arc.NewARC[string, *DFA](size)
	if err != nil {
		return nil, err
	}
	return &Compiler{cache: cache}, nil
}

func (c *Compiler) Compile(pattern string) (*DFA, error) {
	if dfa, ok := c.cache.Get(pattern); ok {
		return dfa, nil
	}
	dfa, err := CompileWildcard(pattern)
	if err != nil {
		return nil, err
	}
	c.cache.Add(pattern, dfa)
	return dfa, nil
}
