package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileWildcard(t *testing.T) {
	cases := []struct {
		pattern string
		term    string
		matches bool
	}{
		{"Al*", "Alia", true},
		{"Al*", "Alvia", true},
		{"Al*", "Anwar", false},
		{"Al*", "Al", true},
		{"Al*", "al", false},
		{"*", "", true},
		{"*", "anything", true},
		{"a*b", "ab", true},
		{"a*b", "axxxb", true},
		{"a*b", "axxxbx", false},
		{"a*b*c", "abc", true},
		{"a*b*c", "aXbYc", true},
		{"a*b*c", "ac", false},
		{"?", "x", true},
		{"?", "", false},
		{"?", "xy", false},
		{"h?t", "hat", true},
		{"h?t", "ht", false},
		{"**a", "a", true},
		{"**a", "ba", true},
		{`\*`, "*", true},
		{`\*`, "x", false},
		{`a\?c`, "a?c", true},
		{`a\?c`, "abc", false},
		{"na?ve", "naïve", true},
		{"gr?n", "grün", true},
	}
	for _, c := range cases {
		dfa, err := CompileWildcard(c.pattern)
		require.NoError(t, err, "pattern %q", c.pattern)
		assert.Equal(t, c.matches, dfa.Matches([]byte(c.term)),
			"pattern %q against %q", c.pattern, c.term)
	}
}

func TestCompileWildcardTrailingEscape(t *testing.T) {
	_, err := CompileWildcard(`abc\`)
	require.Error(t, err)
}

func TestDFADeadState(t *testing.T) {
	dfa, err := CompileWildcard("ab")
	require.NoError(t, err)
	s := dfa.Start()
	require.True(t, dfa.CanMatch(s))
	require.False(t, dfa.IsAccept(s))
	s = dfa.Step(s, 'x')
	assert.Equal(t, Dead, s)
	assert.False(t, dfa.CanMatch(s))
	assert.False(t, dfa.IsAccept(s))
	assert.Equal(t, Dead, dfa.Step(s, 'a'))
}

func TestDFAStepSequence(t *testing.T) {
	dfa, err := CompileWildcard("a*c")
	require.NoError(t, err)
	s := dfa.Start()
	s = dfa.Step(s, 'a')
	require.True(t, dfa.CanMatch(s))
	s = dfa.Step(s, 'b')
	require.True(t, dfa.CanMatch(s))
	require.False(t, dfa.IsAccept(s))
	s = dfa.Step(s, 'c')
	assert.True(t, dfa.IsAccept(s))
	// The star keeps the automaton alive past an accept.
	s = dfa.Step(s, 'x')
	assert.True(t, dfa.CanMatch(s))
	assert.False(t, dfa.IsAccept(s))
}

func TestCompileWildcardNormalizesPattern(t *testing.T) {
	// e + combining acute normalizes to the precomposed form.
	dfa, err := CompileWildcard("café*")
	require.NoError(t, err)
	assert.True(t, dfa.Matches([]byte("cafés")))
}

func TestFuzzy(t *testing.T) {
	m := NewFuzzy("kitten", 2)
	assert.True(t, m.Matches([]byte("kitten")))
	assert.True(t, m.Matches([]byte("mitten")))
	assert.True(t, m.Matches([]byte("kitty")))
	assert.False(t, m.Matches([]byte("sitting"))) // distance 3
	// A negative bound clamps to exact match.
	assert.True(t, NewFuzzy("a", -1).Matches([]byte("a")))
	assert.False(t, NewFuzzy("a", -1).Matches([]byte("b")))
}

func TestCompilerCache(t *testing.T) {
	c, err := NewCompiler(8)
	require.NoError(t, err)
	first, err := c.Compile("Al*")
	require.NoError(t, err)
	second, err := c.Compile("Al*")
	require.NoError(t, err)
	assert.Same(t, first, second)
	_, err = c.Compile(`bad\`)
	require.Error(t, err)
}
