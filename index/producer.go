package index

import (
	"fmt"

	"github.com/winnowdb/winnow/automaton"
)

// TermsProducer yields the concrete terms allowed at one phrase
// position. Resolve fails only when the index cannot be read; "no
// match" is the empty set, never an error. Producers are comparable
// values whose identity derives from the wrapped term, so they can key
// maps and give their containing queries structural equality.
type TermsProducer interface {
	Resolve(reader Reader) (map[Term]struct{}, error)
	Term() Term
}

// Exact always produces exactly its wrapped term. It never touches the
// index.
type Exact struct {
	term Term
}

func NewExact(term Term) Exact {
	return Exact{term: term}
}

func (p Exact) Term() Term { return p.term }

func (p Exact) Resolve(Reader) (map[Term]struct{}, error) {
	return map[Term]struct{}{p.term: {}}, nil
}

func (p Exact) String() string { return p.term.String() }

// Wildcard produces every term in the index's vocabulary for its field
// that matches its wildcard pattern. The pattern is compiled fresh on
// each call; results are never cached across snapshots.
type Wildcard struct {
	term Term
}

func NewWildcard(pattern Term) Wildcard {
	return Wildcard{term: pattern}
}

func (p Wildcard) Term() Term { return p.term }

func (p Wildcard) Resolve(reader Reader) (map[Term]struct{}, error) {
	dfa, err := automaton.CompileWildcard(p.term.Text)
	if err != nil {
		return nil, err
	}
	return matchingTerms(reader, p.term.Field, dfa)
}

func (p Wildcard) String() string { return p.term.String() }

// Fuzzy produces every term in its field's vocabulary within a
// Levenshtein distance bound of the wrapped term's text.
type Fuzzy struct {
	term     Term
	distance int
}

func NewFuzzy(term Term, distance int) Fuzzy {
	return Fuzzy{term: term, distance: distance}
}

func (p Fuzzy) Term() Term { return p.term }

func (p Fuzzy) Distance() int { return p.distance }

func (p Fuzzy) Resolve(reader Reader) (map[Term]struct{}, error) {
	return matchingTerms(reader, p.term.Field, automaton.NewFuzzy(p.term.Text, p.distance))
}

func (p Fuzzy) String() string {
	return fmt.Sprintf("%s~%d", p.term, p.distance)
}

// matchingTerms collects the deduplicated set of vocabulary terms
// accepted by m. The dictionary handle is closed on every exit path,
// including the early return when the field has no terms.
func matchingTerms(reader Reader, field string, m automaton.Matcher) (map[Term]struct{}, error) {
	dict, err := reader.Terms(field)
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return map[Term]struct{}{}, nil
	}
	defer dict.Close()
	terms := make(map[Term]struct{})
	err = dict.Matching(m, func(b []byte) error {
		// string(b) copies: b aliases the dictionary's iteration
		// buffer and does not outlive the callback.
		terms[Term{Field: field, Text: string(b)}] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return terms, nil
}
