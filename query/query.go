// Package query defines the closed expression grammar shared by the
// limiting-filter transform and query evaluation. Expressions arrive
// already structured; there is no parser here. Any Query
// implementation outside this package is treated by consumers as an
// opaque, already-cheap expression.
package query

import (
	"fmt"
	"strings"

	"github.com/winnowdb/winnow/index"
)

// Query is implemented by every expression node.
type Query interface {
	String() string
}

// Term matches documents containing one indexed term.
type Term struct {
	Term index.Term
}

func NewTerm(t index.Term) *Term {
	return &Term{Term: t}
}

func (q *Term) String() string { return q.Term.String() }

// Phrase matches documents where its terms occur contiguously in
// order. Positions are implicit: term i must occur at offset i from
// the phrase start.
type Phrase struct {
	Terms []index.Term
}

func NewPhrase(terms ...index.Term) *Phrase {
	return &Phrase{Terms: terms}
}

func (q *Phrase) String() string {
	var b strings.Builder
	b.WriteString(`"`)
	for i, t := range q.Terms {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(t.String())
	}
	b.WriteString(`"`)
	return b.String()
}

// Wildcard matches documents containing any vocabulary term accepted
// by its pattern.
type Wildcard struct {
	Pattern index.Term
}

func NewWildcard(pattern index.Term) *Wildcard {
	return &Wildcard{Pattern: pattern}
}

func (q *Wildcard) String() string { return q.Pattern.String() }

// Fuzzy matches documents containing any vocabulary term within a
// Levenshtein distance bound of its term's text.
type Fuzzy struct {
	Term     index.Term
	Distance int
}

func NewFuzzy(t index.Term, distance int) *Fuzzy {
	return &Fuzzy{Term: t, Distance: distance}
}

func (q *Fuzzy) String() string {
	return fmt.Sprintf("%s~%d", q.Term, q.Distance)
}

// MatchNone matches no documents. It is the rewrite target of an
// unsatisfiable wildcard phrase.
type MatchNone struct{}

func NewMatchNone() *MatchNone { return &MatchNone{} }

func (q *MatchNone) String() string { return "MatchNone" }

// MultiPhrase is a concrete positional phrase where each slot carries
// a set of candidate terms: a document matches when some base offset b
// exists such that every slot i has one of its terms at b plus the
// slot's position.
type MultiPhrase struct {
	Slots []MultiPhraseSlot
}

type MultiPhraseSlot struct {
	Position int
	Terms    []index.Term
}

func (q *MultiPhrase) String() string {
	var b strings.Builder
	b.WriteString("MultiPhrase(")
	for i, slot := range q.Slots {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("[")
		for j, t := range slot.Terms {
			if j > 0 {
				b.WriteString("|")
			}
			b.WriteString(t.Text)
		}
		b.WriteString("]")
	}
	b.WriteString(")")
	return b.String()
}
