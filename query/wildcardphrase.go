package query

import (
	"slices"
	"strings"

	"github.com/winnowdb/winnow/index"
)

// WildcardPhrase is a phrase whose positions may be patterns rather
// than literal words. Each entry's producer supplies the terms allowed
// at that position; entry order is the phrase order. A WildcardPhrase
// is built incrementally with Add and must not change once handed to
// evaluation. It is rewritten lazily against a specific index
// snapshot; the rewrite is never cached across snapshots.
type WildcardPhrase struct {
	entries []WildcardPhraseEntry
}

type WildcardPhraseEntry struct {
	Position int
	Producer index.TermsProducer
}

func NewWildcardPhrase() *WildcardPhrase {
	return &WildcardPhrase{}
}

// Add appends a producer at the given phrase position and returns the
// phrase for chaining.
func (q *WildcardPhrase) Add(p index.TermsProducer, position int) *WildcardPhrase {
	q.entries = append(q.entries, WildcardPhraseEntry{Position: position, Producer: p})
	return q
}

func (q *WildcardPhrase) Entries() []WildcardPhraseEntry {
	return q.entries
}

// Equal reports structural equality over the ordered sequence of
// positions and producers.
func (q *WildcardPhrase) Equal(other *WildcardPhrase) bool {
	return slices.Equal(q.entries, other.entries)
}

// Rewrite resolves every position against reader, in order. A position
// with no matching terms makes the whole phrase unsatisfiable: the
// rewrite short-circuits to MatchNone. Otherwise the result is a
// MultiPhrase over the resolved candidate sets. Slot terms are sorted
// for determinism; matching is a per-position membership test, so
// order never affects correctness.
func (q *WildcardPhrase) Rewrite(reader index.Reader) (Query, error) {
	multi := &MultiPhrase{Slots: make([]MultiPhraseSlot, 0, len(q.entries))}
	for _, e := range q.entries {
		terms, err := e.Producer.Resolve(reader)
		if err != nil {
			return nil, err
		}
		if len(terms) == 0 {
			return NewMatchNone(), nil
		}
		sorted := make([]index.Term, 0, len(terms))
		for t := range terms {
			sorted = append(sorted, t)
		}
		slices.SortFunc(sorted, func(a, b index.Term) int {
			return strings.Compare(a.Text, b.Text)
		})
		multi.Slots = append(multi.Slots, MultiPhraseSlot{Position: e.Position, Terms: sorted})
	}
	return multi, nil
}

func (q *WildcardPhrase) String() string {
	var b strings.Builder
	b.WriteString("WildcardPhrase(")
	for i, e := range q.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Producer.Term().String())
	}
	b.WriteString(")")
	return b.String()
}
