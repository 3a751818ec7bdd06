package memindex

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/winnowdb/winnow/automaton"
	"github.com/winnowdb/winnow/index"
	"github.com/winnowdb/winnow/query"
)

// Search evaluates q against the snapshot and returns the matching
// document ids. Evaluation follows Lucene occur semantics for boolean
// queries and positional semantics for phrases and spans.
func (s *Snapshot) Search(q query.Query) (*roaring.Bitmap, error) {
	switch q := q.(type) {
	case *query.Term:
		if p := s.lookup(q.Term); p != nil {
			return p.docs.Clone(), nil
		}
		return roaring.New(), nil
	case *query.Phrase:
		return s.searchPhrase(q)
	case *query.Wildcard:
		return s.searchWildcard(q.Pattern)
	case *query.Fuzzy:
		return s.searchMatcher(q.Term.Field, automaton.NewFuzzy(q.Term.Text, q.Distance)), nil
	case *query.WildcardPhrase:
		rewritten, err := q.Rewrite(s)
		if err != nil {
			return nil, err
		}
		return s.Search(rewritten)
	case *query.MultiPhrase:
		return s.searchMultiPhrase(q)
	case *query.MatchNone:
		return roaring.New(), nil
	case *query.Bool:
		return s.searchBool(q)
	case query.SpanQuery:
		return s.searchSpan(q)
	default:
		return nil, fmt.Errorf("memindex: cannot evaluate %T", q)
	}
}

func (s *Snapshot) searchBool(q *query.Bool) (*roaring.Bitmap, error) {
	var required, shoulds, nots []*roaring.Bitmap
	for _, c := range q.Clauses {
		matches, err := s.Search(c.Query)
		if err != nil {
			return nil, err
		}
		switch c.Occur {
		case query.Must, query.Filter:
			required = append(required, matches)
		case query.Should:
			shoulds = append(shoulds, matches)
		case query.MustNot:
			nots = append(nots, matches)
		}
	}
	out := roaring.New()
	switch {
	case len(required) > 0:
		// SHOULD clauses only influence scoring once a conjunctive
		// clause exists; they do not constrain the match set.
		out = required[0]
		for _, m := range required[1:] {
			out.And(m)
		}
	case len(shoulds) > 0:
		for _, m := range shoulds {
			out.Or(m)
		}
	}
	// A purely negative boolean matches nothing.
	for _, m := range nots {
		out.AndNot(m)
	}
	return out, nil
}

func (s *Snapshot) searchPhrase(q *query.Phrase) (*roaring.Bitmap, error) {
	out := roaring.New()
	if len(q.Terms) == 0 {
		return out, nil
	}
	post := make([]*postings, len(q.Terms))
	for i, t := range q.Terms {
		p := s.lookup(t)
		if p == nil {
			return out, nil
		}
		post[i] = p
	}
	candidates := post[0].docs.Clone()
	for _, p := range post[1:] {
		candidates.And(p.docs)
	}
	it := candidates.Iterator()
	for it.HasNext() {
		doc := it.Next()
		for _, base := range post[0].positions[doc] {
			matched := true
			for i := 1; i < len(post); i++ {
				if !slices.Contains(post[i].positions[doc], base+i) {
					matched = false
					break
				}
			}
			if matched {
				out.Add(doc)
				break
			}
		}
	}
	return out, nil
}

func (s *Snapshot) searchWildcard(pattern index.Term) (*roaring.Bitmap, error) {
	dfa, err := s.wildcards.Compile(pattern.Text)
	if err != nil {
		return nil, err
	}
	return s.searchMatcher(pattern.Field, dfa), nil
}

func (s *Snapshot) searchMatcher(field string, m automaton.Matcher) *roaring.Bitmap {
	out := roaring.New()
	for text, p := range s.fields[field] {
		if m.Matches([]byte(text)) {
			out.Or(p.docs)
		}
	}
	return out
}

func (s *Snapshot) searchMultiPhrase(q *query.MultiPhrase) (*roaring.Bitmap, error) {
	out := roaring.New()
	if len(q.Slots) == 0 {
		return out, nil
	}
	// Per slot, the docs containing any candidate term and the union
	// of candidate positions per doc.
	type slotIndex struct {
		docs      *roaring.Bitmap
		positions map[uint32][]int
	}
	slots := make([]slotIndex, len(q.Slots))
	for i, slot := range q.Slots {
		si := slotIndex{docs: roaring.New(), positions: make(map[uint32][]int)}
		for _, t := range slot.Terms {
			p := s.lookup(t)
			if p == nil {
				continue
			}
			si.docs.Or(p.docs)
			for doc, pos := range p.positions {
				si.positions[doc] = append(si.positions[doc], pos...)
			}
		}
		slots[i] = si
	}
	candidates := slots[0].docs.Clone()
	for _, si := range slots[1:] {
		candidates.And(si.docs)
	}
	it := candidates.Iterator()
	for it.HasNext() {
		doc := it.Next()
		for _, p0 := range slots[0].positions[doc] {
			base := p0 - q.Slots[0].Position
			matched := true
			for i := 1; i < len(slots); i++ {
				if !slices.Contains(slots[i].positions[doc], base+q.Slots[i].Position) {
					matched = false
					break
				}
			}
			if matched {
				out.Add(doc)
				break
			}
		}
	}
	return out, nil
}
