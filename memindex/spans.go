package memindex

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/winnowdb/winnow/query"
)

// span is a half-open position interval [start, end) within one
// document.
type span struct {
	start, end int
}

func (s *Snapshot) searchSpan(q query.SpanQuery) (*roaring.Bitmap, error) {
	candidates, err := s.spanCandidates(q)
	if err != nil {
		return nil, err
	}
	out := roaring.New()
	it := candidates.Iterator()
	for it.HasNext() {
		doc := it.Next()
		spans, err := s.spans(q, doc)
		if err != nil {
			return nil, err
		}
		if len(spans) > 0 {
			out.Add(doc)
		}
	}
	return out, nil
}

// spanCandidates over-approximates the documents that can contain a
// span, so span enumeration only runs where it can succeed.
func (s *Snapshot) spanCandidates(q query.SpanQuery) (*roaring.Bitmap, error) {
	switch q := q.(type) {
	case *query.SpanTerm:
		if p := s.lookup(q.Term); p != nil {
			return p.docs.Clone(), nil
		}
		return roaring.New(), nil
	case *query.SpanWildcard:
		return s.searchWildcard(q.Pattern)
	case *query.SpanOr:
		out := roaring.New()
		for _, sub := range q.Clauses {
			docs, err := s.spanCandidates(sub)
			if err != nil {
				return nil, err
			}
			out.Or(docs)
		}
		return out, nil
	case *query.SpanNear:
		var out *roaring.Bitmap
		for _, sub := range q.Clauses {
			docs, err := s.spanCandidates(sub)
			if err != nil {
				return nil, err
			}
			if out == nil {
				out = docs
			} else {
				out.And(docs)
			}
		}
		if out == nil {
			out = roaring.New()
		}
		return out, nil
	case *query.SpanNot:
		return s.spanCandidates(q.Include)
	default:
		return nil, fmt.Errorf("memindex: cannot evaluate span %T", q)
	}
}

func (s *Snapshot) spans(q query.SpanQuery, doc uint32) ([]span, error) {
	switch q := q.(type) {
	case *query.SpanTerm:
		p := s.lookup(q.Term)
		if p == nil {
			return nil, nil
		}
		var out []span
		for _, pos := range p.positions[doc] {
			out = append(out, span{start: pos, end: pos + 1})
		}
		return out, nil
	case *query.SpanWildcard:
		dfa, err := s.wildcards.Compile(q.Pattern.Text)
		if err != nil {
			return nil, err
		}
		var out []span
		for text, p := range s.fields[q.Pattern.Field] {
			if !dfa.Matches([]byte(text)) {
				continue
			}
			for _, pos := range p.positions[doc] {
				out = append(out, span{start: pos, end: pos + 1})
			}
		}
		return sortSpans(out), nil
	case *query.SpanOr:
		var out []span
		for _, sub := range q.Clauses {
			spans, err := s.spans(sub, doc)
			if err != nil {
				return nil, err
			}
			out = append(out, spans...)
		}
		return sortSpans(out), nil
	case *query.SpanNot:
		include, err := s.spans(q.Include, doc)
		if err != nil {
			return nil, err
		}
		exclude, err := s.spans(q.Exclude, doc)
		if err != nil {
			return nil, err
		}
		var out []span
		for _, in := range include {
			overlaps := false
			for _, ex := range exclude {
				if in.start < ex.end && ex.start < in.end {
					overlaps = true
					break
				}
			}
			if !overlaps {
				out = append(out, in)
			}
		}
		return out, nil
	case *query.SpanNear:
		return s.nearSpans(q, doc)
	default:
		return nil, fmt.Errorf("memindex: cannot evaluate span %T", q)
	}
}

// nearSpans enumerates tuples of one child span each and keeps the
// enclosing interval when the children fit within the slop: the
// enclosing width minus the children's total length must not exceed
// it. With InOrder each child must start at or after the previous
// child's end.
func (s *Snapshot) nearSpans(q *query.SpanNear, doc uint32) ([]span, error) {
	if len(q.Clauses) == 0 {
		return nil, nil
	}
	children := make([][]span, len(q.Clauses))
	for i, sub := range q.Clauses {
		spans, err := s.spans(sub, doc)
		if err != nil {
			return nil, err
		}
		if len(spans) == 0 {
			return nil, nil
		}
		children[i] = spans
	}
	var out []span
	tuple := make([]span, len(children))
	var walk func(i int)
	walk = func(i int) {
		if i == len(children) {
			if combined, ok := combineNear(tuple, q.Slop, q.InOrder); ok {
				out = append(out, combined)
			}
			return
		}
		for _, sp := range children[i] {
			tuple[i] = sp
			walk(i + 1)
		}
	}
	walk(0)
	return sortSpans(out), nil
}

func combineNear(tuple []span, slop int, inOrder bool) (span, bool) {
	start, end, total := tuple[0].start, tuple[0].end, 0
	for i, sp := range tuple {
		if inOrder && i > 0 && sp.start < tuple[i-1].end {
			return span{}, false
		}
		start = min(start, sp.start)
		end = max(end, sp.end)
		total += sp.end - sp.start
	}
	if end-start-total > slop {
		return span{}, false
	}
	return span{start: start, end: end}, true
}

func sortSpans(spans []span) []span {
	slices.SortFunc(spans, func(a, b span) int {
		if a.start != b.start {
			return a.start - b.start
		}
		return a.end - b.end
	})
	return slices.Compact(spans)
}
