package query

import (
	"fmt"
	"strings"

	"github.com/winnowdb/winnow/index"
)

// SpanQuery is implemented by the span family, whose matches are
// position intervals within a document rather than whole documents. A
// document matches a span query when it contains at least one span.
type SpanQuery interface {
	Query
	isSpan()
}

// SpanTerm yields a one-position span for every occurrence of its
// term.
type SpanTerm struct {
	Term index.Term
}

func NewSpanTerm(t index.Term) *SpanTerm {
	return &SpanTerm{Term: t}
}

func (q *SpanTerm) isSpan()        {}
func (q *SpanTerm) String() string { return "span(" + q.Term.String() + ")" }

// SpanWildcard yields the spans of every vocabulary term accepted by
// its pattern, the span equivalent of wrapping a multi-term query.
type SpanWildcard struct {
	Pattern index.Term
}

func NewSpanWildcard(pattern index.Term) *SpanWildcard {
	return &SpanWildcard{Pattern: pattern}
}

func (q *SpanWildcard) isSpan()        {}
func (q *SpanWildcard) String() string { return "span(" + q.Pattern.String() + ")" }

// SpanNear matches where all child spans occur within Slop intervening
// positions of each other, in clause order when InOrder is set.
type SpanNear struct {
	Clauses []SpanQuery
	Slop    int
	InOrder bool
}

func NewSpanNear(clauses []SpanQuery, slop int, inOrder bool) *SpanNear {
	return &SpanNear{Clauses: clauses, Slop: slop, InOrder: inOrder}
}

func (q *SpanNear) isSpan() {}

func (q *SpanNear) String() string {
	return fmt.Sprintf("spanNear(%s, slop=%d, inOrder=%t)", joinSpans(q.Clauses), q.Slop, q.InOrder)
}

// SpanOr matches the union of its child spans.
type SpanOr struct {
	Clauses []SpanQuery
}

func NewSpanOr(clauses ...SpanQuery) *SpanOr {
	return &SpanOr{Clauses: clauses}
}

func (q *SpanOr) isSpan()        {}
func (q *SpanOr) String() string { return "spanOr(" + joinSpans(q.Clauses) + ")" }

// SpanNot matches Include spans that do not overlap any Exclude span.
type SpanNot struct {
	Include SpanQuery
	Exclude SpanQuery
}

func NewSpanNot(include, exclude SpanQuery) *SpanNot {
	return &SpanNot{Include: include, Exclude: exclude}
}

func (q *SpanNot) isSpan() {}

func (q *SpanNot) String() string {
	return fmt.Sprintf("spanNot(%s, %s)", q.Include, q.Exclude)
}

func joinSpans(clauses []SpanQuery) string {
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
