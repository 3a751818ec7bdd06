// Package limit derives a limiting filter for a query: a cheaper
// expression guaranteed to match a superset of the documents the
// original matches, safe to AND in front of the original to prune the
// candidate set before exact evaluation runs.
package limit

import (
	"github.com/winnowdb/winnow/index"
	"github.com/winnowdb/winnow/query"
)

// Filter returns a limiting filter for q, or nil when no safe
// approximation exists. A nil result is an expected outcome, not an
// error; callers omit the contribution.
//
// The transform threads a negation flag through the recursion. While
// not negated, a result may match more documents than its source.
// Once an ancestor will invert the result, it must match exactly the
// same set: a superset fed to a logical NOT would wrongly exclude
// documents. Positional queries can never be exact once order and
// adjacency are dropped, so phrases and spans with more than one
// effective position are unapproximable under negation.
//
// Queries outside the closed grammar pass through unchanged on the
// assumption that they are already cheap or exact. That assumption is
// not verified; an expensive unrecognized query degrades performance
// silently rather than failing.
func Filter(q query.Query) query.Query {
	return filter(q, false)
}

func filter(q query.Query, negated bool) query.Query {
	switch q := q.(type) {
	case query.SpanQuery:
		if negated {
			return nil
		}
		return spanFilter(q)
	case *query.Bool:
		return boolFilter(q, negated)
	case *query.Term:
		return q
	case *query.Phrase:
		return phraseFilter(q, negated)
	case *query.Wildcard:
		// Multi-term expansion is cheap relative to positional
		// evaluation and matches exactly, so it stands as its own
		// filter under either polarity.
		return q
	case *query.Fuzzy:
		return q
	case *query.WildcardPhrase:
		return wildcardPhraseFilter(q, negated)
	case *query.MatchNone:
		return q
	default:
		// Unrecognized queries should never reach this transform,
		// but if one does, passing it through keeps the filter sound
		// at the cost of possibly being slow.
		return q
	}
}

// spanFilter is only reached when the span is not negated, so it is
// total: every span query has a sound over-approximation.
func spanFilter(q query.SpanQuery) query.Query {
	switch q := q.(type) {
	case *query.SpanNear:
		clauses := make([]query.Query, 0, len(q.Clauses))
		for _, sub := range q.Clauses {
			clauses = append(clauses, spanFilter(sub))
		}
		return allOf(clauses)
	case *query.SpanNot:
		// Dropping the exclusion only adds matches.
		return spanFilter(q.Include)
	case *query.SpanOr:
		clauses := make([]query.Query, 0, len(q.Clauses))
		for _, sub := range q.Clauses {
			clauses = append(clauses, spanFilter(sub))
		}
		return anyOf(clauses)
	case *query.SpanTerm:
		return query.NewTerm(q.Term)
	case *query.SpanWildcard:
		return query.NewWildcard(q.Pattern)
	default:
		return q
	}
}

func boolFilter(q *query.Bool, negated bool) query.Query {
	var must, should, mustNot, filters []query.Query
	originalMust := 0
	for _, c := range q.Clauses {
		switch c.Occur {
		case query.Must:
			originalMust++
			appendIfPresent(&must, filter(c.Query, negated))
		case query.Should:
			appendIfPresent(&should, filter(c.Query, negated))
		case query.Filter:
			appendIfPresent(&filters, filter(c.Query, negated))
		case query.MustNot:
			// Excluded clauses are always recursed as negated: the
			// enclosing boolean inverts their match set, so only an
			// exact approximation is safe there.
			appendIfPresent(&mustNot, filter(c.Query, true))
		}
	}
	switch {
	case negated && len(must) != originalMust:
		// A mandatory clause has no exact approximation, so the
		// boolean as a whole cannot be exact. FILTER clauses are the
		// only salvageable part.
		return filterOrNone(filters)
	case len(must) == 0 && len(mustNot) == 0 && len(should) == 0:
		return filterOrNone(filters)
	case len(must) == 0 && len(should) == 0:
		return withFilters(noneOf(mustNot), filters)
	case len(must) == 0 && len(mustNot) == 0:
		return withFilters(anyOf(should), filters)
	default:
		ret := query.NewBool()
		for _, sub := range must {
			ret.Add(sub, query.Must)
		}
		for _, sub := range should {
			ret.Add(sub, query.Should)
		}
		for _, sub := range mustNot {
			ret.Add(sub, query.MustNot)
		}
		return withFilters(ret, filters)
	}
}

func phraseFilter(q *query.Phrase, negated bool) query.Query {
	terms := q.Terms
	switch {
	case len(terms) == 0:
		return nil
	case len(terms) == 1:
		// A one-term phrase is not positional; the term is exact.
		return query.NewTerm(terms[0])
	case !negated:
		// Drop order and adjacency: the conjunction of the terms is a
		// superset of the phrase's matches.
		clauses := make([]query.Query, 0, len(terms))
		for _, t := range terms {
			clauses = append(clauses, query.NewTerm(t))
		}
		return allOf(clauses)
	default:
		return nil
	}
}

func wildcardPhraseFilter(q *query.WildcardPhrase, negated bool) query.Query {
	entries := q.Entries()
	if negated && len(entries) > 1 {
		return nil
	}
	var clauses []query.Query
	for _, e := range entries {
		if p, ok := e.Producer.(index.Exact); ok {
			clauses = append(clauses, query.NewTerm(p.Term()))
		}
	}
	if len(clauses) == 0 {
		for _, e := range entries {
			if p, ok := e.Producer.(index.Wildcard); ok {
				clauses = append(clauses, query.NewWildcard(p.Term()))
			}
		}
	}
	if len(clauses) == 0 {
		for _, e := range entries {
			if p, ok := e.Producer.(index.Fuzzy); ok {
				clauses = append(clauses, query.NewFuzzy(p.Term(), p.Distance()))
			}
		}
	}
	if len(clauses) == 0 {
		// Only reached for a phrase with no positions at all, which
		// matches nothing; an empty conjunction would be the wrong
		// direction to err in.
		return nil
	}
	return allOf(clauses)
}

func appendIfPresent(clauses *[]query.Query, q query.Query) {
	if q != nil {
		*clauses = append(*clauses, q)
	}
}

func withFilters(b *query.Bool, filters []query.Query) query.Query {
	for _, f := range filters {
		b.Add(f, query.Filter)
	}
	return b
}

func filterOrNone(filters []query.Query) query.Query {
	if len(filters) == 0 {
		return nil
	}
	return allOf(filters)
}

func allOf(clauses []query.Query) *query.Bool {
	return combine(clauses, query.Must)
}

func anyOf(clauses []query.Query) *query.Bool {
	return combine(clauses, query.Should)
}

func noneOf(clauses []query.Query) *query.Bool {
	return combine(clauses, query.MustNot)
}

func combine(clauses []query.Query, occur query.Occur) *query.Bool {
	b := query.NewBool()
	for _, q := range clauses {
		b.Add(q, occur)
	}
	return b
}
