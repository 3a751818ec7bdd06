package main

import (
	"errors"
	"fmt"

	"github.com/winnowdb/winnow/index"
	"github.com/winnowdb/winnow/query"
)

// querySpec is the structured YAML encoding of a query expression.
// Exactly one of the fields may be set per node. This is a data
// binding, not a query-language parser.
type querySpec struct {
	Term           *termSpec           `yaml:"term"`
	Phrase         *phraseSpec         `yaml:"phrase"`
	Wildcard       *termSpec           `yaml:"wildcard"`
	Fuzzy          *fuzzySpec          `yaml:"fuzzy"`
	Bool           []clauseSpec        `yaml:"bool"`
	WildcardPhrase *wildcardPhraseSpec `yaml:"wildcard_phrase"`
	SpanNear       *spanNearSpec       `yaml:"span_near"`
	SpanOr         []querySpec         `yaml:"span_or"`
	SpanNot        *spanNotSpec        `yaml:"span_not"`
	SpanTerm       *termSpec           `yaml:"span_term"`
	SpanWildcard   *termSpec           `yaml:"span_wildcard"`
}

type termSpec struct {
	Field string `yaml:"field"`
	Text  string `yaml:"text"`
}

type phraseSpec struct {
	Field string   `yaml:"field"`
	Terms []string `yaml:"terms"`
}

type fuzzySpec struct {
	Field    string `yaml:"field"`
	Text     string `yaml:"text"`
	Distance int    `yaml:"distance"`
}

type clauseSpec struct {
	Occur string    `yaml:"occur"`
	Query querySpec `yaml:"query"`
}

type wildcardPhraseSpec struct {
	Field     string         `yaml:"field"`
	Positions []positionSpec `yaml:"positions"`
}

type positionSpec struct {
	Text     string `yaml:"text"`
	Wildcard bool   `yaml:"wildcard"`
}

type spanNearSpec struct {
	Clauses []querySpec `yaml:"clauses"`
	Slop    int         `yaml:"slop"`
	InOrder bool        `yaml:"in_order"`
}

type spanNotSpec struct {
	Include querySpec `yaml:"include"`
	Exclude querySpec `yaml:"exclude"`
}

func (s *querySpec) build() (query.Query, error) {
	switch {
	case s.Term != nil:
		return query.NewTerm(index.NewTerm(s.Term.Field, s.Term.Text)), nil
	case s.Phrase != nil:
		terms := make([]index.Term, len(s.Phrase.Terms))
		for i, text := range s.Phrase.Terms {
			terms[i] = index.NewTerm(s.Phrase.Field, text)
		}
		return query.NewPhrase(terms...), nil
	case s.Wildcard != nil:
		return query.NewWildcard(index.NewTerm(s.Wildcard.Field, s.Wildcard.Text)), nil
	case s.Fuzzy != nil:
		return query.NewFuzzy(index.NewTerm(s.Fuzzy.Field, s.Fuzzy.Text), s.Fuzzy.Distance), nil
	case s.Bool != nil:
		b := query.NewBool()
		for _, c := range s.Bool {
			occur, err := parseOccur(c.Occur)
			if err != nil {
				return nil, err
			}
			sub, err := c.Query.build()
			if err != nil {
				return nil, err
			}
			b.Add(sub, occur)
		}
		return b, nil
	case s.WildcardPhrase != nil:
		wp := query.NewWildcardPhrase()
		for i, pos := range s.WildcardPhrase.Positions {
			term := index.NewTerm(s.WildcardPhrase.Field, pos.Text)
			if pos.Wildcard {
				wp.Add(index.NewWildcard(term), i)
			} else {
				wp.Add(index.NewExact(term), i)
			}
		}
		return wp, nil
	case s.SpanNear != nil:
		clauses, err := buildSpans(s.SpanNear.Clauses)
		if err != nil {
			return nil, err
		}
		return query.NewSpanNear(clauses, s.SpanNear.Slop, s.SpanNear.InOrder), nil
	case s.SpanOr != nil:
		clauses, err := buildSpans(s.SpanOr)
		if err != nil {
			return nil, err
		}
		return query.NewSpanOr(clauses...), nil
	case s.SpanNot != nil:
		include, err := buildSpan(s.SpanNot.Include)
		if err != nil {
			return nil, err
		}
		exclude, err := buildSpan(s.SpanNot.Exclude)
		if err != nil {
			return nil, err
		}
		return query.NewSpanNot(include, exclude), nil
	case s.SpanTerm != nil:
		return query.NewSpanTerm(index.NewTerm(s.SpanTerm.Field, s.SpanTerm.Text)), nil
	case s.SpanWildcard != nil:
		return query.NewSpanWildcard(index.NewTerm(s.SpanWildcard.Field, s.SpanWildcard.Text)), nil
	default:
		return nil, errors.New("query node sets none of the known kinds")
	}
}

func buildSpan(s querySpec) (query.SpanQuery, error) {
	q, err := s.build()
	if err != nil {
		return nil, err
	}
	span, ok := q.(query.SpanQuery)
	if !ok {
		return nil, fmt.Errorf("%s is not a span query", q)
	}
	return span, nil
}

func buildSpans(specs []querySpec) ([]query.SpanQuery, error) {
	spans := make([]query.SpanQuery, len(specs))
	for i, s := range specs {
		span, err := buildSpan(s)
		if err != nil {
			return nil, err
		}
		spans[i] = span
	}
	return spans, nil
}

func parseOccur(s string) (query.Occur, error) {
	switch s {
	case "must":
		return query.Must, nil
	case "should":
		return query.Should, nil
	case "must_not":
		return query.MustNot, nil
	case "filter":
		return query.Filter, nil
	default:
		return 0, fmt.Errorf("unknown occur %q", s)
	}
}
