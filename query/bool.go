package query

import (
	"fmt"
	"strings"
)

// Occur is the logical role of a Bool child clause.
type Occur int

const (
	Must Occur = iota
	Should
	MustNot
	Filter
)

func (o Occur) String() string {
	switch o {
	case Must:
		return "+"
	case Should:
		return ""
	case MustNot:
		return "-"
	case Filter:
		return "#"
	default:
		return fmt.Sprintf("Occur(%d)", int(o))
	}
}

type Clause struct {
	Occur Occur
	Query Query
}

// Bool combines child clauses: MUST and FILTER conjoin, SHOULD
// disjoins, MUST_NOT excludes. A Bool is built incrementally with Add
// and must not change once handed to evaluation.
type Bool struct {
	Clauses []Clause
}

func NewBool(clauses ...Clause) *Bool {
	return &Bool{Clauses: clauses}
}

// Add appends a child clause and returns the Bool for chaining.
func (q *Bool) Add(sub Query, occur Occur) *Bool {
	q.Clauses = append(q.Clauses, Clause{Occur: occur, Query: sub})
	return q
}

func (q *Bool) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, c := range q.Clauses {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(c.Occur.String())
		b.WriteString(c.Query.String())
	}
	b.WriteString(")")
	return b.String()
}
