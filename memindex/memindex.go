// Package memindex is an in-memory positional inverted index
// implementing the index.Reader capability, with a full evaluator for
// the query grammar. It backs the verification of the limiting-filter
// soundness properties against real match sets and is not meant as a
// production storage engine.
package memindex

import (
	"errors"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/segmentio/ksuid"
	"github.com/winnowdb/winnow/automaton"
	"github.com/winnowdb/winnow/index"
	"golang.org/x/text/unicode/norm"
)

type postings struct {
	docs      *roaring.Bitmap
	positions map[uint32][]int
}

func (p *postings) clone() *postings {
	out := &postings{
		docs:      p.docs.Clone(),
		positions: make(map[uint32][]int, len(p.positions)),
	}
	for doc, pos := range p.positions {
		out.positions[doc] = slices.Clone(pos)
	}
	return out
}

// Builder accumulates documents. Builders are not safe for concurrent
// use; freeze a Snapshot to search.
type Builder struct {
	ndocs  uint32
	fields map[string]map[string]*postings
}

func NewBuilder() *Builder {
	return &Builder{fields: make(map[string]map[string]*postings)}
}

// Index adds one document as per-field token sequences and returns
// its id. Token position is the slice offset. Tokens are
// NFC-normalized so patterns and vocabulary agree on representation.
func (b *Builder) Index(doc map[string][]string) uint32 {
	id := b.ndocs
	b.ndocs++
	for field, tokens := range doc {
		terms := b.fields[field]
		if terms == nil {
			terms = make(map[string]*postings)
			b.fields[field] = terms
		}
		for pos, tok := range tokens {
			tok = norm.NFC.String(tok)
			p := terms[tok]
			if p == nil {
				p = &postings{docs: roaring.New(), positions: make(map[uint32][]int)}
				terms[tok] = p
			}
			p.docs.Add(id)
			p.positions[id] = append(p.positions[id], pos)
		}
	}
	return id
}

// Snapshot freezes the builder's current contents. The snapshot is
// immutable and safe for any number of concurrent readers; the builder
// may keep indexing afterwards without affecting it.
func (b *Builder) Snapshot() *Snapshot {
	fields := make(map[string]map[string]*postings, len(b.fields))
	for field, terms := range b.fields {
		out := make(map[string]*postings, len(terms))
		for text, p := range terms {
			out[text] = p.clone()
		}
		fields[field] = out
	}
	wildcards, err := automaton.NewCompiler(64)
	if err != nil {
		// NewCompiler fails only on a non-positive size.
		panic(err)
	}
	return &Snapshot{
		id:        ksuid.New(),
		ndocs:     b.ndocs,
		fields:    fields,
		wildcards: wildcards,
	}
}

// Snapshot is a frozen, read-only view of an index.
type Snapshot struct {
	id        ksuid.KSUID
	ndocs     uint32
	fields    map[string]map[string]*postings
	wildcards *automaton.Compiler
}

func (s *Snapshot) ID() ksuid.KSUID { return s.id }

func (s *Snapshot) NumDocs() uint32 { return s.ndocs }

// Terms implements index.Reader.
func (s *Snapshot) Terms(field string) (index.TermDict, error) {
	terms := s.fields[field]
	if len(terms) == 0 {
		return nil, nil
	}
	return &termDict{terms: terms}, nil
}

func (s *Snapshot) lookup(t index.Term) *postings {
	return s.fields[t.Field][t.Text]
}

type termDict struct {
	terms  map[string]*postings
	closed bool
}

var errClosed = errors.New("memindex: term dictionary closed")

func (d *termDict) Matching(m automaton.Matcher, visit func(term []byte) error) error {
	if d.closed {
		return errClosed
	}
	for text := range d.terms {
		if m.Matches([]byte(text)) {
			if err := visit([]byte(text)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *termDict) Close() error {
	d.closed = true
	return nil
}
