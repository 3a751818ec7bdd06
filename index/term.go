// Package index defines the index-snapshot capability consumed by term
// resolution, the Term value type, and the TermsProducer family that
// supplies candidate terms for wildcard-phrase positions.
package index

// Term identifies a single indexed token as a (field, text) pair.
// Terms are immutable values equal by field and text, so they can key
// maps directly.
type Term struct {
	Field string
	Text  string
}

func NewTerm(field, text string) Term {
	return Term{Field: field, Text: text}
}

func (t Term) String() string {
	return t.Field + ":" + t.Text
}
