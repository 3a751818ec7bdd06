package automaton

import (
	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// Fuzzy matches vocabulary terms within a Levenshtein edit-distance
// bound of a target text.
type Fuzzy struct {
	text     string
	distance int
}

func NewFuzzy(text string, distance int) *Fuzzy {
	if distance < 0 {
		distance = 0
	}
	return &Fuzzy{text: norm.NFC.String(text), distance: distance}
}

func (f *Fuzzy) Matches(term []byte) bool {
	return levenshtein.ComputeDistance(f.text, string(term)) <= f.distance
}
