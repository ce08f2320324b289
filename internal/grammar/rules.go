package grammar

import (
	"slices"
	"sync"
)

// Category is a part-of-speech-like role.
type Category string

const (
	Subject Category = "SUBJECT"
	Verb    Category = "VERB"
	Object  Category = "OBJECT"
)

// categoryOrder fixes lookup order when a word belongs to several categories.
var categoryOrder = []Category{Subject, Verb, Object}

// Rules maps each category to its member tokens. A Rules value is never
// modified after construction and may be shared freely.
type Rules struct {
	members map[Category]map[string]struct{}
}

// NewRules builds a Rules value from table. The table is copied.
func NewRules(table map[Category][]string) *Rules {
	r := &Rules{members: make(map[Category]map[string]struct{}, len(table))}
	for c, words := range table {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		r.members[c] = set
	}
	return r
}

var defaultRules = sync.OnceValue(func() *Rules {
	return NewRules(map[Category][]string{
		Subject: {"I", "YOU", "HE", "SHE", "WE", "THEY"},
		Verb:    {"AM", "IS", "ARE", "GO", "WANT", "LIKE"},
		Object:  {"FOOD", "WATER", "HOME", "SCHOOL", "FRIEND"},
	})
})

// DefaultRules returns the shared built-in rule table.
func DefaultRules() *Rules {
	return defaultRules()
}

// InCategory reports whether word is a member of c. Matching is exact and
// case-sensitive.
func (r *Rules) InCategory(word string, c Category) bool {
	_, ok := r.members[c][word]
	return ok
}

// CategoryOf returns the first category containing word.
func (r *Rules) CategoryOf(word string) (Category, bool) {
	for _, c := range categoryOrder {
		if r.InCategory(word, c) {
			return c, true
		}
	}
	return "", false
}

// Members returns the sorted members of c.
func (r *Rules) Members(c Category) []string {
	out := make([]string, 0, len(r.members[c]))
	for w := range r.members[c] {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// ValidPair reports whether first followed by second is a SUBJECT->VERB or
// VERB->OBJECT transition.
func (r *Rules) ValidPair(first, second string) bool {
	return (r.InCategory(first, Subject) && r.InCategory(second, Verb)) ||
		(r.InCategory(first, Verb) && r.InCategory(second, Object))
}
