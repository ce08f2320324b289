package grammar

import (
	"slices"
	"testing"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()

	tests := []struct {
		word string
		want Category
		ok   bool
	}{
		{"I", Subject, true},
		{"THEY", Subject, true},
		{"ARE", Verb, true},
		{"LIKE", Verb, true},
		{"SCHOOL", Object, true},
		{"school", "", false},
		{"3_POSITIVE", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, ok := r.CategoryOf(tt.word)
			if got != tt.want || ok != tt.ok {
				t.Errorf("CategoryOf(%q) = %q, %v, want %q, %v", tt.word, got, ok, tt.want, tt.ok)
			}
		})
	}

	if DefaultRules() != r {
		t.Error("DefaultRules should return the shared table")
	}
}

func TestRules_Members(t *testing.T) {
	got := DefaultRules().Members(Object)
	want := []string{"FOOD", "FRIEND", "HOME", "SCHOOL", "WATER"}

	if !slices.Equal(got, want) {
		t.Errorf("Members(Object) = %v, want %v", got, want)
	}
}

func TestNewRules_CopiesTable(t *testing.T) {
	table := map[Category][]string{Subject: {"A"}}
	r := NewRules(table)
	table[Subject][0] = "B"

	if !r.InCategory("A", Subject) || r.InCategory("B", Subject) {
		t.Error("rules should not observe later table changes")
	}
}

func TestRules_ValidPair(t *testing.T) {
	r := DefaultRules()

	if !r.ValidPair("WE", "GO") {
		t.Error("WE GO should be valid")
	}
	if !r.ValidPair("GO", "HOME") {
		t.Error("GO HOME should be valid")
	}
	if r.ValidPair("HOME", "WE") {
		t.Error("HOME WE should be invalid")
	}
}
