package main

import (
	"cmp"
	"encoding/json"
	"slices"
	"unicode/utf8"
)

// WordEntry is a found word with its point value and path.
type WordEntry struct {
	Word   string `json:"word"`
	Points int    `json:"points"`
	Path   Path   `json:"path"`
}

// Points scores a word by its length in letters.
func Points(word string) int {
	return utf8.RuneCountInString(word)
}

// Words returns the found words in lexical order.
func (r Result) Words() []string {
	words := make([]string, 0, len(r))
	for w := range r {
		words = append(words, w)
	}
	slices.Sort(words)
	return words
}

// Entries lists the result, highest scoring words first, ties by word.
func (r Result) Entries() []WordEntry {
	entries := make([]WordEntry, 0, len(r))
	for w, p := range r {
		entries = append(entries, WordEntry{Word: w, Points: Points(w), Path: p})
	}
	slices.SortFunc(entries, func(a, b WordEntry) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})
	return entries
}

// TotalPoints sums the points of every found word.
func (r Result) TotalPoints() int {
	total := 0
	for w := range r {
		total += Points(w)
	}
	return total
}

// GroupByInitial buckets entries by their first letter. Each bucket is in
// lexical order.
func (r Result) GroupByInitial() map[string][]WordEntry {
	groups := make(map[string][]WordEntry)
	for _, w := range r.Words() {
		initial, _ := utf8.DecodeRuneInString(w)
		key := string(initial)
		groups[key] = append(groups[key], WordEntry{Word: w, Points: Points(w), Path: r[w]})
	}
	return groups
}

// tupleEntry encodes a WordEntry as [word, points, path].
type tupleEntry WordEntry

func (e tupleEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{e.Word, e.Points, e.Path})
}

// groupedTuples is the response shape of POST /solve:
// {"a": [["abc", 3, [[0,0],[0,1],[0,2]]], ...], ...}.
func groupedTuples(r Result) map[string][]tupleEntry {
	out := make(map[string][]tupleEntry)
	for k, entries := range r.GroupByInitial() {
		ts := make([]tupleEntry, len(entries))
		for i, e := range entries {
			ts[i] = tupleEntry(e)
		}
		out[k] = ts
	}
	return out
}
