package main

// Trie is a prefix tree over a word list. It is built once with Insert and
// is safe for concurrent readers afterwards as long as nobody inserts.
type Trie struct {
	root *trieNode
	size int
}

type trieNode struct {
	children map[rune]*trieNode
	word     bool
}

// NewTrie returns an empty index.
func NewTrie() *Trie {
	return &Trie{root: &trieNode{}}
}

// BuildTrie indexes every word in words.
func BuildTrie(words []string) *Trie {
	t := NewTrie()
	for _, w := range words {
		t.Insert(w)
	}
	return t
}

// Insert adds word to the index. Inserting the empty string or a word
// already present is a no-op.
func (t *Trie) Insert(word string) {
	if word == "" {
		return
	}
	n := t.root
	for _, r := range word {
		next := n.children[r]
		if next == nil {
			if n.children == nil {
				n.children = make(map[rune]*trieNode)
			}
			next = &trieNode{}
			n.children[r] = next
		}
		n = next
	}
	if !n.word {
		n.word = true
		t.size++
	}
}

// HasPrefix reports whether some word in the index starts with s,
// s itself included.
func (t *Trie) HasPrefix(s string) bool {
	if s == "" {
		return t.size > 0
	}
	return t.walk(s) != nil
}

// Contains reports whether s was inserted as a word.
func (t *Trie) Contains(s string) bool {
	n := t.walk(s)
	return n != nil && n.word
}

// Len returns the number of distinct words in the index.
func (t *Trie) Len() int { return t.size }

func (t *Trie) walk(s string) *trieNode {
	n := t.root
	for _, r := range s {
		if n = n.child(r); n == nil {
			return nil
		}
	}
	return n
}

// child returns the node reached from n over r, or nil.
func (n *trieNode) child(r rune) *trieNode {
	return n.children[r]
}
