package main

import (
	"context"
	"slices"
	"time"

	"github.com/bits-and-blooms/bitset"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/bodul/boggle")

// Result maps every word found on a board to the first path that spelled it.
type Result map[string]Path

// Stats captures the cost of a solve.
type Stats struct {
	Nodes    int
	Duration time.Duration
}

// FindFunc is called once per word, the first time it is found.
type FindFunc func(word string, path Path)

type solveOptions struct {
	workers int
	onFind  FindFunc
}

// SolveOption configures SolveIndex.
type SolveOption func(*solveOptions)

// WithWorkers spreads starting cells over n goroutines. Values below 2
// keep the solve on the calling goroutine.
func WithWorkers(n int) SolveOption {
	return func(o *solveOptions) { o.workers = n }
}

// WithOnFind registers fn to observe words as they are recorded.
func WithOnFind(fn FindFunc) SolveOption {
	return func(o *solveOptions) { o.onFind = fn }
}

// Solve finds every word of words that can be traced on the board given
// as rows.
func Solve(rows []string, words []string) (Result, error) {
	b, err := NewBoard(rows)
	if err != nil {
		return nil, err
	}
	res, _, err := SolveIndex(context.Background(), b, BuildTrie(words))
	return res, err
}

// SolveIndex runs the search from every cell of b in row-major order.
// The context is only consulted between starting cells; a cancelled solve
// returns the context error and no result.
func SolveIndex(ctx context.Context, b *Board, dict *Trie, opts ...SolveOption) (Result, Stats, error) {
	var o solveOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := tracer.Start(ctx, "boggle.Solve")
	defer span.End()
	span.SetAttributes(
		attribute.Int("board.rows", b.Rows()),
		attribute.Int("board.cols", b.Cols()),
		attribute.Int("dict.words", dict.Len()),
	)

	start := time.Now()
	var (
		res   Result
		nodes int
		err   error
	)
	if o.workers > 1 && b.Size() > 1 {
		res, nodes, err = solveParallel(ctx, b, dict, o)
	} else {
		res, nodes, err = solveSequential(ctx, b, dict, o)
	}
	if err != nil {
		span.RecordError(err)
		return nil, Stats{}, err
	}

	span.SetAttributes(attribute.Int("result.words", len(res)), attribute.Int("result.nodes", nodes))
	return res, Stats{Nodes: nodes, Duration: time.Since(start)}, nil
}

func solveSequential(ctx context.Context, b *Board, dict *Trie, o solveOptions) (Result, int, error) {
	s := newSearcher(b, dict)
	s.onFind = o.onFind
	for i := range b.Size() {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		s.search(coordOf(b, i))
	}
	return s.found, s.nodes, nil
}

// cellResult is what one starting cell contributed, in discovery order.
type cellResult struct {
	found Result
	order []string
}

// solveParallel searches starting cells on separate workers and merges the
// per-cell results in row-major order, so the chosen path per word matches
// the sequential solve.
func solveParallel(ctx context.Context, b *Board, dict *Trie, o solveOptions) (Result, int, error) {
	workers := min(o.workers, b.Size())
	cells := make([]cellResult, b.Size())
	nodes := make([]int, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			s := newSearcher(b, dict)
			for i := w; i < b.Size(); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				s.found, s.order = make(Result), nil
				s.search(coordOf(b, i))
				cells[i] = cellResult{found: s.found, order: s.order}
			}
			nodes[w] = s.nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	// errgroup only reports worker errors; a parent cancelled after the
	// last check still counts.
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	res := make(Result)
	for _, c := range cells {
		for _, word := range c.order {
			if _, ok := res[word]; ok {
				continue
			}
			res[word] = c.found[word]
			if o.onFind != nil {
				o.onFind(word, res[word])
			}
		}
	}
	total := 0
	for _, n := range nodes {
		total += n
	}
	return res, total, nil
}

func coordOf(b *Board, i int) Coord {
	return Coord{Row: i / b.Cols(), Col: i % b.Cols()}
}

// searcher owns the traversal state of one goroutine: the letters and cells
// of the current candidate and the set of cells it occupies.
type searcher struct {
	board   *Board
	dict    *Trie
	visited *bitset.BitSet
	path    Path
	word    []rune
	found   Result
	order   []string
	nodes   int
	onFind  FindFunc
}

func newSearcher(b *Board, dict *Trie) *searcher {
	return &searcher{
		board:   b,
		dict:    dict,
		visited: bitset.New(uint(b.Size())),
		path:    make(Path, 0, b.Size()),
		word:    make([]rune, 0, b.Size()),
		found:   make(Result),
	}
}

func (s *searcher) search(start Coord) {
	s.seek(s.dict.root, start)
}

// seek extends the candidate with the letter at c. node is the trie node
// for the candidate before the extension.
func (s *searcher) seek(node *trieNode, c Coord) {
	s.nodes++
	letter := s.board.At(c)
	node = node.child(letter)
	if node == nil {
		return
	}

	idx := s.board.index(c)
	s.visited.Set(idx)
	s.path = append(s.path, c)
	s.word = append(s.word, letter)
	defer func() {
		s.visited.Clear(idx)
		s.path = s.path[:len(s.path)-1]
		s.word = s.word[:len(s.word)-1]
	}()

	if node.word {
		s.record()
	}

	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			next := Coord{Row: c.Row + dr, Col: c.Col + dc}
			if !s.board.contains(next) || s.visited.Test(s.board.index(next)) {
				continue
			}
			s.seek(node, next)
		}
	}
}

func (s *searcher) record() {
	word := string(s.word)
	if _, ok := s.found[word]; ok {
		return
	}
	path := slices.Clone(s.path)
	s.found[word] = path
	s.order = append(s.order, word)
	if s.onFind != nil {
		s.onFind(word, path)
	}
}
