package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// ErrBoardNotFound is returned when no board is registered under an ID.
var ErrBoardNotFound = errors.New("board not found")

// Board sources.
const (
	SourceManual = "manual"
	SourceRandom = "random"
	SourceScan   = "scan"
)

// StoredBoard is a registered board and where it came from.
type StoredBoard struct {
	ID        string    `json:"id"`
	Rows      []string  `json:"rows"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`

	board *Board
}

// Board returns the immutable board behind the record.
func (sb *StoredBoard) Board() *Board { return sb.board }

// Store holds registered boards in memory. Solve results are not kept.
type Store struct {
	mu     sync.RWMutex
	boards map[string]*StoredBoard
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		boards: make(map[string]*StoredBoard),
	}
}

// SaveBoard registers b and returns its record with a generated ID.
func (s *Store) SaveBoard(b *Board, source string) *StoredBoard {
	sb := &StoredBoard{
		ID:        generateID(),
		Rows:      b.Lines(),
		Source:    source,
		CreatedAt: time.Now(),
		board:     b,
	}

	s.mu.Lock()
	s.boards[sb.ID] = sb
	s.mu.Unlock()

	return sb
}

// GetBoard returns a board by ID.
func (s *Store) GetBoard(id string) (*StoredBoard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sb, ok := s.boards[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	return sb, nil
}

// ListBoards returns all boards, most recent first.
func (s *Store) ListBoards() []*StoredBoard {
	s.mu.RLock()
	list := make([]*StoredBoard, 0, len(s.boards))
	for _, sb := range s.boards {
		list = append(list, sb)
	}
	s.mu.RUnlock()

	slices.SortStableFunc(list, func(a, b *StoredBoard) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return list
}

// Len returns the number of registered boards.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boards)
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
