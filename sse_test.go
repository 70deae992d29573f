package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestBroadcasterRegisterUnregister(t *testing.T) {
	b := NewBroadcaster()

	c1 := b.Register("board1")
	c2 := b.Register("board1")
	c3 := b.Register("board2")

	if b.ClientCount("board1") != 2 {
		t.Fatalf("expected 2 clients for board1, got %d", b.ClientCount("board1"))
	}
	if b.ClientCount("board2") != 1 {
		t.Fatalf("expected 1 client for board2, got %d", b.ClientCount("board2"))
	}

	b.Unregister(c1)
	if b.ClientCount("board1") != 1 {
		t.Fatalf("expected 1 client for board1 after unregister, got %d", b.ClientCount("board1"))
	}

	b.Unregister(c2)
	b.Unregister(c3)
	if b.ClientCount("board1") != 0 || b.ClientCount("board2") != 0 {
		t.Fatal("expected 0 clients after full unregister")
	}
}

func TestBroadcasterDoubleUnregister(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("board1")
	b.Unregister(c)
	b.Unregister(c) // should not panic
}

func TestPublish(t *testing.T) {
	b := NewBroadcaster()

	c1 := b.Register("board1")
	c2 := b.Register("board2")
	defer b.Unregister(c1)
	defer b.Unregister(c2)

	b.Publish("board1", map[string]any{"type": eventWordFound, "word": "cat"})

	select {
	case msg := <-c1.ch:
		if msg != `{"type":"word_found","word":"cat"}` {
			t.Fatalf("unexpected message %q", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c1 did not receive message")
	}

	// c2 watches another board, should not receive.
	select {
	case <-c2.ch:
		t.Fatal("c2 should not receive board1 message")
	case <-time.After(50 * time.Millisecond):
		// ok
	}
}

func TestBroadcastSkipsFullChannel(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("board1")

	// Fill the channel.
	for range sseChannelBuffer {
		b.Broadcast("board1", "fill")
	}

	// This should not block.
	b.Broadcast("board1", "overflow")

	b.Unregister(c)
}

// flushRecorder signals every flush so tests can wait for streamed events.
type flushRecorder struct {
	*httptest.ResponseRecorder
	flushed chan struct{}
}

func (f *flushRecorder) Flush() {
	select {
	case f.flushed <- struct{}{}:
	default:
	}
}

func TestServeSSE(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/boards/board1/events", nil).WithContext(ctx)
	w := &flushRecorder{ResponseRecorder: httptest.NewRecorder(), flushed: make(chan struct{}, 1)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.ServeSSE(w, req, "board1", func(c *client) { c.ch <- "hello" })
	}()

	select {
	case <-w.flushed:
	case <-time.After(time.Second):
		t.Fatal("no event flushed")
	}
	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "data: hello\n\n") {
		t.Fatalf("expected initial event, got %q", w.Body.String())
	}
	if b.ClientCount("board1") != 0 {
		t.Fatal("client should be unregistered after disconnect")
	}
}

func TestBroadcasterConcurrent(t *testing.T) {
	b := NewBroadcaster()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			boardID := "board1"
			if i%2 == 0 {
				boardID = "board2"
			}
			c := b.Register(boardID)
			b.Broadcast(boardID, "msg")
			b.ClientCount(boardID)
			b.Unregister(c)
		}(i)
	}
	wg.Wait()

	if b.ClientCount("board1") != 0 || b.ClientCount("board2") != 0 {
		t.Fatal("expected 0 clients after concurrent test")
	}
}
