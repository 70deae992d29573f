package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

//go:embed frontend
var frontendFS embed.FS

const (
	maxUploadSize   = 10 << 20 // 10 MiB
	maxBoardSide    = 8
	defaultRandSize = 4
)

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter allows n requests per interval per IP, with bursts of n.
func newRateLimiter(n int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(interval / time.Duration(n)),
		burst:    n,
	}
	// Cleanup stale entries every minute.
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// Server is the main HTTP server.
type Server struct {
	mux     *http.ServeMux
	handler http.Handler
	store   *Store
	dict    *Trie
	scanner BoardScanner
	sse     *Broadcaster
	logger  *slog.Logger
	workers int
	solveRL *rateLimiter
	scanRL  *rateLimiter
}

// NewServer creates a configured HTTP server. scanner may be nil, in which
// case board photos are refused.
func NewServer(store *Store, dict *Trie, scanner BoardScanner, logger *slog.Logger, workers int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mux:     http.NewServeMux(),
		store:   store,
		dict:    dict,
		scanner: scanner,
		sse:     NewBroadcaster(),
		logger:  logger,
		workers: workers,
		solveRL: newRateLimiter(10, time.Second), // 10 solves/sec per IP
		scanRL:  newRateLimiter(5, time.Minute),  // 5 scans/min per IP
	}
	s.routes()
	s.handler = otelhttp.NewHandler(requestLogger(logger, s.mux), "boggle")
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /solve", s.handleSolve)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// Board API
	s.mux.HandleFunc("POST /api/boards", s.handleCreateBoard)
	s.mux.HandleFunc("POST /api/boards/scan", s.handleScanBoard)
	s.mux.HandleFunc("GET /api/boards", s.handleListBoards)
	s.mux.HandleFunc("GET /api/boards/{id}", s.handleGetBoard)
	s.mux.HandleFunc("POST /api/boards/{id}/solve", s.handleSolveBoard)
	s.mux.HandleFunc("GET /api/boards/{id}/events", s.handleBoardEvents)

	// Frontend static files
	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	s.mux.Handle("GET /", http.FileServer(http.FS(frontendDir)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.handler.ServeHTTP(w, r)
}

// --- Solve handlers ---

// POST /solve: solve a board given inline, grouped by initial letter.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	if !s.solveRL.allow(clientIP(r)) {
		jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Board []string `json:"board"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	b, err := parseBoard(req.Board)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, stats, err := SolveIndex(r.Context(), b, s.dict, WithWorkers(s.workers))
	if err != nil {
		s.solveFailed(w, b, err)
		return
	}
	s.logger.Debug("board solved", "board", b.String(), "words", len(res), "nodes", stats.Nodes, "dur", stats.Duration)

	writeJSON(w, http.StatusOK, groupedTuples(res))
}

type statsJSON struct {
	Nodes      int   `json:"nodes"`
	DurationMs int64 `json:"duration_ms"`
}

type solveResponse struct {
	Board       *StoredBoard `json:"board"`
	Words       []WordEntry  `json:"words"`
	TotalPoints int          `json:"total_points"`
	Stats       statsJSON    `json:"stats"`
}

// POST /api/boards/{id}/solve: solve a registered board and stream the
// finds to its watchers.
func (s *Server) handleSolveBoard(w http.ResponseWriter, r *http.Request) {
	if !s.solveRL.allow(clientIP(r)) {
		jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	sb, err := s.store.GetBoard(r.PathValue("id"))
	if err != nil {
		jsonError(w, "board not found", http.StatusNotFound)
		return
	}

	onFind := func(word string, path Path) {
		s.sse.Publish(sb.ID, map[string]any{
			"type":   eventWordFound,
			"word":   word,
			"points": Points(word),
			"path":   path,
		})
	}
	res, stats, err := SolveIndex(r.Context(), sb.Board(), s.dict, WithWorkers(s.workers), WithOnFind(onFind))
	if err != nil {
		s.solveFailed(w, sb.Board(), err)
		return
	}

	total := res.TotalPoints()
	s.sse.Publish(sb.ID, map[string]any{
		"type":         eventSolveComplete,
		"words":        len(res),
		"total_points": total,
	})
	s.logger.Info("board solved", "id", sb.ID, "words", len(res), "nodes", stats.Nodes, "dur", stats.Duration)

	writeJSON(w, http.StatusOK, solveResponse{
		Board:       sb,
		Words:       res.Entries(),
		TotalPoints: total,
		Stats:       statsJSON{Nodes: stats.Nodes, DurationMs: stats.Duration.Milliseconds()},
	})
}

func (s *Server) solveFailed(w http.ResponseWriter, b *Board, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("solve aborted", "board", b.String(), "err", err)
		jsonError(w, "solve aborted", http.StatusServiceUnavailable)
		return
	}
	s.logger.Error("solve failed", "board", b.String(), "err", err)
	jsonError(w, "solve failed", http.StatusInternalServerError)
}

// --- Board handlers ---

// POST /api/boards: register a board from rows or a random draw.
func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows   []string `json:"rows"`
		Random bool     `json:"random"`
		Size   int      `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	var (
		b      *Board
		err    error
		source = SourceManual
	)
	if req.Random {
		size := req.Size
		if size == 0 {
			size = defaultRandSize
		}
		b, err = RandomBoard(size, nil)
		source = SourceRandom
	} else {
		b, err = parseBoard(req.Rows)
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, s.store.SaveBoard(b, source))
}

// POST /api/boards/scan: upload a photo, read it with Gemini, save the board.
func (s *Server) handleScanBoard(w http.ResponseWriter, r *http.Request) {
	if !s.scanRL.allow(clientIP(r)) {
		jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	if s.scanner == nil {
		jsonError(w, "board scanning not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, "image too large (max 10 MiB)", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, "field 'image' required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !allowedMIME[mimeType] {
		jsonError(w, "accepted formats: JPEG or PNG", http.StatusBadRequest)
		return
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "cannot read image", http.StatusInternalServerError)
		return
	}

	b, err := s.scanner.ScanBoard(r.Context(), imageData, mimeType)
	if err != nil {
		s.logger.Error("scan board", "err", err)
		jsonError(w, "could not read the board", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, s.store.SaveBoard(b, SourceScan))
}

// GET /api/boards: list all boards.
func (s *Server) handleListBoards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListBoards())
}

// GET /api/boards/{id}: get a single board.
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	sb, err := s.store.GetBoard(r.PathValue("id"))
	if err != nil {
		jsonError(w, "board not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sb)
}

// GET /api/boards/{id}/events: SSE stream of solve events.
func (s *Server) handleBoardEvents(w http.ResponseWriter, r *http.Request) {
	sb, err := s.store.GetBoard(r.PathValue("id"))
	if err != nil {
		jsonError(w, "board not found", http.StatusNotFound)
		return
	}

	s.sse.ServeSSE(w, r, sb.ID, func(c *client) {
		evt, _ := json.Marshal(map[string]any{
			"type": eventBoardState,
			"rows": sb.Rows,
		})
		c.ch <- string(evt)
	})
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"words":  s.dict.Len(),
		"boards": s.store.Len(),
	})
}

// --- Helpers ---

// parseBoard validates request rows. Letters are lowercased to match the
// dictionary.
func parseBoard(rows []string) (*Board, error) {
	if len(rows) > maxBoardSide {
		return nil, fmt.Errorf("%w: at most %d rows", ErrMalformedBoard, maxBoardSide)
	}
	lower := make([]string, len(rows))
	for i, row := range rows {
		row = strings.ToLower(strings.TrimSpace(row))
		if len([]rune(row)) > maxBoardSide {
			return nil, fmt.Errorf("%w: at most %d columns", ErrMalformedBoard, maxBoardSide)
		}
		lower[i] = row
	}
	return NewBoard(lower)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
