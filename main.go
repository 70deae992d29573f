package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "boggle:", err)
		os.Exit(1)
	}
}

// run parses flags and either solves one board on stdout or serves HTTP.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fl := flag.NewFlagSet("boggle", flag.ContinueOnError)
	fl.SetOutput(stderr)
	configPath := fl.String("config", "", "HCL config file")
	boardFlag := fl.String("board", "", "solve one board given as comma-separated rows and exit")
	wordsFlag := fl.String("words", "", "word list: path, s3://bucket/key or minio://bucket/key")
	workersFlag := fl.Int("workers", -1, "solve workers (0 or 1 = sequential)")
	if err := fl.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *wordsFlag != "" {
		cfg.WordList = *wordsFlag
	}
	if *workersFlag >= 0 {
		cfg.SolveWorkers = *workersFlag
	}

	logger := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	start := time.Now()
	words, err := LoadWordList(ctx, cfg.WordList, cfg.MinWordLength, *cfg.Storage)
	if err != nil {
		return err
	}
	dict := BuildTrie(words)
	logger.Info("word list loaded", "source", cfg.WordList, "words", dict.Len(), "dur", time.Since(start).Round(time.Millisecond))

	if *boardFlag != "" {
		return solveOnce(ctx, stdout, *boardFlag, dict, cfg.SolveWorkers)
	}
	return serve(ctx, cfg, dict, logger)
}

// solveOnce prints the words of one board grouped by initial letter.
func solveOnce(ctx context.Context, w io.Writer, rows string, dict *Trie, workers int) error {
	b, err := parseBoard(strings.Split(rows, ","))
	if err != nil {
		return err
	}

	res, _, err := SolveIndex(ctx, b, dict, WithWorkers(workers))
	if err != nil {
		return err
	}

	groups := res.GroupByInitial()
	initials := make([]string, 0, len(groups))
	for k := range groups {
		initials = append(initials, k)
	}
	slices.Sort(initials)

	for _, k := range initials {
		fmt.Fprintf(w, "%s:", strings.ToUpper(k))
		for _, e := range groups[k] {
			fmt.Fprintf(w, " %s(%d)", e.Word, e.Points)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d words, %d points\n", len(res), res.TotalPoints())
	return nil
}

func serve(ctx context.Context, cfg Config, dict *Trie, logger *slog.Logger) error {
	var scanner BoardScanner
	if cfg.GCPProjectID != "" {
		gemini, err := NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPRegion, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("init gemini: %w", err)
		}
		scanner = gemini
		logger.Info("gemini client ready", "project", cfg.GCPProjectID)
	} else {
		logger.Info("GCP_PROJECT_ID not set, board scanning disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewServer(NewStore(), dict, scanner, logger, cfg.SolveWorkers),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", "http://localhost:"+cfg.Port, "workers", cfg.SolveWorkers)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
