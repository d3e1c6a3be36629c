package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/kijani/sentinel/internal/analyst"
	"github.com/kijani/sentinel/internal/config"
	"github.com/kijani/sentinel/internal/server"
)

// fixedGenerator answers every prompt with the same verdict after a delay
// that stands in for the AI round trip.
type fixedGenerator struct {
	text  string
	delay time.Duration
}

func (g fixedGenerator) Generate(ctx context.Context, _ string) (string, error) {
	select {
	case <-time.After(g.delay):
		return g.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func main() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()

	modes := []struct {
		name string
		gen  analyst.Generator
	}{
		{"AI verdict (5ms)", fixedGenerator{
			text:  `{"score": 20, "message": "Files are being encrypted.", "action": "FIX_IT_NOW"}`,
			delay: 5 * time.Millisecond,
		}},
		{"fallback (no key)", nil},
	}

	concurrency := []int{1, 8, 32, 128}
	const requests = 2000

	fmt.Println("=== ANALYSE-THREAT HANDLER BENCHMARK ===")
	fmt.Println()

	for _, mode := range modes {
		h := server.NewHandlerChain(cfg, analyst.New(mode.gen, logger), server.NewWebhookNotifier(nil, logger), logger)

		fmt.Printf("--- %s | %d requests ---\n", mode.name, requests)
		for _, c := range concurrency {
			elapsed, failures := run(h, requests, c)
			avgMs := float64(elapsed.Microseconds()) / float64(requests) * float64(c) / 1000.0
			rate := float64(requests) / elapsed.Seconds()
			fmt.Printf("  c=%-4d %8.0f req/sec  %7.2f ms avg  %d non-200\n", c, rate, avgMs, failures)
		}
		fmt.Println()
	}
}

func run(h http.Handler, requests, workers int) (time.Duration, int) {
	jobs := make(chan struct{}, requests)
	for range requests {
		jobs <- struct{}{}
	}
	close(jobs)

	var (
		mu       sync.Mutex
		failures int
		wg       sync.WaitGroup
	)
	start := time.Now()
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				req := httptest.NewRequest(http.MethodPost, "/api/analyse-threat",
					strings.NewReader(`{"device": "Office PC 1", "log_trigger": "mass_encryption"}`))
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				if w.Code != http.StatusOK {
					mu.Lock()
					failures++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return time.Since(start), failures
}
