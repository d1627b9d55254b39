package mozzart

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

// session owns one headless Chrome tab kept on the mozzart site. The offer
// API rejects plain HTTP clients, so every request is issued from inside the
// warmed page with fetch.
type session struct {
	warmupURL string
	userAgent string
	timeout   time.Duration

	mu      sync.Mutex
	tab     context.Context
	cancels []context.CancelFunc
	dataDir string

	requests atomic.Int64
	errors   atomic.Int64
}

func newSession(warmupURL, userAgent string, timeout time.Duration) *session {
	return &session{warmupURL: warmupURL, userAgent: userAgent, timeout: timeout}
}

// ensure starts the browser on first use. Callers hold s.mu.
func (s *session) ensure() error {
	if s.tab != nil {
		return nil
	}

	dir, err := os.MkdirTemp("", "mozzart_chrome_")
	if err != nil {
		return fmt.Errorf("create chrome temp dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserDataDir(dir),
		chromedp.UserAgent(s.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		if os.Getenv("MOZZART_DEBUG") == "1" {
			slog.Debug("chromedp", "message", fmt.Sprintf(format, v...))
		}
	}))

	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		os.RemoveAll(dir)
		return fmt.Errorf("launch chrome: %w", err)
	}

	// Visiting the betting page first lets the site set its cookies.
	// Navigation hiccups are tolerated; the fetch calls will tell.
	warmCtx, cancel := context.WithTimeout(tab, 45*time.Second)
	defer cancel()
	if err := chromedp.Run(warmCtx,
		chromedp.Navigate(s.warmupURL),
		chromedp.Sleep(3*time.Second),
	); err != nil {
		slog.Warn("mozzart: warmup navigation failed", "error", err)
	}

	s.tab = tab
	s.cancels = []context.CancelFunc{cancelTab, cancelAlloc}
	s.dataDir = dir
	slog.Info("mozzart: browser session started")
	return nil
}

// resetLocked tears the browser down so the next call starts a fresh one.
// Callers hold s.mu.
func (s *session) resetLocked() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.tab = nil
	if s.dataDir != "" {
		os.RemoveAll(s.dataDir)
		s.dataDir = ""
	}
}

// Close shuts the browser down and clears its profile directory.
func (s *session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *session) takeCounters() (requests, errors int64) {
	return s.requests.Swap(0), s.errors.Swap(0)
}

// uniqueID builds the request id the site expects: millis timestamp plus
// eight random hex characters.
func uniqueID() string {
	buf := make([]byte, 4)
	rand.Read(buf)
	return fmt.Sprintf("%d-%x", time.Now().UnixMilli(), buf)
}

const fetchScript = `(async () => {
	try {
		const response = await fetch(%q, {
			method: 'POST',
			headers: {
				'Accept': 'application/json, text/plain, */*',
				'Content-Type': 'application/json',
				'medium': 'PREMATCH_WEB',
				'x-unique-id': %q
			},
			body: JSON.stringify(%s)
		});
		if (!response.ok) {
			return {ok: false, status: response.status};
		}
		return {ok: true, body: await response.json()};
	} catch (e) {
		return {ok: false, error: e.message};
	}
})()`

type fetchResult struct {
	OK     bool            `json:"ok"`
	Status int             `json:"status"`
	Error  string          `json:"error"`
	Body   json.RawMessage `json:"body"`
}

// awaitPromise makes Evaluate resolve the fetch promise before returning.
func awaitPromise(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// postJSON issues one POST from inside the page and decodes the JSON reply
// into out. Calls are serialized on the single tab.
func (s *session) postJSON(ctx context.Context, rawURL string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensure(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.requests.Add(1)
	expr := fmt.Sprintf(fetchScript, rawURL, uniqueID(), body)
	runCtx, cancel := context.WithTimeout(s.tab, s.timeout)
	defer cancel()

	var res fetchResult
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, &res, awaitPromise)); err != nil {
		s.errors.Add(1)
		// A failed evaluate usually means the tab or browser died. Tear
		// down now; the next call starts a fresh session.
		s.resetLocked()
		return fmt.Errorf("page fetch: %w", err)
	}
	if !res.OK {
		s.errors.Add(1)
		if res.Error != "" {
			return fmt.Errorf("page fetch: %s", res.Error)
		}
		return fmt.Errorf("unexpected status %d", res.Status)
	}
	if out == nil || len(res.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		s.errors.Add(1)
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
