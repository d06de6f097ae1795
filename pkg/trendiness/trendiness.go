// Package trendiness scores how trendy a place currently is, on a 0-1
// scale, using Gemini behind a TTL cache. Lookups are bounded by a short
// timeout and fall back to a neutral score, so a slow or unavailable model
// can never stall itinerary generation.
package trendiness

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sidequest-dev/sidequest/pkg/gemini"
	"google.golang.org/genai"
)

const (
	// Neutral is the fallback score when no assessment is available.
	Neutral = 0.5

	// DefaultTTL keeps assessments for a day; trendiness moves slowly
	// enough that anything fresher is wasted model spend.
	DefaultTTL = 24 * time.Hour

	// DefaultTimeout bounds a single assessment from the caller's side.
	DefaultTimeout = 5 * time.Second
)

// Cache stores trendiness scores by key. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key string) (float64, bool)
	Put(key string, score float64)
	Clear()
}

// Interpreter extracts structured data from a prompt. *gemini.Client
// satisfies it.
type Interpreter interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema, out any) error
}

// Key derives the cache key for a place. Name and location are normalized
// so trivially different spellings of the same place share an entry.
func Key(name, location string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(location))))
	return hex.EncodeToString(h.Sum(nil))
}

// Assessor scores places, caching results and collapsing concurrent
// requests for the same place into a single model call.
type Assessor struct {
	interpreter Interpreter
	cache       Cache
	logger      *slog.Logger
	inflight    map[string]*inflightCall
	timeout     time.Duration
	mu          sync.Mutex
}

type inflightCall struct {
	done  chan struct{}
	score float64
	ok    bool
}

// New creates an assessor. The cache is required; a nil interpreter makes
// every lookup return the neutral score.
func New(interpreter Interpreter, cache Cache, timeout time.Duration, logger *slog.Logger) *Assessor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{
		interpreter: interpreter,
		cache:       cache,
		timeout:     timeout,
		logger:      logger,
		inflight:    make(map[string]*inflightCall),
	}
}

// Score returns the trendiness of a place in [0,1]. It never fails: cache
// misses that cannot be resolved within the timeout score neutral, and only
// successful assessments are cached.
func (a *Assessor) Score(ctx context.Context, name, location string) float64 {
	if a.interpreter == nil {
		return Neutral
	}

	key := Key(name, location)
	if score, found := a.cache.Get(key); found {
		return score
	}

	a.mu.Lock()
	if call, running := a.inflight[key]; running {
		a.mu.Unlock()
		return a.await(ctx, call)
	}
	call := &inflightCall{done: make(chan struct{})}
	a.inflight[key] = call
	a.mu.Unlock()

	go a.assess(key, name, location, call)
	return a.await(ctx, call)
}

// await waits for an in-flight assessment, giving up at the caller timeout.
// The assessment keeps running so its result can still be cached for the
// next request.
func (a *Assessor) await(ctx context.Context, call *inflightCall) float64 {
	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case <-call.done:
		if call.ok {
			return call.score
		}
		return Neutral
	case <-timer.C:
		a.logger.Debug("trendiness assessment timed out, scoring neutral")
		return Neutral
	case <-ctx.Done():
		return Neutral
	}
}

func (a *Assessor) assess(key, name, location string, call *inflightCall) {
	defer func() {
		close(call.done)
		a.mu.Lock()
		delete(a.inflight, key)
		a.mu.Unlock()
	}()

	// Detached from the caller's context: an abandoned caller should not
	// cancel an assessment another caller may be waiting on.
	ctx, cancel := context.WithTimeout(context.Background(), 2*a.timeout)
	defer cancel()

	var resp gemini.TrendinessResponse
	prompt := gemini.TrendinessPrompt(name, location)
	if err := a.interpreter.Generate(ctx, prompt, gemini.TrendinessSchema(), &resp); err != nil {
		a.logger.Debug("trendiness assessment failed", "name", name, "error", err)
		return
	}

	score := clamp(resp.TrendinessScore)
	a.cache.Put(key, score)
	call.score = score
	call.ok = true
	a.logger.Debug("trendiness assessed", "name", name, "score", score)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
