// Package httpcache provides a TTL cache for outbound API responses, backed
// by an in-memory otter cache with a periodic gob snapshot on disk so place
// and event lookups survive restarts.
package httpcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const snapshotFile = "response-cache.gob"

// Entry is a single cached response body.
type Entry struct {
	ExpiresAt time.Time `json:"expires_at"`
	ETag      string    `json:"etag,omitempty"`
	Data      []byte    `json:"data"`
}

// Cache stores response bodies keyed by request URL (and body, for POSTs).
type Cache struct {
	cache      otter.Cache[string, Entry]
	logger     *slog.Logger
	saveCancel context.CancelFunc
	dir        string
	saveWg     sync.WaitGroup
	ttl        time.Duration
	saveMu     sync.Mutex
}

// New creates a response cache persisting snapshots under dir. A previous
// snapshot is loaded if present; expired entries are dropped on load.
func New(ctx context.Context, dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	store := otter.Must(&otter.Options[string, Entry]{
		MaximumSize:      50_000,
		InitialCapacity:  1_000,
		ExpiryCalculator: otter.ExpiryWriting[string, Entry](ttl),
	})

	c := &Cache{
		cache:  *store,
		dir:    dir,
		ttl:    ttl,
		logger: logger,
	}

	if err := c.loadSnapshot(); err != nil {
		logger.Warn("failed to load cache snapshot", "error", err)
	}
	logger.Info("response cache ready", "dir", dir, "entries", c.cache.EstimatedSize())

	c.startPeriodicSave(ctx)
	return c, nil
}

// key hashes the URL plus any request body so distinct POST payloads to the
// same endpoint cache independently.
func key(url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the cached body for a request, if present and unexpired.
func (c *Cache) Lookup(url string, body []byte) (Entry, bool) {
	entry, found := c.cache.GetIfPresent(key(url, body))
	if !found {
		return Entry{}, false
	}
	// otter handles expiry, but entries restored from a snapshot carry
	// their original deadline which may predate the restore.
	if time.Now().After(entry.ExpiresAt) {
		c.cache.Invalidate(key(url, body))
		return Entry{}, false
	}
	return entry, true
}

// Store records a response body for a request.
func (c *Cache) Store(url string, body, data []byte, etag string) {
	entry := Entry{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
		ETag:      etag,
	}
	c.cache.Set(key(url, body), entry)
	c.logger.Debug("cached response", "url", url, "size", len(data), "expires_at", entry.ExpiresAt)
}

// Size reports the estimated number of live entries.
func (c *Cache) Size() int {
	return int(c.cache.EstimatedSize())
}

func (c *Cache) loadSnapshot() error {
	path := filepath.Join(c.dir, snapshotFile)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			c.logger.Debug("failed to close snapshot file", "error", closeErr)
		}
	}()

	var entries map[string]Entry
	if err := gob.NewDecoder(file).Decode(&entries); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	now := time.Now()
	live := 0
	for k, entry := range entries {
		if now.Before(entry.ExpiresAt) {
			c.cache.Set(k, entry)
			live++
		}
	}
	c.logger.Info("loaded cache snapshot", "path", path, "live", live, "expired", len(entries)-live)
	return nil
}

func (c *Cache) saveSnapshot() error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	path := filepath.Join(c.dir, snapshotFile)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
			c.logger.Debug("failed to remove temp snapshot", "error", removeErr)
		}
	}()

	entries := make(map[string]Entry)
	now := time.Now()
	c.cache.All()(func(k string, entry Entry) bool {
		if now.Before(entry.ExpiresAt) {
			entries[k] = entry
		}
		return true
	})

	if err := gob.NewEncoder(file).Encode(entries); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	c.logger.Debug("cache snapshot written", "entries", len(entries), "path", path)
	return nil
}

func (c *Cache) startPeriodicSave(ctx context.Context) {
	saveCtx, cancel := context.WithCancel(ctx)
	c.saveCancel = cancel

	c.saveWg.Add(1)
	go func() {
		defer c.saveWg.Done()

		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-saveCtx.Done():
				return
			case <-ticker.C:
				if err := c.saveSnapshot(); err != nil {
					c.logger.Error("periodic snapshot failed", "error", err)
				}
			}
		}
	}()
}

// Close stops the periodic saver and writes a final snapshot.
func (c *Cache) Close() error {
	if c.saveCancel != nil {
		c.saveCancel()
	}
	c.saveWg.Wait()

	if err := c.saveSnapshot(); err != nil {
		c.logger.Error("final snapshot failed", "error", err)
		return err
	}
	return nil
}

// HTTPClient is the transport a Client wraps.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps an HTTP client with transparent response caching for GET and
// POST requests. Other methods pass through untouched.
type Client struct {
	cache      *Cache
	httpClient HTTPClient
	logger     *slog.Logger
}

// NewClient wraps httpClient with the cache. A nil cache disables caching.
func NewClient(cache *Cache, httpClient HTTPClient, logger *slog.Logger) *Client {
	return &Client{cache: cache, httpClient: httpClient, logger: logger}
}

// Do performs the request, serving from cache when possible and storing
// successful responses for later requests.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.cache == nil || (req.Method != http.MethodGet && req.Method != http.MethodPost) {
		return c.httpClient.Do(req)
	}

	url := req.URL.String()

	var requestBody []byte
	if req.Method == http.MethodPost && req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	if entry, found := c.cache.Lookup(url, requestBody); found {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(entry.Data)),
			Header:     make(http.Header),
			Request:    req,
		}
		resp.Header.Set("X-From-Cache", "true")
		if entry.ETag != "" {
			resp.Header.Set("ETag", entry.ETag)
		}
		return resp, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		data, err := io.ReadAll(resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close response body", "error", closeErr)
		}
		if err != nil {
			return nil, err
		}
		c.cache.Store(url, requestBody, data, resp.Header.Get("ETag"))
		resp.Body = io.NopCloser(bytes.NewReader(data))
	}

	return resp, nil
}
