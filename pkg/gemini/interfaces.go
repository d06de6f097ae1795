package gemini

import "github.com/sidequest-dev/sidequest/pkg/httpcache"

// ResponseCache is the subset of the response cache the client needs to
// memoize model calls. *httpcache.Cache satisfies it.
type ResponseCache interface {
	Lookup(url string, body []byte) (httpcache.Entry, bool)
	Store(url string, body, data []byte, etag string)
}

// Logger is the logging surface the client writes to. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
