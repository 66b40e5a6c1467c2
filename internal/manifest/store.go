package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patchbay-ops/agent/internal/httputil"
	"github.com/patchbay-ops/agent/internal/logging"
)

var log = logging.L("manifest")

// DefaultTTL is the maximum age of a cached manifest before a refresh
// is forced.
const DefaultTTL = 6 * time.Hour

// DocumentPath is the well-known path of the manifest on the server.
const DocumentPath = "/patch.yaml"

// maxDocumentSize bounds the manifest read; a patch manifest measured in
// megabytes is a server-side mistake, not a policy.
const maxDocumentSize = 4 << 20

// Snapshot pairs a parsed Manifest with its fetch time and source. It is
// handed to callers as an immutable value; a refresh replaces the whole
// snapshot, never mutates it.
type Snapshot struct {
	Manifest  Manifest
	FetchedAt time.Time
	Source    string
}

// Age returns how old the snapshot is at the given instant.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// Store fetches the manifest document over HTTP and caches the parsed
// result for the configured TTL. The cache lives only for the process
// lifetime.
type Store struct {
	url    string
	ttl    time.Duration
	client *http.Client
	retry  httputil.RetryConfig
	now    func() time.Time

	mu     sync.Mutex
	cached *Snapshot
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the cache TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store fetching from <server>/patch.yaml.
func NewStore(server string, opts ...Option) *Store {
	s := &Store{
		url:    strings.TrimRight(server, "/") + DocumentPath,
		ttl:    DefaultTTL,
		client: &http.Client{Timeout: 30 * time.Second},
		retry:  httputil.DefaultRetryConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the manifest document URL.
func (s *Store) URL() string { return s.url }

// Fetch returns the current manifest snapshot. Within the TTL the cached
// snapshot is returned without network I/O. Past the TTL a fresh retrieval
// is performed; if it fails, the error propagates and the stale snapshot is
// NOT substituted, so a dead manifest server cannot freeze policy silently.
func (s *Store) Fetch(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != nil && s.cached.Age(now) <= s.ttl {
		log.Debug("manifest cache hit", "age", s.cached.Age(now), "source", s.url)
		return s.cached, nil
	}

	snap, err := s.retrieve(ctx, now)
	if err != nil {
		return nil, err
	}

	s.cached = snap
	log.Info("manifest refreshed", "hosts", len(snap.Manifest), "source", s.url)
	return snap, nil
}

func (s *Store) retrieve(ctx context.Context, now time.Time) (*Snapshot, error) {
	resp, err := httputil.Get(ctx, s.client, s.url, s.retry)
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: s.url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &FetchError{URL: s.url, Err: err}
	}

	m, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Manifest:  m,
		FetchedAt: now,
		Source:    s.url,
	}, nil
}
