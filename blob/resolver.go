package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxContentResponseSize is the maximum allowed response body size for
// remote content fetches (1 GB). Prevents memory exhaustion from malicious
// endpoints.
const MaxContentResponseSize = 1 << 30

// Resolver fetches content by ref from multiple sources in priority order:
// local FileSink, then remote HTTP endpoints. Remote results are verified
// against the content-addressed ref and cached locally.
//
// Resolver implements Sink; writes always go to the local FileSink.
type Resolver struct {
	Local     *FileSink    // local content-addressed storage
	Endpoints []string     // remote base URLs (e.g. "http://localhost:8080")
	Client    *http.Client // HTTP client for remote fetches; nil uses default
}

// Compile-time interface check.
var _ Sink = (*Resolver)(nil)

// NewResolver creates a Resolver over the given local sink.
// Endpoints and Client can be set after creation.
func NewResolver(local *FileSink) *Resolver {
	return &Resolver{
		Local: local,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Put stores data in the local sink.
func (r *Resolver) Put(ctx context.Context, data []byte) (string, error) {
	return r.Local.Put(ctx, data)
}

// Get retrieves content for ref, trying sources in order:
//  1. Local FileSink
//  2. Remote HTTP endpoints (GET {base}/_ledgerfs/data/{ref})
//
// Returns the first verified result or an error if all sources fail.
func (r *Resolver) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}

	if r.Local != nil {
		data, err := r.Local.Get(ctx, ref)
		if err == nil {
			return data, nil
		}
		// Only continue if not found; other errors are real failures.
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("resolver: local sink: %w", err)
		}
	}

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	for _, ep := range r.Endpoints {
		data, err := r.fetchFromEndpoint(ctx, client, ep, ref)
		if err != nil {
			continue // try next endpoint
		}
		// Verify the content hash before trusting remote data.
		if RefForContent(data) != ref {
			continue // corrupted or lying endpoint
		}
		// Cache locally for future access (best-effort).
		if r.Local != nil {
			_, _ = r.Local.Put(ctx, data)
		}
		return data, nil
	}

	return nil, fmt.Errorf("resolver: %w: ref %s", ErrNotFound, ref)
}

// fetchFromEndpoint fetches content from a single remote endpoint.
func (r *Resolver) fetchFromEndpoint(ctx context.Context, client *http.Client, baseURL, ref string) ([]byte, error) {
	url := baseURL + "/_ledgerfs/data/" + ref

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("resolver: endpoint %s: %w", baseURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolver: endpoint %s: %w", baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver: endpoint %s: HTTP %d", baseURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentResponseSize))
	if err != nil {
		return nil, fmt.Errorf("resolver: endpoint %s: read body: %w", baseURL, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("resolver: endpoint %s: empty response", baseURL)
	}

	return data, nil
}
