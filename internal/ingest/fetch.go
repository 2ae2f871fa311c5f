// Package ingest turns a graph source into an annotated graph.Graph:
// fetch the bytes, decode GEXF, then derive display attributes once.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/npratt/nodescope/internal/config"
)

// ErrEmptySource is returned when a source yields no bytes.
var ErrEmptySource = errors.New("empty graph source")

// maxSourceBytes bounds how much of a remote response is read.
const maxSourceBytes = 256 << 20

// StatusError reports a non-2xx response from a remote source.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Source produces the raw bytes of a graph file.
type Source interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Fetcher reads graph files from http(s) URLs, file:// URLs or local paths.
// Remote fetches go through a circuit breaker so a dead host is not hammered
// by reload keys and file watchers.
type Fetcher struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	logger  *slog.Logger
}

// NewFetcher builds a Fetcher from source settings.
func NewFetcher(cfg config.SourceConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "fetcher")

	bc := cfg.Breaker
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "graph-source",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= bc.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// A cancelled request says nothing about the remote host.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Fetcher{
		client:  &http.Client{},
		breaker: breaker,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// WithHTTPClient replaces the HTTP client, mostly for tests.
func (f *Fetcher) WithHTTPClient(c *http.Client) *Fetcher {
	f.client = c
	return f
}

// BreakerState reports the circuit breaker state ("closed", "open", "half-open").
func (f *Fetcher) BreakerState() string {
	return f.breaker.State().String()
}

// Fetch returns the bytes at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("fetch: %w", ErrEmptySource)
	}

	if IsRemote(location) {
		return f.fetchRemote(ctx, location)
	}
	return f.readLocal(LocalPath(location))
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// LocalPath strips a file:// scheme, returning other locations unchanged.
func LocalPath(location string) string {
	if u, err := url.Parse(location); err == nil && u.Scheme == "file" {
		return u.Path
	}
	return location
}

func (f *Fetcher) fetchRemote(ctx context.Context, location string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := f.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/xml, text/xml, */*")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{URL: location, Code: resp.StatusCode}
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}

	data := result.([]byte)
	f.logger.Debug("fetched remote source", "url", location, "bytes", len(data), "duration", time.Since(start))
	if len(data) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", location, ErrEmptySource)
	}
	return data, nil
}

func (f *Fetcher) readLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("read %s: %w", path, ErrEmptySource)
	}
	f.logger.Debug("read local source", "path", path, "bytes", len(data))
	return data, nil
}
