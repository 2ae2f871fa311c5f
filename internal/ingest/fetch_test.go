package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/nodescope/internal/config"
	"github.com/npratt/nodescope/internal/testutil"
)

func testSourceConfig() config.SourceConfig {
	cfg := config.Default().Source
	cfg.Timeout = 2 * time.Second
	cfg.Breaker.MinRequests = 2
	cfg.Breaker.FailureRatio = 1
	cfg.Breaker.Timeout = time.Minute
	return cfg
}

func TestFetch_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/social.gexf", r.URL.Path)
		_, _ = w.Write([]byte(testutil.SocialGEXF))
	}))
	defer srv.Close()

	f := NewFetcher(testSourceConfig(), nil)
	data, err := f.Fetch(context.Background(), srv.URL+"/social.gexf")
	require.NoError(t, err)
	assert.Equal(t, testutil.SocialGEXF, string(data))
	assert.Equal(t, "closed", f.BreakerState())
}

func TestFetch_RemoteStatusAndBreaker(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(testSourceConfig(), nil)

	_, err := f.Fetch(context.Background(), srv.URL)
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusNotFound, status.Code)

	_, err = f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, "open", f.BreakerState())

	_, err = f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, 2, hits, "open breaker short-circuits the request")
}

func TestFetch_RemoteEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := NewFetcher(testSourceConfig(), nil).Fetch(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, ErrEmptySource))
}

func TestFetch_Local(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "graph.gexf", testutil.AirlinesGEXF)
	empty := testutil.WriteFile(t, dir, "empty.gexf", "")
	f := NewFetcher(testSourceConfig(), nil)

	data, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, testutil.AirlinesGEXF, string(data))

	data, err = f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = f.Fetch(context.Background(), empty)
	assert.True(t, errors.Is(err, ErrEmptySource))

	_, err = f.Fetch(context.Background(), dir+"/missing.gexf")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "  ")
	assert.True(t, errors.Is(err, ErrEmptySource))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.org/a.gexf"))
	assert.True(t, IsRemote("http://localhost:8080/a.gexf"))
	assert.False(t, IsRemote("./data/a.gexf"))
	assert.False(t, IsRemote("file:///tmp/a.gexf"))
	assert.Equal(t, "/tmp/a.gexf", LocalPath("file:///tmp/a.gexf"))
	assert.Equal(t, "data/a.gexf", LocalPath("data/a.gexf"))
}
