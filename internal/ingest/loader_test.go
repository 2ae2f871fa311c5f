package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/nodescope/internal/events"
	"github.com/npratt/nodescope/internal/testutil"
)

type stubSource struct {
	data string
	err  error
}

func (s stubSource) Fetch(context.Context, string) ([]byte, error) {
	return []byte(s.data), s.err
}

func nextEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return nil
	}
}

func TestLoader_Load(t *testing.T) {
	router := events.NewRouter(10)
	defer router.Close()
	sub := router.Subscribe()

	l := NewLoader(stubSource{data: testutil.SocialGEXF}, defaultOptions(), router, nil)
	res, err := l.Load(context.Background(), "social.gexf")
	require.NoError(t, err)

	assert.Equal(t, 6, res.Graph.Order())
	assert.Equal(t, "social.gexf", res.Location)
	e, _ := res.Graph.Edge("de")
	assert.True(t, e.Hidden)

	loaded, ok := nextEvent(t, sub).(*events.GraphLoadedEvent)
	require.True(t, ok)
	assert.Equal(t, 6, loaded.Nodes)
	assert.Equal(t, 6, loaded.Edges)
}

func TestLoader_Failures(t *testing.T) {
	tests := []struct {
		name string
		src  stubSource
		is   error
	}{
		{"fetch error", stubSource{err: ErrEmptySource}, ErrEmptySource},
		{"malformed", stubSource{data: testutil.MalformedGEXF}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := events.NewRouter(10)
			defer router.Close()
			sub := router.Subscribe()

			res, err := NewLoader(tt.src, defaultOptions(), router, nil).Load(context.Background(), "x")
			require.Error(t, err)
			assert.Nil(t, res)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is))
			}

			ev, ok := nextEvent(t, sub).(*events.ErrorEvent)
			require.True(t, ok)
			assert.Equal(t, events.SeverityError, ev.Severity)
		})
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(stubSource{data: testutil.SocialGEXF}, defaultOptions(), nil, nil).Load(ctx, "x")
	assert.True(t, errors.Is(err, context.Canceled))
}
