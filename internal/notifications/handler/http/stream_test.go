package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/notifications/stream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// streamRecorder is a flushable ResponseWriter that signals once a data frame
// has been written, so tests can sequence broadcast and disconnect without
// racing the handler goroutine.
type streamRecorder struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	header http.Header
	status int
	wrote  chan struct{}
	once   sync.Once
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{
		header: make(http.Header),
		wrote:  make(chan struct{}),
	}
}

func (r *streamRecorder) Header() http.Header { return r.header }

func (r *streamRecorder) WriteHeader(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *streamRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.buf.Write(p)
	r.once.Do(func() { close(r.wrote) })
	return n, err
}

func (r *streamRecorder) Flush() {}

func (r *streamRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func TestStreamDeliversBroadcastFrames(t *testing.T) {
	hub := stream.NewHub(testLogger())
	h := NewStreamHandler(hub, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	rec := newStreamRecorder()

	done := make(chan struct{})
	go func() {
		h.Stream(rec, req)
		close(done)
	}()

	// Wait for the handler to subscribe before broadcasting.
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, time.Millisecond)

	hub.Broadcast([]byte(`{"event_type":"OrderCreated"}`))

	select {
	case <-rec.wrote:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the data frame")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after disconnect")
	}

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.body(), "data: {\"event_type\":\"OrderCreated\"}\n\n")
	assert.Equal(t, 0, hub.Len(), "handler must unsubscribe on disconnect")
}

func TestStreamRequiresFlusher(t *testing.T) {
	hub := stream.NewHub(testLogger())
	h := NewStreamHandler(hub, testLogger())

	// A plain writer without http.Flusher cannot stream.
	type plainWriter struct{ http.ResponseWriter }
	rec := httptest.NewRecorder()
	h.Stream(plainWriter{rec}, httptest.NewRequest(http.MethodGet, "/stream", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, hub.Len())
}
