package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"speech-batch-transcriber/internal/config"
)

func TestNew_DisabledKafka(t *testing.T) {
	cfg := config.Defaults()

	a := New("transcribe-job", cfg, true)
	if a.Publisher == nil {
		t.Fatal("expected a publisher even when Kafka is disabled")
	}
	if a.Metrics == nil {
		t.Fatal("expected metrics")
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if a.StartupTime.IsZero() {
		t.Error("expected startup time to be set")
	}
	a.Shutdown(context.Background())
}

func TestShutdown_PushesMetrics(t *testing.T) {
	var pushes atomic.Int32
	var path atomic.Value
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer gw.Close()

	cfg := config.Defaults()
	cfg.Observability.PushgatewayURL = gw.URL

	a := New("transcript-extract", cfg, true)
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	a.Shutdown(context.Background())

	if pushes.Load() != 1 {
		t.Fatalf("expected 1 push, got %d", pushes.Load())
	}
	if p, _ := path.Load().(string); !strings.Contains(p, "/job/transcript-extract") {
		t.Errorf("expected push under job name, got %s", p)
	}
}
