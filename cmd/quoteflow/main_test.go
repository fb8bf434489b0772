package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/neomorfeo/quoteflow/internal/adapter/fsm"
	promadapter "github.com/neomorfeo/quoteflow/internal/adapter/prometheus"
	"github.com/neomorfeo/quoteflow/internal/adapter/sqlite"
	"github.com/neomorfeo/quoteflow/internal/app"
	"github.com/neomorfeo/quoteflow/internal/config"
	"github.com/neomorfeo/quoteflow/internal/domain"
)

// testPublisher is a local EventPublisher for the smoke test.
// The smoke test verifies HTTP wiring, not River.
type testPublisher struct{}

func (testPublisher) Publish(context.Context, domain.Event) error { return nil }

type testNotifier struct{}

func (testNotifier) SendQuoteNotification(context.Context, domain.Quote, domain.Vendor) error {
	return nil
}

func (testNotifier) SendQuoteResponseNotification(context.Context, domain.Quote) error { return nil }

func (testNotifier) SendQuoteExtendedNotification(context.Context, domain.Quote, domain.Vendor) error {
	return nil
}

func get(t *testing.T, url string, tenantID string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	return resp
}

// TestSmoke wires the HTTP stack like run() and verifies it responds.
func TestSmoke(t *testing.T) {
	store, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := prometheus.NewRegistry()
	metrics := promadapter.NewMetrics(registry)

	svc := app.NewQuoteService(app.Deps{
		Repo:      store.Quotes(),
		Directory: store.Directory(),
		Publisher: promadapter.NewCountingPublisher(testPublisher{}, metrics),
		Notifier:  testNotifier{},
		Validator: fsm.New(),
		Tx:        store,
	})

	srv := httptest.NewServer(newRouter(svc, zap.NewNop(), registry))
	t.Cleanup(srv.Close)

	resp := get(t, srv.URL+"/api/v1/quotes", "1")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var page struct {
		Data []map[string]any `json:"data"`
		Meta app.PageMeta     `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(page.Data) != 0 || page.Meta.Total != 0 {
		t.Errorf("got %d quotes (total %d), want none in an empty database", len(page.Data), page.Meta.Total)
	}

	// Directory rows exist only through seeding; an unknown order is a 404.
	body := `{"order_id":1,"vendor_id":1,"product_id":1,"quantity":1}`
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL+"/api/v1/quotes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", "1")
	created, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/v1/quotes failed: %v", err)
	}
	created.Body.Close()
	if created.StatusCode != http.StatusNotFound {
		t.Errorf("create with unknown order: status = %d, want %d", created.StatusCode, http.StatusNotFound)
	}

	metricsResp := get(t, srv.URL+"/metrics", "")
	defer metricsResp.Body.Close()
	if metricsResp.StatusCode != http.StatusOK {
		t.Fatalf("/metrics status = %d, want %d", metricsResp.StatusCode, http.StatusOK)
	}
	if ct := metricsResp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("/metrics content type = %q", ct)
	}
}

func TestPolicy_FromConfig(t *testing.T) {
	cfg := &config.Config{
		Quote: config.QuoteConfig{
			Validity:        48 * time.Hour,
			ExtensionWindow: 24 * time.Hour,
			Currency:        "USD",
			PageSize:        10,
			MaxPageSize:     50,
		},
		Jobs: config.JobsConfig{ExpirySweepBatch: 25},
	}

	got := policy(cfg)
	want := app.Policy{
		DefaultValidity: 48 * time.Hour,
		ExtensionWindow: 24 * time.Hour,
		DefaultCurrency: "USD",
		DefaultPerPage:  10,
		MaxPerPage:      50,
		ExpiryBatchSize: 25,
	}
	if got != want {
		t.Errorf("policy = %+v, want %+v", got, want)
	}
}

// discardStdout silences the logger and any telemetry output for the test.
func discardStdout(t *testing.T) {
	t.Helper()
	origStdout := os.Stdout
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})
}

// TestRun exercises the real run() function end-to-end: OTel, River, HTTP
// server, and graceful shutdown. It disables telemetry export and uses a
// temp database to avoid external dependencies.
func TestRun(t *testing.T) {
	t.Setenv("DATABASE_PATH", t.TempDir()+"/test-run.db")
	t.Setenv("PORT", "19876")
	t.Setenv("OTEL_EXPORTER", "none")
	t.Setenv("OTEL_ENVIRONMENT", "test")
	t.Setenv("QUOTEFLOW_EXPIRY_SWEEP_INTERVAL", "1h")
	discardStdout(t)

	errCh := make(chan error, 1)
	go func() { errCh <- run() }()

	// Wait for the HTTP server to become ready.
	serverURL := "http://localhost:19876"
	ready := false
	for i := 0; i < 50; i++ {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/metrics", nil)
		resp, reqErr := http.DefaultClient.Do(req)
		if reqErr == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		t.Fatal("server did not start within 5 seconds")
	}

	// Verify the API responds correctly.
	resp := get(t, serverURL+"/api/v1/quotes/statistics", "1")
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	// The tenant header is mandatory.
	resp = get(t, serverURL+"/api/v1/quotes", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("without tenant: status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}

	// Send SIGINT to trigger graceful shutdown.
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("finding process: %v", err)
	}
	if err := proc.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("sending SIGINT: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not exit within 10 seconds")
	}
}

// TestRun_InvalidDB verifies run() returns an error for an invalid database path.
func TestRun_InvalidDB(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/nonexistent/path/db.sqlite")
	t.Setenv("PORT", "19877")
	t.Setenv("OTEL_EXPORTER", "none")
	t.Setenv("OTEL_ENVIRONMENT", "test")
	discardStdout(t)

	if err := run(); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}

// TestRun_InvalidConfig verifies run() rejects configuration that fails validation.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("QUOTEFLOW_RIVER_WORKERS", "0")
	discardStdout(t)

	if err := run(); err == nil {
		t.Fatal("expected error for zero workers, got nil")
	}
}
