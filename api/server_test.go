package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfolio/marketgauge/internal/config"
	"github.com/openfolio/marketgauge/internal/dashboard"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Data.Benchmark = "SPY"
	cfg.Data.UniverseFile = filepath.Join(dir, "tickers.csv")
	cfg.Data.StatsFile = filepath.Join(dir, "api_stats.json")
	cfg.Data.MaxExpirations = 10
	cfg.Data.RequestsPerSecond = 4
	cfg.API.Host = "127.0.0.1"
	cfg.API.Port = 0

	return NewServer(cfg, dashboard.New(cfg, zerolog.Nop()))
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := doRequest(t, s, http.MethodGet, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		if !resp.Success {
			t.Errorf("%s: success = false", path)
		}
	}
}

func TestUniverseEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/universe")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("success = false")
	}
	// No universe file on disk: the built-in fallback list is served.
	tickers, ok := resp.Data.([]interface{})
	if !ok || len(tickers) != 10 {
		t.Errorf("universe = %v, want 10 fallback tickers", resp.Data)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("stats data = %T", resp.Data)
	}
	if total, _ := data["total_calls"].(float64); total != 0 {
		t.Errorf("total_calls = %v, want 0", data["total_calls"])
	}
}

func TestScreenerUnknownStrategy(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/screener/bogus")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success || resp.Error == "" {
		t.Error("expected failure envelope with an error message")
	}
}

func TestNewsBadLimit(t *testing.T) {
	s := newTestServer(t)

	for _, q := range []string{"banana", "0", "-1", "1000000"} {
		rec := doRequest(t, s, http.MethodGet, "/api/v1/news/AAPL?limit="+q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/nonexistent")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHubClientCountStartsAtZero(t *testing.T) {
	if n := NewWSHub().ClientCount(); n != 0 {
		t.Errorf("fresh hub clients = %d, want 0", n)
	}
}

func TestHubSlowClientDisconnectDoesNotPanicReplies(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	client := &WSClient{hub: hub, send: make(chan WSMessage, 1)}
	hub.Register(client)
	if !client.trySend(WSMessage{Type: "subscribed"}) {
		t.Fatal("first queued message should fit")
	}

	// The queue is now full, so a broadcast marks the client slow and the
	// hub closes its queue. Reply writes racing with that close must be
	// dropped, never panic the process.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			client.trySend(WSMessage{Type: "pong"})
		}
	}()
	hub.Broadcast(WSMessage{Type: "market_health"})
	<-done

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client was not unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if client.trySend(WSMessage{Type: "pong"}) {
		t.Error("closed client must refuse further messages")
	}

	// Read-pump teardown unregisters again; the second close is a no-op.
	hub.Unregister(client)
}
