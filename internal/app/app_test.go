package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/voicespaces-server/internal/config"
	"github.com/vovakirdan/voicespaces-server/internal/state"
	"github.com/vovakirdan/voicespaces-server/internal/store"
	"github.com/vovakirdan/voicespaces-server/internal/store/sqlite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "voicespaces.db")
	cfg.ShutdownTimeout = 2 * time.Second
	return &cfg
}

func TestNewLoadsStoredRooms(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.UpsertRoom(ctx, store.Room{ID: "atrium", Name: "The Atrium"}); err != nil {
		t.Fatalf("seed room: %v", err)
	}
	if err := st.UpsertObject(ctx, store.Object{ID: "o1", RoomID: "atrium", Type: "note", Content: "hello"}); err != nil {
		t.Fatalf("seed object: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	logger := zerolog.Nop()
	a, err := New(ctx, cfg, &logger)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	resp := httptest.NewRecorder()
	a.Handler().ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var rooms []state.RoomSummary
	if err := json.Unmarshal(resp.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "atrium" || rooms[0].Name != "The Atrium" {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := testConfig(t)
	logger := zerolog.Nop()

	a, err := New(context.Background(), cfg, &logger)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.cleanup()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	a.Handler().ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "voicespaces_connected_clients") {
		t.Fatalf("metrics output lacks voicespaces collectors")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	logger := zerolog.Nop()

	a, err := New(context.Background(), cfg, &logger)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop")
	}
}
