package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/voicespaces-server/internal/auth"
	"github.com/vovakirdan/voicespaces-server/internal/config"
	"github.com/vovakirdan/voicespaces-server/internal/core"
	"github.com/vovakirdan/voicespaces-server/internal/media"
	"github.com/vovakirdan/voicespaces-server/internal/proto"
	"github.com/vovakirdan/voicespaces-server/internal/state"
	"github.com/vovakirdan/voicespaces-server/internal/store/sqlite"
)

type testEnv struct {
	cfg    config.Config
	state  *state.Coordinator
	auth   *auth.Service
	server *stdhttp.Server
	ts     *httptest.Server
}

func newTestEnv(t *testing.T, issuer media.Issuer, tweak ...func(*config.Config)) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.JWTSecret = "test-secret"
	for _, fn := range tweak {
		fn(&cfg)
	}

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	coord := state.New(nil, state.DefaultOptions(), nil)
	hub := core.NewHub(coord, st, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(&cfg, Dependencies{
		Hub:   hub,
		State: coord,
		Auth:  authService,
		Media: issuer,
	}, nil)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{cfg: cfg, state: coord, auth: authService, server: server, ts: ts}
}

// do runs a request against the router without a network round trip.
func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *stdhttp.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(resp, req)
	return resp
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips frames until one matches event, or an error frame when
// event is empty.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) outbound {
	t.Helper()

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read waiting for %q: %v", event, err)
		}
		if event == "" && out.Type == proto.OutboundTypeError {
			return out
		}
		if event != "" && out.Type == proto.OutboundTypeEvent && out.Event == event {
			return out
		}
	}
}
