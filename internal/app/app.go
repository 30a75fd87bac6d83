package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/voicespaces-server/internal/auth"
	"github.com/vovakirdan/voicespaces-server/internal/config"
	"github.com/vovakirdan/voicespaces-server/internal/core"
	"github.com/vovakirdan/voicespaces-server/internal/media"
	"github.com/vovakirdan/voicespaces-server/internal/media/livekit"
	"github.com/vovakirdan/voicespaces-server/internal/metrics"
	"github.com/vovakirdan/voicespaces-server/internal/persist"
	"github.com/vovakirdan/voicespaces-server/internal/state"
	"github.com/vovakirdan/voicespaces-server/internal/store"
	"github.com/vovakirdan/voicespaces-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/voicespaces-server/internal/transport/http"
)

// App wires together storage, room state, core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	bridge          *persist.Bridge
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
// Stored rooms and objects are loaded before it returns.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	bridge := persist.New(st, persist.Config{
		Workers:      cfg.PersistWorkers,
		QueueSize:    cfg.PersistQueueSize,
		WriteTimeout: cfg.PersistWriteTimeout,
	}, logger, m)

	coord := state.New(bridge, state.Options{
		CanvasWidth:  cfg.CanvasWidth,
		CanvasHeight: cfg.CanvasHeight,
	}, logger)

	if err := loadRooms(ctx, st, coord); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	rooms, _ := coord.Stats()
	logger.Info().Int("rooms", rooms).Msg("rooms loaded")

	bridge.Start()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	var issuer media.Issuer = media.Disabled{}
	if cfg.LiveKitEnabled() {
		issuer = livekit.New(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.LiveKitURL)
		logger.Info().Str("url", cfg.LiveKitURL).Msg("livekit media enabled")
	}

	hub := core.NewHub(coord, st, m, logger)
	server := transporthttp.NewServer(cfg, transporthttp.Dependencies{
		Hub:     hub,
		State:   coord,
		Auth:    authService,
		Media:   issuer,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		bridge:          bridge,
		store:           st,
		log:             logger,
	}, nil
}

// loadRooms fills the registry from the store: every room, then each
// room's objects.
func loadRooms(ctx context.Context, st store.Store, coord *state.Coordinator) error {
	stored, err := st.ListRooms(ctx)
	if err != nil {
		return err
	}

	rooms := make([]state.Room, 0, len(stored))
	for _, r := range stored {
		objs, err := st.ListObjects(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("objects of %s: %w", r.ID, err)
		}
		room := state.Room{
			ID:           r.ID,
			Name:         r.Name,
			Participants: []state.Participant{},
			Objects:      make([]state.Object, 0, len(objs)),
		}
		for _, o := range objs {
			room.Objects = append(room.Objects, state.Object{
				ID:       o.ID,
				Type:     o.Type,
				X:        o.X,
				Y:        o.Y,
				Width:    o.Width,
				Height:   o.Height,
				Content:  o.Content,
				ZIndex:   o.ZIndex,
				Rotation: o.Rotation,
			})
		}
		rooms = append(rooms, room)
	}

	coord.Load(rooms)
	return nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled or the server fails, then shuts down
// the HTTP server, drains pending writes and closes the store.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.cleanup()
	return err
}

// cleanup drains the persistence bridge and closes the store.
func (a *App) cleanup() {
	drainCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.bridge.Close(drainCtx); err != nil {
		a.log.Warn().Err(err).Msg("persistence bridge did not drain")
	}
	dropped, failed := a.bridge.Stats()
	a.log.Info().Int64("dropped", dropped).Int64("failed", failed).Msg("persistence bridge stopped")

	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	} else {
		a.log.Info().Msg("store closed")
	}
}
