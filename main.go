package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"vidrank/cache"
	"vidrank/config"
	"vidrank/db"
	"vidrank/history"
	"vidrank/httputil"
	"vidrank/logging"
	"vidrank/metrics"
	"vidrank/ratelimit"
	"vidrank/results"
	"vidrank/search"
	"vidrank/session"
	"vidrank/snapshot"
)

type App struct {
	cfg    config.Config
	db     *db.Handle
	logger zerolog.Logger

	results *results.Handler
	history *history.Handler

	closers []func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logging.Base()
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Configure(logging.Config{Level: cfg.LogLevel})
	logger := logging.WithComponent("main")

	ctx := context.Background()
	app, err := newApp(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("backend", cfg.Search.Backend).Msg("vidrank listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("shutdown")
	}
	app.results.Wait()
	logger.Info().Msg("server shut down")
}

// newApp opens the database and builds every collaborator named by cfg.
func newApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.WithComponent("main")

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	app := &App{cfg: cfg, db: store, logger: logger}
	app.closers = append(app.closers, store.Close)

	resultCache := app.newCache(ctx)
	source := search.NewCached(newSource(cfg), cfg.Search.Backend, resultCache, logging.WithComponent("search"))

	archiver, err := app.newArchiver(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	hist := history.NewStore(store, cfg.HistorySize)
	app.results = &results.Handler{
		Source:   source,
		Sessions: session.NewStore(cfg.Session.Limit, cfg.Session.TTL),
		History:  hist,
		Archiver: archiver,
		Logger:   logging.WithComponent("results"),
	}
	app.history = &history.Handler{
		Store:  hist,
		Logger: logging.WithComponent("history"),
	}
	return app, nil
}

func newSource(cfg config.Config) search.Source {
	client := &http.Client{Timeout: cfg.Search.UpstreamTimeout}
	if cfg.Search.Backend == config.BackendYouTube {
		return search.NewYouTube(cfg.Search.YouTubeBaseURL, client)
	}
	return search.NewClient(cfg.Search.APIURL, client)
}

// newCache prefers Redis when configured and falls back to memory when it
// cannot be reached.
func (a *App) newCache(ctx context.Context) cache.Cache {
	if a.cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		}, a.cfg.Cache.TTL, logging.WithComponent("cache"))
		if err == nil {
			a.closers = append(a.closers, rc.Close)
			return rc
		}
		a.logger.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
	}
	return cache.NewMemory(a.cfg.Cache.Size, a.cfg.Cache.TTL)
}

func (a *App) newArchiver(ctx context.Context) (snapshot.Archiver, error) {
	mc := a.cfg.Minio
	if mc.Endpoint == "" {
		return snapshot.Noop{}, nil
	}
	archiver, err := snapshot.NewMinio(snapshot.Options{
		Endpoint:  mc.Endpoint,
		AccessKey: mc.AccessKey,
		SecretKey: mc.SecretKey,
		Bucket:    mc.Bucket,
		UseSSL:    mc.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	created, err := archiver.EnsureBucket(ctx)
	if err != nil {
		return nil, err
	}
	if created {
		a.logger.Info().Str("bucket", mc.Bucket).Msg("created bucket")
	}
	return archiver, nil
}

func (a *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(logging.WithComponent("http")))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Client-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", a.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(a.cfg.RateLimitPerMinute, time.Minute))
		r.Get("/api/search", a.results.HandleSearch)
		r.Get("/api/sessions/{id}", a.results.HandleGet)
		r.Put("/api/sessions/{id}/view", a.results.HandleView)
		r.Post("/api/sessions/{id}/more", a.results.HandleMore)
		r.Get("/api/history", a.history.HandleList)
		r.Delete("/api/history", a.history.HandleClear)
	})
	return r
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": "database unreachable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Close releases the database and cache connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}
