// Package app assembles the hops web application from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hopyard/hops/internal/config"
	"github.com/hopyard/hops/internal/database"
	"github.com/hopyard/hops/internal/hop"
	"github.com/hopyard/hops/internal/hop/handler"
	"github.com/hopyard/hops/internal/hop/repository"
	"github.com/hopyard/hops/internal/hop/service"
	"github.com/hopyard/hops/internal/sessions"
	"github.com/hopyard/hops/internal/web"
	"github.com/hopyard/hops/pkg/logger"
	"github.com/hopyard/hops/pkg/metrics"
	"github.com/hopyard/hops/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const shutdownTimeout = 10 * time.Second

type check func(ctx context.Context) error

// App is built once at startup and owns every long-lived resource.
type App struct {
	Config   *config.Config
	Hops     service.Service
	Sessions *sessions.Service
	Router   *gin.Engine
	Registry *prometheus.Registry

	redis   *redis.Client
	checks  map[string]check
	closers []func(context.Context) error
	started time.Time
}

// New connects the configured store and Redis and builds the router.
// On error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:  cfg,
		checks:  map[string]check{},
		started: time.Now(),
	}
	if err := a.init(ctx); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	if err := a.openStore(ctx); err != nil {
		return err
	}
	a.connectRedis(ctx)

	var srepo sessions.Repository = sessions.NewMemoryRepository()
	if a.redis != nil {
		srepo = sessions.NewRedisRepository(a.redis, "session:")
		logger.Infof("using Redis for session storage")
	}
	a.Sessions = sessions.NewService(srepo, a.Config.Session.TTL)

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(a.Registry)

	return a.buildRouter()
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Store.Driver {
	case config.DriverMemory:
		a.Hops = service.NewMemoryService()
		a.checks["store"] = func(context.Context) error { return nil }
		logger.Warnf("using in-memory hop store; records are lost on restart")
	case config.DriverMongo:
		client, err := connectMongo(ctx, cfg.MongoDB)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Disconnect)
		a.checks["store"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		svc, err := service.NewMongoService(ctx, col)
		if err != nil {
			return fmt.Errorf("init mongo hop store: %w", err)
		}
		a.Hops = svc
		logger.Infof("using MongoDB hop store %s.%s", cfg.MongoDB.Database, cfg.MongoDB.Collection)
	case config.DriverSQLite, config.DriverPostgres:
		driver, dialect := "sqlite", repository.SQLite
		if cfg.Store.Driver == config.DriverPostgres {
			driver, dialect = "pgx", repository.Postgres
		}
		db, err := database.OpenSQL(ctx, driver, cfg.SQL.DSN, cfg.SQL.Timeout)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		a.checks["store"] = db.PingContext
		repo, err := repository.NewSQLRepo(ctx, db, dialect)
		if err != nil {
			return fmt.Errorf("init %s hop store: %w", cfg.Store.Driver, err)
		}
		a.Hops = service.New(repo)
		logger.Infof("using %s hop store", cfg.Store.Driver)
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return nil
}

// connectMongo retries with backoff to tolerate startup races with the database.
func connectMongo(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	const maxAttempts = 5
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := database.ConnectMongo(ctx, cfg.URI, cfg.Timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", maxAttempts, lastErr)
}

// connectRedis is best effort: without Redis, sessions and rate limits stay in memory.
func (a *App) connectRedis(ctx context.Context) {
	addr := a.Config.Redis.Addr()
	if addr == "" {
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s), falling back to memory: %v", addr, err)
		_ = client.Close()
		return
	}
	logger.Infof("connected to Redis: %s", addr)
	a.redis = client
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
}

func (a *App) buildRouter() error {
	cfg := a.Config
	dev := cfg.Server.Development()

	tmpl, err := web.Templates()
	if err != nil {
		return err
	}
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(logger.GinLogger(), web.Recovery(dev), web.ErrorPages(dev))

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && a.redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(a.redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", a.ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))
	r.StaticFS("/static", web.Static())

	pages := r.Group("/", sessions.Middleware(cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure))
	handler.NewHandler(a.Hops, a.Sessions).Register(pages)

	r.NoRoute(web.NotFound)
	a.Router = r
	return nil
}

// ready returns 200 only when every dependency answers a ping.
func (a *App) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	ok := true
	deps := map[string]bool{}
	for name, ping := range a.checks {
		if err := ping(ctx); err != nil {
			logger.Warnf("readiness: %s: %v", name, err)
			deps[name] = false
			ok = false
			continue
		}
		deps[name] = true
	}
	uptime := time.Since(a.started).String()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
}

// Seed stores every hop listed in a YAML seed document and returns how
// many were created. It stops at the first invalid entry.
func (a *App) Seed(ctx context.Context, r io.Reader) (int, error) {
	inputs, err := hop.LoadSeed(r)
	if err != nil {
		return 0, err
	}
	for i, in := range inputs {
		h, err := a.Hops.Create(ctx, in)
		if err != nil {
			return i, fmt.Errorf("seed entry %d (%q): %w", i+1, in.Name, err)
		}
		logger.Debugf("seeded hop %s (%s)", h.ID.Hex(), h.Name)
	}
	return len(inputs), nil
}

// Run listens on the configured address until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Config.Server.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve handles requests on ln and shuts the server down gracefully once
// ctx is cancelled.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		logger.Infof("listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Close releases store and Redis connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
