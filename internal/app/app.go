package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	rhttp "github.com/yungbote/rikai-backend/internal/http"
	"github.com/yungbote/rikai-backend/internal/observability"
	"github.com/yungbote/rikai-backend/internal/platform/envutil"
	"github.com/yungbote/rikai-backend/internal/platform/kvstore"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
	"github.com/yungbote/rikai-backend/internal/platform/openai"
)

const (
	serviceName     = "rikai-backend"
	shutdownTimeout = 10 * time.Second
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	KV       kvstore.Store
	Metrics  *observability.Metrics
	Services Services
	Router   *gin.Engine

	otelShutdown func(context.Context) error
}

type Options struct {
	// RequireProvider fails New when no OpenAI key is configured. Read-only
	// commands leave it off.
	RequireProvider bool
}

func New(ctx context.Context, opts Options) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Loading environment variables...")
	return NewWithLogger(ctx, log, LoadConfig(log), opts)
}

func NewWithLogger(ctx context.Context, log *logger.Logger, cfg Config, opts Options) (*App, error) {
	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})
	metrics := observability.Init(log)

	kv, err := kvstore.Open(ctx, log, cfg.KV)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open kv store: %w", err)
	}

	var ai openai.Client
	if cfg.OpenAI.APIKey != "" || opts.RequireProvider {
		ai, err = openai.NewClient(log, cfg.OpenAI)
		if err != nil {
			_ = kv.Close()
			log.Sync()
			return nil, fmt.Errorf("init openai client: %w", err)
		}
	} else {
		log.Warn("OPENAI_API_KEY not set; generation disabled")
	}

	serviceset, err := wireServices(ctx, log, cfg, kv, ai)
	if err != nil {
		_ = kv.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, cfg)
	router := wireRouter(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		Cfg:          cfg,
		KV:           kv,
		Metrics:      metrics,
		Services:     serviceset,
		Router:       router,
		otelShutdown: shutdown,
	}, nil
}

// Run serves the API until ctx is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := rhttp.NewServer(a.Router)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
		return server.Run(gctx, a.Cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("shutting down")
		return a.drain()
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// drain cancels outstanding content requests and waits for them for at most
// shutdownTimeout.
func (a *App) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Services.Cache.Shutdown(ctx); err != nil {
		a.Log.Warn("content requests still running at shutdown", "error", err)
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.KV != nil {
		if err := a.KV.Close(); err != nil && a.Log != nil {
			a.Log.Warn("kv close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
