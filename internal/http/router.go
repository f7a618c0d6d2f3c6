package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/cache"
	"github.com/geocoder89/authhub/internal/config"
	"github.com/geocoder89/authhub/internal/http/handlers"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/geocoder89/authhub/internal/notifications"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/geocoder89/authhub/internal/repo/memory"
	"github.com/geocoder89/authhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Options carries the optional collaborators. Zero values get safe
// defaults: log notifier, in-process cache, no metrics endpoint.
type Options struct {
	Registry *prometheus.Registry
	Cache    cache.Cache
	Notifier notifications.Notifier
}

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config, opts Options) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	var prom *observability.Prom

	if opts.Registry != nil {
		prom = observability.NewProm(opts.Registry)
	}

	notifier := opts.Notifier

	if notifier == nil {
		notifier = notifications.NewLogNotifier()
	}

	userCache := opts.Cache

	if userCache == nil {
		userCache = cache.NewMemory(30 * time.Second)
	}

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.SecurityHeaders())

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	}

	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware("auth-backend"))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	r.Use(middlewares.RequireJSON())

	// health

	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/health", h.Health)
	r.GET("/readyz", h.Readyz)

	if opts.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	// wire up the user store; without a DB the in-memory store backs
	// everything (local runs and router tests)

	var store handlers.UserStore

	if pool != nil {
		store = postgres.NewUsersRepo(pool, prom)
	} else {
		store = memory.NewUsersRepo()
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL)

	authHandler := handlers.NewAuthHandler(store, jwtManager, notifier, cfg, prom, userCache)

	authGroup := r.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/forgot-password", authHandler.ForgotPassword)
	authGroup.POST("/reset-password/:token", authHandler.ResetPassword)
	authGroup.GET("/me", authHandler.Me)

	// sample protected route behind the guard
	guard := middlewares.NewAuthMiddleware(jwtManager)
	r.GET("/dashboard", guard.RequireAuth(), handlers.Dashboard)

	return r
}
