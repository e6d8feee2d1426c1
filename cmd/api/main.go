package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intercom-platform/internal/audit"
	"intercom-platform/internal/auth"
	"intercom-platform/internal/callsession"
	"intercom-platform/internal/config"
	"intercom-platform/internal/directory"
	"intercom-platform/internal/httpapi"
	"intercom-platform/internal/notify"
	"intercom-platform/internal/rbac"
	"intercom-platform/pkg/logger"
	"intercom-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Services
	dirSvc := directory.NewService(directory.NewPostgresRepo(db))
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	calls := callsession.NewService(
		callsession.NewPostgresRepo(db),
		notify.NewRedisDispatcher(rdb),
		callsession.AuditRecorder{Audit: auditSvc},
		cfg.DoorBell.RingTimeout,
	)
	policy := rbac.Policy{}

	h := httpapi.Handlers{
		Auth:      authManager,
		Directory: dirSvc,
		Calls:     calls,
		Audit:     auditSvc,
		Authz:     policy,
		PressDebounce: func(ctx context.Context, doorBellID string) (bool, error) {
			return utils.Debounce(ctx, rdb, "press:"+doorBellID, cfg.DoorBell.PressDebounce)
		},
		PressDebounceClear: func(ctx context.Context, doorBellID string) error {
			return utils.ClearDebounce(ctx, rdb, "press:"+doorBellID)
		},
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h,
		auth.RequireAccessToken(authManager),
		httpapi.RequireScannerAuth(authManager, cfg.DoorBell.ScannerToken, policy),
		healthzHandler(db, rdb),
	)

	// Optional in-process sweep. Most deployments call check-timeout from
	// cron instead; setting RING_SCAN_INTERVAL makes the api self-sufficient.
	if cfg.DoorBell.ScanInterval > 0 {
		go runTimeoutScanner(rootCtx, log, calls, cfg.DoorBell.ScanInterval)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

func healthzHandler(db *sql.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := utils.HealthCheck(ctx, db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": "down"})
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// runTimeoutScanner sweeps expired rings across all buildings until the root
// context is canceled. The sweep itself is a single conditional update, so
// running it alongside external cron callers is harmless.
func runTimeoutScanner(ctx context.Context, log *slog.Logger, calls *callsession.Service, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	log.Info("timeout scanner started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("timeout scanner stopped")
			return
		case <-t.C:
			sweepCtx, cancel := context.WithTimeout(ctx, interval)
			n, err := calls.RouteTimedOut(sweepCtx, "")
			cancel()
			if err != nil {
				log.Error("timeout sweep failed", "err", err)
				continue
			}
			if n > 0 {
				log.Info("routed expired rings", "count", n)
			}
		}
	}
}
