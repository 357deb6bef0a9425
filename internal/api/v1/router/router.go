package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"focus/internal/api/v1/handler"
	"focus/internal/cache"
	"focus/internal/config"
	"focus/internal/ledger"
	"focus/internal/mailer"
	"focus/internal/metrics"
	"focus/internal/middleware"
	"focus/internal/repository"
	"focus/internal/scheduler"
	"focus/internal/service"
	"focus/internal/ws"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Deps holds the long-lived resources the router creates. The caller owns
// their shutdown.
type Deps struct {
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Scheduler *scheduler.Scheduler
}

// Close releases the database and Redis connections.
func (d *Deps) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}

// New builds the full HTTP handler tree and its backing services.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *Deps, error) {
	loc := cfg.Location()

	// 1. Open the database pool.
	dsn := cfg.DBConnectionString
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("database connection successful")

	// 2. Connect to Redis for the usage ledger and the cache.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connection successful")

	deps := &Deps{Pool: pool, Redis: rdb}

	// 3. Shared infrastructure.
	validate := validator.New(validator.WithRequiredStructEnabled())
	usageLedger := ledger.NewRedisLedger(rdb, loc)
	appCache := cache.New(rdb, cfg.CacheTTL(), logger)
	registry := ws.NewRegistry(logger)
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom, cfg.FrontendURL, logger)

	// 4. Repositories.
	userRepo := repository.NewUserRepo(pool)
	activityRepo := repository.NewActivityRepo(pool)
	blockedRepo := repository.NewBlockedAppRepo(pool)
	challengeRepo := repository.NewChallengeRepo(pool)
	logRepo := repository.NewLogRepo(pool)

	// 5. Services.
	auditSvc := service.NewLogService(logRepo, logger)
	authSvc := service.NewAuthService(userRepo, mail, auditSvc, cfg, logger)
	userSvc := service.NewUserService(userRepo, auditSvc)
	engine := service.NewBlockDecisionEngine(usageLedger, blockedRepo, logger)
	activitySvc := service.NewActivityService(activityRepo, blockedRepo, engine, registry, appCache, auditSvc, loc, logger)
	blockedSvc := service.NewBlockedAppService(blockedRepo, usageLedger, auditSvc, loc, logger)
	challengeSvc := service.NewChallengeService(challengeRepo, activityRepo, registry, auditSvc, logger)
	adminSvc := service.NewAdminService(userRepo, activityRepo, logRepo, registry, auditSvc)

	// 6. Handlers.
	authHandler := handler.NewAuthHandler(authSvc, validate, logger)
	userHandler := handler.NewUserHandler(userSvc, validate, logger)
	activityHandler := handler.NewActivityHandler(activitySvc, validate, logger)
	blockedHandler := handler.NewBlockedAppHandler(blockedSvc, validate, logger)
	challengeHandler := handler.NewChallengeHandler(challengeSvc, validate, logger)
	adminHandler := handler.NewAdminHandler(adminSvc, logger)

	idleTimeout := time.Duration(cfg.ChannelIdleTimeoutSec) * time.Second
	heartbeat := time.Duration(cfg.HeartbeatIntervalSec) * time.Second
	wsHandler := ws.NewHandler(registry, authSvc, idleTimeout, heartbeat, logger)

	// 7. Middleware.
	authMw := middleware.AuthMiddleware(authSvc, logger)
	adminMw := middleware.AdminMiddleware(auditSvc)

	// 8. Routes.
	apiV1Mux := http.NewServeMux()
	authHandler.RegisterRoutes(apiV1Mux)
	userHandler.RegisterRoutes(apiV1Mux, authMw)
	activityHandler.RegisterRoutes(apiV1Mux, authMw)
	blockedHandler.RegisterRoutes(apiV1Mux, authMw)
	challengeHandler.RegisterRoutes(apiV1Mux, authMw)
	adminHandler.RegisterRoutes(apiV1Mux, authMw, adminMw)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	// Websocket auth rides in the query string, not the Authorization header.
	mux.Handle("/v1/ws", wsHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// 9. Recurring jobs.
	deps.Scheduler = scheduler.New(
		blockedSvc, challengeSvc, activityRepo, userRepo, registry, mail, auditSvc,
		idleTimeout, time.Duration(cfg.SweepIntervalSec)*time.Second, loc, logger,
	)

	// 10. CORS.
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), deps, nil
}
