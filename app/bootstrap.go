package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"forkful/internal/auth"
	"forkful/internal/clock"
	"forkful/internal/config"
	"forkful/internal/db"
	"forkful/internal/food"
	"forkful/internal/observability"
)

const welcomeMessage = "Welcome to the Forkful api!"

type Options struct {
	LoadDotEnv bool
	// RunMigrations overrides RUN_MIGRATIONS_ON_STARTUP when set.
	RunMigrations *bool
}

type Runtime struct {
	Addr    string
	Handler http.Handler
	Logger  *observability.Logger
	Close   func() error
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependencies is everything NewHandler needs to build the route table.
type Dependencies struct {
	Logger            *observability.Logger
	Credentials       auth.CredentialStore
	Foods             food.Store
	Hasher            auth.PasswordHasher
	Tokens            *auth.TokenManager
	Health            Pinger
	Clock             clock.Clock
	ProtectedPrefixes []string
	LoginRateLimitMax int
	LoginRateWindow   time.Duration
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if options.RunMigrations != nil {
		cfg.RunMigrations = *options.RunMigrations
	}

	logger := observability.NewLogger(observability.LoggerOptions{Level: cfg.LogLevel, File: cfg.LogFile})

	if err := observability.InitSentry(observability.SentryOptions{DSN: cfg.SentryDSN, Environment: cfg.AppEnv}); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	closeAll := func() error {
		observability.FlushSentry(2 * time.Second)
		dbErr := database.Close()
		if logErr := logger.Close(); dbErr == nil {
			dbErr = logErr
		}
		return dbErr
	}

	if cfg.RunMigrations {
		if _, err := db.RunMigrations(context.Background(), database, logger); err != nil {
			_ = closeAll()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	clk := clock.NewRealClock()
	tokens, err := auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.Algorithm, cfg.JWT.TokenTTL, clk)
	if err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	deps := Dependencies{
		Logger:            logger,
		Credentials:       auth.NewRepository(database),
		Foods:             food.NewRepository(database),
		Hasher:            auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens:            tokens,
		Health:            database,
		Clock:             clk,
		ProtectedPrefixes: cfg.ProtectedPrefixes,
		LoginRateLimitMax: cfg.LoginRateLimitMax,
		LoginRateWindow:   cfg.LoginRateLimitWindow,
	}

	seeder := auth.NewService(deps.Credentials, deps.Hasher, tokens)
	if err := seeder.BootstrapFromEnv(context.Background(), cfg.Seed.Username, cfg.Seed.Email, cfg.Seed.Password); err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("bootstrap seed user: %w", err)
	}

	logger.Info("app_ready", map[string]any{
		"env":                cfg.AppEnv,
		"jwt_algorithm":      cfg.JWT.Algorithm,
		"token_ttl_minutes":  int(cfg.JWT.TokenTTL.Minutes()),
		"protected_prefixes": cfg.ProtectedPrefixes,
	})

	return &Runtime{
		Addr:    cfg.Addr(),
		Handler: NewHandler(deps),
		Logger:  logger,
		Close:   closeAll,
	}, nil
}

func openDatabase(cfg config.Config) (*sql.DB, error) {
	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	database.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	database.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return database, nil
}

// NewHandler builds the route table. Paths under the protected prefixes go through the
// request gate before reaching the mux.
func NewHandler(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	authService := auth.NewService(deps.Credentials, deps.Hasher, deps.Tokens)
	authHandler := auth.NewHandler(authService)
	foodHandler := food.NewHandler(deps.Foods)
	loginLimiter := auth.NewLoginRateLimiter(deps.LoginRateLimitMax, deps.LoginRateWindow, deps.Clock)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", rootHandler)
	mux.HandleFunc("GET /health", healthHandler(deps.Health))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("POST /users", authHandler.Register)
	mux.HandleFunc("GET /users/me", authHandler.Me)

	mux.HandleFunc("GET /api/foods", foodHandler.ListFoods)
	mux.HandleFunc("GET /api/foods/{id}", foodHandler.GetFood)
	mux.HandleFunc("POST /api/foods", foodHandler.CreateFood)
	mux.HandleFunc("PUT /api/foods/{id}", foodHandler.UpdateFood)
	mux.HandleFunc("DELETE /api/foods/{id}", foodHandler.DeleteFood)

	gated := auth.Gate(deps.Tokens, deps.ProtectedPrefixes, mux)
	return observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, gated))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func healthHandler(database Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if database != nil {
			if err := database.PingContext(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}

		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func BoolOption(value bool) *bool {
	return &value
}
