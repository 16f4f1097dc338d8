package app

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"flightprice-api/internal/auth"
	"flightprice-api/internal/db"
	"flightprice-api/internal/flight"
	"flightprice-api/internal/maintenance"
	"flightprice-api/internal/observability"
	"flightprice-api/internal/prediction"
	"flightprice-api/internal/ratelimit"
	"flightprice-api/internal/user"
)

const apiPrefix = "/api/v1"

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger("flightprice-api")

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	accessSecret, err := mustEnv("JWT_SECRET_KEY")
	if err != nil {
		return nil, err
	}
	refreshSecret, err := mustEnv("JWT_REFRESH_SECRET_KEY")
	if err != nil {
		return nil, err
	}
	serpAPIKey, err := mustEnv("SERP_API_KEY")
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	codec := auth.NewTokenCodec(
		accessSecret,
		refreshSecret,
		envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 30),
		envDaysOrDefault("REFRESH_TOKEN_TTL_DAYS", 7),
	)
	store := auth.NewRepository(database)
	authService := auth.NewService(store, codec)
	authHandler := auth.NewHandler(authService)
	userHandler := user.NewHandler(store)

	catalog, err := flight.NewCatalog()
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("load flight catalog: %w", err)
	}
	searchClient, err := flight.NewClient(serpAPIKey)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init flight search client: %w", err)
	}
	flightHandler := flight.NewHandler(catalog, searchClient)

	predictor, err := prediction.NewPredictor()
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("load prediction model: %w", err)
	}
	predictionHandler := prediction.NewHandler(predictor)

	// Each protected operation gets its own sliding window so budgets
	// never bleed across endpoints.
	maxCalls := envIntOrDefault("RATE_LIMIT_MAX_CALLS", 10)
	window := envSecondsOrDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	limiters := map[string]*ratelimit.Limiter{
		"ping":       ratelimit.NewLimiter(maxCalls, window),
		"sign_up":    ratelimit.NewLimiter(maxCalls, window),
		"sign_in":    ratelimit.NewLimiter(maxCalls, window),
		"refresh":    ratelimit.NewLimiter(maxCalls, window),
		"user":       ratelimit.NewLimiter(maxCalls, window),
		"prediction": ratelimit.NewLimiter(maxCalls, window),
	}

	sweepInterval := envMinutesOrDefault("RATE_LIMIT_SWEEP_MINUTES", 5)
	stops := make([]func(), 0, len(limiters))
	for _, limiter := range limiters {
		stops = append(stops, limiter.StartSweeper(sweepInterval))
	}

	pruneHandler := maintenance.NewPruneHandler(limiters, logger, os.Getenv("CRON_SECRET"))

	guarded := func(next http.HandlerFunc) http.Handler {
		return auth.Middleware(authService, next)
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+apiPrefix+"/ping", limiters["ping"].Middleware(http.HandlerFunc(pingHandler)))

	mux.Handle("POST "+apiPrefix+"/auth/signUp", limiters["sign_up"].Middleware(http.HandlerFunc(authHandler.SignUp)))
	mux.Handle("POST "+apiPrefix+"/auth/signIn", limiters["sign_in"].Middleware(http.HandlerFunc(authHandler.SignIn)))
	mux.Handle("POST "+apiPrefix+"/auth/refreshToken", limiters["refresh"].Middleware(http.HandlerFunc(authHandler.Refresh)))
	mux.Handle("GET "+apiPrefix+"/auth/me", guarded(authHandler.Me))

	mux.Handle("GET "+apiPrefix+"/user", limiters["user"].Middleware(guarded(userHandler.List)))
	mux.Handle("POST "+apiPrefix+"/user", limiters["user"].Middleware(guarded(userHandler.Create)))
	mux.Handle("GET "+apiPrefix+"/user/{id}", limiters["user"].Middleware(guarded(userHandler.Get)))
	mux.Handle("PUT "+apiPrefix+"/user/{id}", limiters["user"].Middleware(guarded(userHandler.Update)))
	mux.Handle("DELETE "+apiPrefix+"/user/{id}", limiters["user"].Middleware(guarded(userHandler.Delete)))

	mux.Handle("GET "+apiPrefix+"/flight-prices/destinations", guarded(flightHandler.Destinations))
	mux.Handle("GET "+apiPrefix+"/flight-prices/destinations/search", guarded(flightHandler.SearchDestinations))
	mux.Handle("GET "+apiPrefix+"/flight-prices/airlines", guarded(flightHandler.Airlines))
	mux.Handle("POST "+apiPrefix+"/flight-prices", guarded(flightHandler.Prices))

	mux.Handle("POST "+apiPrefix+"/prediction", limiters["prediction"].Middleware(guarded(predictionHandler.Predict)))
	mux.Handle("GET "+apiPrefix+"/prediction/charts/data", limiters["prediction"].Middleware(guarded(predictionHandler.ChartData)))

	mux.HandleFunc("GET /internal/maintenance/cleanup", pruneHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", pruneHandler.Handle)

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			for _, stop := range stops {
				stop()
			}
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "pong"})
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
