package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"github.com/vantra/vantra/application/usecase"
	"github.com/vantra/vantra/infrastructure/adapter/postgres"
	"github.com/vantra/vantra/infrastructure/config"
	"github.com/vantra/vantra/infrastructure/http/cookie"
	"github.com/vantra/vantra/infrastructure/http/handler"
	"github.com/vantra/vantra/infrastructure/http/middleware"
	"github.com/vantra/vantra/infrastructure/service/identity"
	"github.com/vantra/vantra/infrastructure/service/logger"
	"github.com/vantra/vantra/infrastructure/service/mailer"
	"github.com/vantra/vantra/infrastructure/service/nonceguard"
	"github.com/vantra/vantra/infrastructure/service/password"
	"github.com/vantra/vantra/infrastructure/service/registry"
	"github.com/vantra/vantra/infrastructure/service/token"
	"github.com/vantra/vantra/infrastructure/service/tracker"
)

func main() {
	ctx := context.Background()

	// Load configuration. A missing secret in production aborts here,
	// before any request can be served.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: cfg.ServiceName,
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":        cfg.Environment,
		"service_id": cfg.ServiceID,
	})

	var auditTracker tracker.Tracker
	if cfg.AuditTrackerEnabled {
		auditTracker = tracker.NewLoggerTracker(structuredLogger)
	} else {
		auditTracker = tracker.NewNoopTracker()
	}

	// Connect to database
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to connect to database", err, nil)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		structuredLogger.Error(ctx, "Failed to ping database", err, nil)
		log.Fatalf("Failed to ping database: %v", err)
	}
	structuredLogger.Info(ctx, "Database connection established", nil)

	// Service registry: file-sourced when configured, defaults otherwise.
	var serviceRegistry *registry.StaticRegistry
	if cfg.ServiceRegistryFile != "" {
		serviceRegistry, err = registry.LoadFromFile(cfg.ServiceRegistryFile)
		if err != nil {
			structuredLogger.Error(ctx, "Failed to load service registry", err, map[string]interface{}{
				"file": cfg.ServiceRegistryFile,
			})
			log.Fatalf("Failed to load service registry: %v", err)
		}
	} else {
		serviceRegistry = registry.NewStaticRegistry()
	}
	structuredLogger.Info(ctx, "Service registry loaded", map[string]interface{}{
		"services": len(serviceRegistry.List()),
	})

	// Nonce replay guard (Redis-backed or noop based on config)
	nonceGuard, err := nonceguard.New(nonceguard.Config{
		Enabled:  cfg.NonceGuardEnabled,
		RedisURL: cfg.RedisURL,
	}, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize nonce guard", err, nil)
		log.Fatalf("Failed to initialize nonce guard: %v", err)
	}

	// Core services
	tokenService, err := token.NewService(cfg)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize token service", err, nil)
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	serviceAuthenticator, err := identity.NewAuthenticator(cfg, serviceRegistry, nonceGuard)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize service authenticator", err, nil)
		log.Fatalf("Failed to initialize service authenticator: %v", err)
	}

	passwordService := password.NewBcryptPasswordService(10)

	// Reset notifications go to the notification pipeline when an
	// endpoint is configured, otherwise to the log-only fallback.
	var resetMailer handler.Mailer
	if cfg.MailerWebhookURL != "" {
		resetMailer = mailer.NewWebhookMailer(cfg.MailerWebhookURL, structuredLogger)
	} else {
		resetMailer = mailer.NewLogMailer(structuredLogger)
	}

	// Repositories
	userRepo := postgres.NewUserRepositoryAdapter(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepositoryAdapter(db, cfg.RefreshTokenSalt)

	// Use cases
	authUseCase := usecase.NewAuthUseCase(
		userRepo,
		refreshTokenRepo,
		tokenService,
		passwordService,
		structuredLogger,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	accountUseCase := usecase.NewAccountUseCase(
		userRepo,
		refreshTokenRepo,
		tokenService,
		passwordService,
		structuredLogger,
		cfg.SpecialTokenTTL,
	)

	// HTTP plumbing
	cookieManager := cookie.NewManager(cfg)
	authMiddleware := middleware.NewAuthMiddleware(tokenService, structuredLogger)
	serviceAuthMiddleware := middleware.NewServiceAuthMiddleware(serviceAuthenticator, cfg.ServiceID, structuredLogger)

	authHandler := handler.NewAuthHandler(authUseCase, cookieManager)
	accountHandler := handler.NewAccountHandler(accountUseCase, resetMailer)
	registryHandler := handler.NewRegistryHandler(serviceRegistry)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"healthy"}`)
	}).Methods(http.MethodGet)

	v1 := router.PathPrefix("/v1").Subrouter()

	// Pre-session endpoints: no cookie session exists yet, so the
	// double-submit check cannot apply.
	v1.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	v1.HandleFunc("/auth/password-reset", accountHandler.InitiatePasswordReset).Methods(http.MethodPost)
	v1.HandleFunc("/auth/password-reset/complete", accountHandler.CompletePasswordReset).Methods(http.MethodPost)
	v1.HandleFunc("/auth/verify-email", accountHandler.VerifyEmail).Methods(http.MethodPost)

	// Session endpoints: CSRF-protected on unsafe methods.
	session := v1.NewRoute().Subrouter()
	session.Use(middleware.CSRFProtect(cookieManager, structuredLogger))
	session.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost)
	session.HandleFunc("/auth/logout", authMiddleware.RequireAuth(authHandler.Logout)).Methods(http.MethodPost)
	session.HandleFunc("/auth/me", authMiddleware.RequireAuth(authHandler.Me)).Methods(http.MethodGet)

	// Service registry administration, gated on service permissions.
	v1.HandleFunc("/services", serviceAuthMiddleware.RequirePermission("registry:read")(registryHandler.List)).Methods(http.MethodGet)
	v1.HandleFunc("/services", serviceAuthMiddleware.RequirePermission("registry:write")(registryHandler.Register)).Methods(http.MethodPost)

	// Outer chain: correlation ids, CORS, service identity, then the
	// cookie-to-bearer bridge so browser and API clients share one
	// verification path.
	var h http.Handler = router
	h = middleware.CookieBridge(cookieManager)(h)
	h = serviceAuthMiddleware.Authenticate(h)
	if cfg.CORSEnabled && len(cfg.CORSAllowedOrigins) > 0 {
		h = middleware.CORS(h, cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials)
	}
	h = middleware.CorrelationID(h)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		structuredLogger.Info(ctx, "Starting server", map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			auditTracker.CaptureError(ctx, err, map[string]interface{}{
				"host": cfg.ServerHost,
				"port": cfg.ServerPort,
			})
			structuredLogger.Error(ctx, "Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Shutting down server...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}
