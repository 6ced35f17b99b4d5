package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/simple-verify/pkg/config"
	"github.com/tendant/simple-verify/pkg/login"
	loginapi "github.com/tendant/simple-verify/pkg/login/api"
	"github.com/tendant/simple-verify/pkg/migrations"
	"github.com/tendant/simple-verify/pkg/notification"
	"github.com/tendant/simple-verify/pkg/session"
	"github.com/tendant/simple-verify/pkg/signup"
	signupapi "github.com/tendant/simple-verify/pkg/signup/api"
	"github.com/tendant/simple-verify/pkg/verifyaccount"
	verifyapi "github.com/tendant/simple-verify/pkg/verifyaccount/api"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	loadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}

	store, closeStore := openStore(cfg)
	defer closeStore()

	mailer, err := notification.NewMailer(cfg.Email.ToMailerConfig())
	if err != nil {
		slog.Error("Failed to initialize mailer", "provider", cfg.Email.Provider, "error", err)
		os.Exit(1)
	}

	sessionExpiry, _ := cfg.JWT.ParseSessionExpiry()
	sessions := session.NewManager(cfg.JWT.Secret,
		session.WithIssuer(cfg.JWT.Issuer),
		session.WithExpiry(sessionExpiry),
		session.WithCookieHttpOnly(cfg.JWT.CookieHttpOnly),
		session.WithCookieSecure(cfg.JWT.CookieSecure),
	)

	verifyOpts := append(cfg.Verify.ServiceOptions(),
		verifyaccount.WithAfterVerifyHook(verifyaccount.AuditHook(logger)),
	)
	verifyService := verifyaccount.NewVerificationService(store, mailer, verifyOpts...)

	initialStatus, _ := cfg.Verify.AccountStatus()
	signupService := signup.NewSignupService(store,
		signup.WithVerificationService(verifyService),
		signup.WithInitialStatus(initialStatus),
		signup.WithRegistrationEnabled(cfg.RegistrationEnabled),
	)

	gate := verifyaccount.NewLoginGate(verifyService.VerifyPath())
	loginService := login.NewLoginService(store, gate)

	server := app.DefaultApp()
	setupRoutes(server.R, cfg, verifyService, signupService, loginService, sessions)

	slog.Info("Verify service ready",
		"base_url", cfg.Verify.BaseURL,
		"verify_path", verifyService.VerifyPath(),
		"persistence", cfg.Persistence,
		"mail_provider", cfg.Email.Provider,
	)
	server.Run()
}

func setupRoutes(r *chi.Mux, cfg config.Config, verifyService *verifyaccount.VerificationService, signupService *signup.SignupService, loginService *login.LoginService, sessions *session.Manager) {
	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)

	jwtAuth := session.NewJWTAuth(cfg.JWT.Secret)

	verifyapi.NewHandle(verifyService,
		verifyapi.WithAutologin(cfg.Verify.Autologin),
		verifyapi.WithSessionStarter(sessions),
	).Routes(r)
	signupapi.NewHandle(signupService, jwtAuth, signupapi.WithSessionEnder(sessions)).RegisterRoutes(r)
	loginapi.NewHandle(loginService, sessions).Routes(r)
	session.Routes(r, jwtAuth)
}

func openStore(cfg config.Config) (verifyaccount.Store, func()) {
	if cfg.Persistence == config.PersistenceMemory {
		slog.Warn("Using in-memory persistence; data is lost on restart")
		store, _ := verifyaccount.NewStore(config.PersistenceMemory, verifyaccount.StoreConfig{})
		return store, func() {}
	}

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.Database.ToDatabaseURL()); err != nil {
			slog.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	dbConfig := cfg.Database.ToDbConfig()
	pool, err := dbutils.NewDbPool(context.Background(), dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		os.Exit(1)
	}

	store, err := verifyaccount.NewStore(config.PersistencePostgres, verifyaccount.StoreConfig{
		Pool:   pool,
		Tables: cfg.Verify.Tables(),
	})
	if err != nil {
		slog.Error("Failed to create store", "error", err)
		pool.Close()
		os.Exit(1)
	}
	slog.Info("Database connected", "database", dbConfig.Database)
	return store, closePool(pool)
}

func closePool(pool *pgxpool.Pool) func() {
	return pool.Close
}

// loadEnvFile loads environment variables from .env file if it exists
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	envFile := filepath.Join(cwd, ".env")
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Debug("No .env file found (using environment variables or defaults)")
		return
	}

	slog.Info("Loading configuration from .env file", "path", envFile)
	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}
}
