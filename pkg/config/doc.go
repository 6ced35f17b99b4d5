// Package config loads the service configuration from environment variables
// with cleanenv.
//
//	cfg, err := config.Load()
//	if err != nil {
//		slog.Error("Failed to read configuration", "error", err)
//		os.Exit(1)
//	}
//
//	store, err := verifyaccount.NewPostgresStore(pool, cfg.Verify.Tables())
//	service := verifyaccount.NewVerificationService(store, mailer, cfg.Verify.ServiceOptions()...)
//
// Durations accept both ISO8601 ("PT1H") and Go ("1h") syntax.
package config
