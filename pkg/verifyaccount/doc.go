// Package verifyaccount holds new accounts in the unverified state until their
// owner presents the single-use key mailed to them.
//
// # Overview
//
// A key record is created once per account when the account is created
// unverified. The emailed link carries the token "<accountID>_<key>", split on
// the first underscore. Redeeming a matching token opens the account, deletes
// the record and runs the after-verify hooks in one transaction. The login gate
// refuses every account that is not open.
//
// # Basic Usage
//
//	store, _ := verifyaccount.NewStore("postgres", verifyaccount.StoreConfig{
//		Pool:   pool,
//		Tables: verifyaccount.DefaultTableConfig(),
//	})
//	service := verifyaccount.NewVerificationService(store, mailer,
//		verifyaccount.WithBaseURL("https://app.example.com"),
//		verifyaccount.WithAfterVerifyHook(verifyaccount.AuditHook(slog.Default())),
//	)
//
//	// After account creation
//	token, err := service.IssueOnAccountCreation(ctx, account)
//	if errors.Is(err, verifyaccount.ErrDeliveryFailure) {
//		// the account and its key exist, only the email failed
//	}
//
//	// When the link is followed
//	account, err := service.Redeem(ctx, token)
//	if errors.Is(err, verifyaccount.ErrInvalidToken) {
//		// malformed, unknown, mismatched or already used
//	}
//
//	// Before checking a password
//	if d := verifyaccount.NewLoginGate(service.VerifyPath()).CheckVerified(account); !d.Allowed {
//		return d.Err()
//	}
//
// # Errors
//
// Redeem reports every failed check as ErrInvalidToken so callers cannot
// discover which accounts or keys exist. ResendRequest reports unknown and
// already verified accounts as "not sent" rather than as an error.
// ErrDeliveryFailure and ErrPersistenceFailure wrap the underlying cause.
//
// The package does not log; AuditHook is an opt-in after-verify hook that does.
package verifyaccount
