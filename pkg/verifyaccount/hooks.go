package verifyaccount

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// AfterVerifyHook runs inside the verification transaction. Returning an
// error rolls the verification back.
type AfterVerifyHook func(ctx context.Context, tx Store, account Account) error

// AfterCloseHook runs inside the account-closure transaction.
type AfterCloseHook func(ctx context.Context, tx Store, accountID int64) error

// AuditHook logs every completed verification.
func AuditHook(logger *slog.Logger) AfterVerifyHook {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, tx Store, account Account) error {
		logger.InfoContext(ctx, "Account verified",
			"event_id", uuid.NewString(),
			"account_id", account.ID,
			"login", account.Login,
		)
		return nil
	}
}
