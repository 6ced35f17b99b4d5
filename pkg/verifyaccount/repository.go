package verifyaccount

import (
	"context"
	"fmt"
	"regexp"
)

// AccountRepository is the account persistence this package depends on.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account NewAccount) (Account, error)
	FindAccountByID(ctx context.Context, id int64) (Account, error)
	FindAccountByLogin(ctx context.Context, login string) (Account, error)
	FindPasswordHash(ctx context.Context, id int64) (string, error)
	// TransitionAccountStatus moves the account from one status to another and
	// reports false when the account is missing or not in the from status.
	TransitionAccountStatus(ctx context.Context, id int64, from, to AccountStatus) (bool, error)
	UpdateAccountStatus(ctx context.Context, id int64, status AccountStatus) error
}

// TokenStore persists at most one verification key per account.
type TokenStore interface {
	// EnsureVerificationKey stores candidate when the account has no key yet and
	// returns the key that is stored afterwards. Concurrent callers for the same
	// account all observe the same key.
	EnsureVerificationKey(ctx context.Context, accountID int64, candidate string) (string, error)
	LookupVerificationKey(ctx context.Context, accountID int64) (string, bool, error)
	// ReplaceVerificationKey overwrites an existing key. It reports false when
	// the account has no key.
	ReplaceVerificationKey(ctx context.Context, accountID int64, key string) (bool, error)
	DeleteVerificationKey(ctx context.Context, accountID int64) error
}

// Store combines both repositories behind one transaction boundary.
type Store interface {
	AccountRepository
	TokenStore
	// InTx runs fn inside a transaction. fn must use the Store it is given.
	// Nested calls join the outer transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// TableConfig names the tables and columns used by the SQL store.
type TableConfig struct {
	VerifyTable     string
	VerifyIDColumn  string
	VerifyKeyColumn string
	AccountsTable   string
}

// DefaultTableConfig returns the schema created by the bundled migrations.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		VerifyTable:     "account_verification_keys",
		VerifyIDColumn:  "id",
		VerifyKeyColumn: "key",
		AccountsTable:   "accounts",
	}
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Validate rejects names that are not plain SQL identifiers.
func (c TableConfig) Validate() error {
	for name, value := range map[string]string{
		"verify table":      c.VerifyTable,
		"verify id column":  c.VerifyIDColumn,
		"verify key column": c.VerifyKeyColumn,
		"accounts table":    c.AccountsTable,
	} {
		if !identifierPattern.MatchString(value) {
			return fmt.Errorf("invalid %s name: %q", name, value)
		}
	}
	return nil
}
