package verifyaccount

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresQueries struct {
	insertKey      string
	selectKey      string
	lockKey        string
	updateKey      string
	deleteKey      string
	insertAccount  string
	selectByID     string
	selectByLogin  string
	selectPassword string
	transition     string
	updateStatus   string
}

func buildQueries(tables TableConfig) postgresQueries {
	vt := pgx.Identifier{tables.VerifyTable}.Sanitize()
	vid := pgx.Identifier{tables.VerifyIDColumn}.Sanitize()
	vkey := pgx.Identifier{tables.VerifyKeyColumn}.Sanitize()
	at := pgx.Identifier{tables.AccountsTable}.Sanitize()

	return postgresQueries{
		insertKey: fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT (%s) DO NOTHING`, vt, vid, vkey, vid),
		selectKey: fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, vkey, vt, vid),
		lockKey:   fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`, vkey, vt, vid),
		updateKey: fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, vt, vkey, vid),
		deleteKey: fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, vt, vid),
		insertAccount: fmt.Sprintf(`INSERT INTO %s (login, email, status, password_hash)
			VALUES ($1, $2, $3, $4)
			RETURNING id, login, email, status, created_at`, at),
		selectByID:     fmt.Sprintf(`SELECT id, login, email, status, created_at FROM %s WHERE id = $1`, at),
		selectByLogin:  fmt.Sprintf(`SELECT id, login, email, status, created_at FROM %s WHERE login = $1`, at),
		selectPassword: fmt.Sprintf(`SELECT password_hash FROM %s WHERE id = $1`, at),
		transition:     fmt.Sprintf(`UPDATE %s SET status = $3 WHERE id = $1 AND status = $2`, at),
		updateStatus:   fmt.Sprintf(`UPDATE %s SET status = $2 WHERE id = $1`, at),
	}
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	pool    *pgxpool.Pool
	db      dbtx
	queries postgresQueries
}

// NewPostgresStore creates a PostgreSQL store using the given table names.
func NewPostgresStore(pool *pgxpool.Pool, tables TableConfig) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &PostgresStore{
		pool:    pool,
		db:      pool,
		queries: buildQueries(tables),
	}, nil
}

// InTx runs fn in a transaction. A store that is already bound to a
// transaction runs fn directly.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&PostgresStore{db: tx, queries: s.queries})
	})
}

// EnsureVerificationKey inserts candidate unless a key exists and returns the stored key.
// ON CONFLICT DO NOTHING waits for a concurrent insert of the same id to
// finish, so the follow-up select always sees the winning row.
func (s *PostgresStore) EnsureVerificationKey(ctx context.Context, accountID int64, candidate string) (string, error) {
	var key string
	err := s.InTx(ctx, func(tx Store) error {
		db := tx.(*PostgresStore).db
		if _, err := db.Exec(ctx, s.queries.insertKey, accountID, candidate); err != nil {
			return fmt.Errorf("insert verification key: %w", err)
		}
		if err := db.QueryRow(ctx, s.queries.selectKey, accountID).Scan(&key); err != nil {
			return fmt.Errorf("select verification key: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// LookupVerificationKey returns the stored key for an account. Inside a
// transaction the row stays locked until commit, so a concurrent rotation
// waits for the redeem that read it.
func (s *PostgresStore) LookupVerificationKey(ctx context.Context, accountID int64) (string, bool, error) {
	query := s.queries.selectKey
	if s.pool == nil {
		query = s.queries.lockKey
	}
	var key string
	err := s.db.QueryRow(ctx, query, accountID).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select verification key: %w", err)
	}
	return key, true, nil
}

// ReplaceVerificationKey overwrites the key of an account.
func (s *PostgresStore) ReplaceVerificationKey(ctx context.Context, accountID int64, key string) (bool, error) {
	tag, err := s.db.Exec(ctx, s.queries.updateKey, accountID, key)
	if err != nil {
		return false, fmt.Errorf("update verification key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteVerificationKey removes the key of an account, if any.
func (s *PostgresStore) DeleteVerificationKey(ctx context.Context, accountID int64) error {
	if _, err := s.db.Exec(ctx, s.queries.deleteKey, accountID); err != nil {
		return fmt.Errorf("delete verification key: %w", err)
	}
	return nil
}

// CreateAccount inserts a new account.
func (s *PostgresStore) CreateAccount(ctx context.Context, account NewAccount) (Account, error) {
	created, err := scanAccount(s.db.QueryRow(ctx, s.queries.insertAccount,
		account.Login, account.Email, string(account.Status), account.PasswordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Account{}, ErrLoginTaken
		}
		return Account{}, fmt.Errorf("insert account: %w", err)
	}
	return created, nil
}

// FindAccountByID retrieves an account by id.
func (s *PostgresStore) FindAccountByID(ctx context.Context, id int64) (Account, error) {
	account, err := scanAccount(s.db.QueryRow(ctx, s.queries.selectByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("select account: %w", err)
	}
	return account, nil
}

// FindAccountByLogin retrieves an account by login identifier.
func (s *PostgresStore) FindAccountByLogin(ctx context.Context, login string) (Account, error) {
	account, err := scanAccount(s.db.QueryRow(ctx, s.queries.selectByLogin, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("select account by login: %w", err)
	}
	return account, nil
}

// FindPasswordHash returns the stored password hash of an account.
func (s *PostgresStore) FindPasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	if err := s.db.QueryRow(ctx, s.queries.selectPassword, id).Scan(&hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("select password hash: %w", err)
	}
	return hash, nil
}

// TransitionAccountStatus performs a compare-and-set on the status column.
// A concurrent transition of the same row blocks on the row lock and then
// re-checks the status, so only one caller wins.
func (s *PostgresStore) TransitionAccountStatus(ctx context.Context, id int64, from, to AccountStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, s.queries.transition, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("transition account status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateAccountStatus sets the status unconditionally.
func (s *PostgresStore) UpdateAccountStatus(ctx context.Context, id int64, status AccountStatus) error {
	tag, err := s.db.Exec(ctx, s.queries.updateStatus, id, string(status))
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var status string
	if err := row.Scan(&a.ID, &a.Login, &a.Email, &status, &a.CreatedAt); err != nil {
		return Account{}, err
	}
	a.Status = AccountStatus(status)
	return a, nil
}
