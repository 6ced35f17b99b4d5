package verifyaccount

import "time"

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusUnverified AccountStatus = "unverified"
	StatusOpen       AccountStatus = "open"
	StatusClosed     AccountStatus = "closed"
)

// ParseAccountStatus converts a configured status value, rejecting unknown ones.
func ParseAccountStatus(s string) (AccountStatus, bool) {
	switch AccountStatus(s) {
	case StatusUnverified, StatusOpen, StatusClosed:
		return AccountStatus(s), true
	}
	return "", false
}

// Account is the subset of an account this package reads and mutates.
type Account struct {
	ID        int64         `json:"id"`
	Login     string        `json:"login"`
	Email     string        `json:"email"`
	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// IsOpen reports whether the account may authenticate.
func (a Account) IsOpen() bool {
	return a.Status == StatusOpen
}

// NewAccount holds the values needed to insert an account.
type NewAccount struct {
	Login        string
	Email        string
	Status       AccountStatus
	PasswordHash string
}

// VerificationRecord is the single pending verification key of an account.
type VerificationRecord struct {
	AccountID int64  `json:"account_id"`
	Key       string `json:"key"`
}
