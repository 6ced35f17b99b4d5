package config

import (
	"fmt"

	"github.com/tendant/simple-verify/pkg/verifyaccount"
)

// VerifyConfig configures account verification
type VerifyConfig struct {
	Autologin         bool   `env:"VERIFY_AUTOLOGIN" env-default:"false"`
	KeyParam          string `env:"VERIFY_KEY_PARAM" env-default:"key"`
	Table             string `env:"VERIFY_TABLE" env-default:"account_verification_keys"`
	IDColumn          string `env:"VERIFY_ID_COLUMN" env-default:"id"`
	KeyColumn         string `env:"VERIFY_KEY_COLUMN" env-default:"key"`
	EmailSubject      string `env:"VERIFY_EMAIL_SUBJECT" env-default:"Verify Account"`
	Route             string `env:"VERIFY_ROUTE" env-default:"verify-account"`
	Prefix            string `env:"VERIFY_PREFIX" env-default:""`
	BaseURL           string `env:"BASE_URL" env-default:"http://localhost:4000"`
	InitialStatus     string `env:"VERIFY_INITIAL_STATUS" env-default:"unverified"`
	RotateKeyOnResend bool   `env:"VERIFY_ROTATE_KEY_ON_RESEND" env-default:"false"`
	AccountsTable     string `env:"ACCOUNTS_TABLE" env-default:"accounts"`
}

// Tables returns the table and column names used by the SQL store
func (v VerifyConfig) Tables() verifyaccount.TableConfig {
	return verifyaccount.TableConfig{
		VerifyTable:     v.Table,
		VerifyIDColumn:  v.IDColumn,
		VerifyKeyColumn: v.KeyColumn,
		AccountsTable:   v.AccountsTable,
	}
}

// AccountStatus parses InitialStatus
func (v VerifyConfig) AccountStatus() (verifyaccount.AccountStatus, error) {
	status, ok := verifyaccount.ParseAccountStatus(v.InitialStatus)
	if !ok || status == verifyaccount.StatusClosed {
		return "", fmt.Errorf("invalid VERIFY_INITIAL_STATUS: %q", v.InitialStatus)
	}
	return status, nil
}

// ServiceOptions converts the config to VerificationService options
func (v VerifyConfig) ServiceOptions() []verifyaccount.VerificationServiceOption {
	return []verifyaccount.VerificationServiceOption{
		verifyaccount.WithBaseURL(v.BaseURL),
		verifyaccount.WithPrefix(v.Prefix),
		verifyaccount.WithRoute(v.Route),
		verifyaccount.WithKeyParam(v.KeyParam),
		verifyaccount.WithEmailSubject(v.EmailSubject),
		verifyaccount.WithRotateKeyOnResend(v.RotateKeyOnResend),
	}
}
