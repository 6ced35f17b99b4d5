package login

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	idmerrors "github.com/tendant/simple-verify/pkg/errors"
	"github.com/tendant/simple-verify/pkg/verifyaccount"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*LoginService, *verifyaccount.InMemoryStore) {
	t.Helper()
	store := verifyaccount.NewInMemoryStore()
	hasher := &BcryptHasher{Cost: bcrypt.MinCost}

	for login, status := range map[string]verifyaccount.AccountStatus{
		"open@example.com":       verifyaccount.StatusOpen,
		"unverified@example.com": verifyaccount.StatusUnverified,
		"closed@example.com":     verifyaccount.StatusClosed,
	} {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		_, err = store.CreateAccount(context.Background(), verifyaccount.NewAccount{
			Login:        login,
			Email:        login,
			Status:       status,
			PasswordHash: hash,
		})
		require.NoError(t, err)
	}

	gate := verifyaccount.NewLoginGate("/verify-account")
	return NewLoginService(store, gate, WithPasswordHasher(hasher)), store
}

func TestLoginService_Login(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	t.Run("OpenAccount", func(t *testing.T) {
		account, err := service.Login(ctx, "open@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "open@example.com", account.Login)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := service.Login(ctx, "open@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownLogin", func(t *testing.T) {
		_, err := service.Login(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnverifiedRefusedBeforePasswordCheck", func(t *testing.T) {
		_, err := service.Login(ctx, "unverified@example.com", "wrong")
		assert.ErrorIs(t, err, verifyaccount.ErrAwaitingVerification)
		assert.Equal(t, "/verify-account", idmerrors.GetDetails(err)["resend_path"])
	})

	t.Run("ClosedRefused", func(t *testing.T) {
		_, err := service.Login(ctx, "closed@example.com", "password123")
		assert.ErrorIs(t, err, verifyaccount.ErrAwaitingVerification)
	})
}

func TestBcryptHasher(t *testing.T) {
	hasher := &BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := hasher.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	ok, err := hasher.Verify("secret", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("other", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = hasher.Verify("secret", "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = hasher.Hash("")
	assert.Error(t, err)
}
