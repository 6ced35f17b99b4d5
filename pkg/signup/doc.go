// Package signup provides account registration and closure.
//
// New accounts start unverified by default. When a VerificationService is
// configured, the account and its verification key are created in one
// transaction and the email is sent after commit. Closing an account removes
// its pending key in the same transaction.
//
//	service := signup.NewSignupService(store,
//		signup.WithVerificationService(verifyService),
//		signup.WithInitialStatus(verifyaccount.StatusUnverified),
//	)
//	result, err := service.RegisterAccount(ctx, signup.RegisterRequest{
//		Email:    "user@example.com",
//		Password: "password123",
//	})
package signup
