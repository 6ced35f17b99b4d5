// Package login provides password-based authentication for accounts.
//
// Login runs the verify-account login gate before any password check, so an
// unverified or closed account is refused with a pointer to the resend form.
//
//	gate := verifyaccount.NewLoginGate(verifyService.VerifyPath())
//	service := login.NewLoginService(store, gate)
//	account, err := service.Login(ctx, "user@example.com", "password123")
package login
