package verifyaccount

// Decision is the outcome of the login gate.
type Decision struct {
	Allowed    bool
	Notice     string
	ResendPath string
}

// Err returns nil for an allowed decision and ErrAwaitingVerification otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return ErrAwaitingVerification.WithDetail("resend_path", d.ResendPath)
}

// LoginGate blocks authentication for accounts that are not open. It runs
// before password and lockout checks and performs no I/O.
type LoginGate struct {
	resendPath string
}

// NewLoginGate creates a gate whose denials point at resendPath.
func NewLoginGate(resendPath string) *LoginGate {
	return &LoginGate{resendPath: resendPath}
}

// CheckVerified allows only open accounts. Every other status gets the same notice.
func (g *LoginGate) CheckVerified(account Account) Decision {
	if account.IsOpen() {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed:    false,
		Notice:     UnverifiedLoginNoticeMessage,
		ResendPath: g.resendPath,
	}
}
