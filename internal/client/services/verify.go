package services

import (
	"context"
	"fmt"
)

// ResendRequest selects how a verification email is re-requested: through
// the authenticated account, or to an explicit address via the public
// endpoint. Build one with ResendToAccount or ResendToEmail so the intent
// is stated by the caller, not inferred from which arguments happen to be
// present.
type ResendRequest struct {
	email     string
	toAccount bool
}

// ResendToAccount requests the resend for the logged-in account; the
// server infers the address from the bearer token.
func ResendToAccount() ResendRequest { return ResendRequest{toAccount: true} }

// ResendToEmail requests the resend for an explicit address through the
// public endpoint; no session is required.
func ResendToEmail(email string) ResendRequest { return ResendRequest{email: email} }

// VerifyEmail redeems a verification token. When a session is held, the
// profile is re-fetched afterwards so the verified flag is current, and
// re-persisted for remembered sessions. A failed refresh is logged, not
// surfaced: the verification itself succeeded. No session is ever created
// here.
func (m *SessionManager) VerifyEmail(ctx context.Context, token string) error {
	if err := m.api.VerifyEmail(ctx, token); err != nil {
		return fmt.Errorf("email verification error: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return nil
	}

	user, err := m.api.CurrentUser(ctx, m.token)
	if err != nil {
		m.log.Warn(ctx, "profile refresh after verification failed", "error", err)
		return nil
	}

	if m.remembered {
		if err := m.persistSession(ctx, m.token, user); err != nil {
			m.log.Warn(ctx, "failed to persist refreshed profile", "error", err)
		}
	}
	m.user = user
	return nil
}

// ResendVerification requests a new verification email. An account-scoped
// request without an active session, or an email-scoped request without an
// address, fails before any network call.
func (m *SessionManager) ResendVerification(ctx context.Context, req ResendRequest) error {
	if req.toAccount {
		m.mu.Lock()
		token := m.token
		m.mu.Unlock()

		if token == "" {
			return ErrNoSession
		}
		if err := m.api.ResendVerification(ctx, token); err != nil {
			return fmt.Errorf("resend error: %w", err)
		}
		return nil
	}

	if req.email == "" {
		return ErrNoEmail
	}
	if err := m.api.ResendVerificationPublic(ctx, req.email); err != nil {
		return fmt.Errorf("resend error: %w", err)
	}
	return nil
}
