// Package api implements the client for the remote auth API: login,
// profile fetch, registration, and the email verification endpoints.
package api

import (
	"context"

	"github.com/ljthub/authcli/internal/client/models"
)

// Client defines the auth API operations used by the session manager.
//
// Contract:
//   - Login: exchange credentials for a bearer access token.
//   - CurrentUser: fetch the profile the token authenticates; this is also
//     how a stored token is validated.
//   - Register: create an account; does not authenticate the caller.
//   - VerifyEmail: redeem an email verification token.
//   - ResendVerification: ask for a new verification email for the account
//     identified by the bearer token.
//   - ResendVerificationPublic: same, for an explicit address, without
//     authentication.
//
// All methods honor context cancellation.
type Client interface {
	Login(ctx context.Context, username, password string) (string, error)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	Register(ctx context.Context, email, username, password string) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, token string) error
	ResendVerificationPublic(ctx context.Context, email string) error
}
