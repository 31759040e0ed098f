package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ljthub/authcli/internal/client/services"
)

// Verify redeems an email verification token. The token comes from the
// command arguments or, if omitted, from an interactive prompt.
func (a *App) Verify(ctx context.Context, args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		t, err := getSimpleText(a.reader, "Enter verification token", os.Stdout)
		if err != nil {
			return err
		}
		token = t
	}

	if err := a.session.VerifyEmail(ctx, token); err != nil {
		log.Printf("Verification unsuccessful: %s", err.Error())
		return err
	}

	printlnFn("Email verified.")
	return nil
}

// Resend requests a new verification email. With an active session the
// request is made on the account's behalf; otherwise the address comes
// from the arguments or a prompt and the public endpoint is used.
func (a *App) Resend(ctx context.Context, args []string) error {
	var req services.ResendRequest
	if a.isLoggedIn() {
		req = services.ResendToAccount()
	} else {
		var email string
		if len(args) > 0 {
			email = args[0]
		} else {
			e, err := getSimpleText(a.reader, "Enter email", os.Stdout)
			if err != nil {
				return err
			}
			email = e
		}
		req = services.ResendToEmail(email)
	}

	if err := a.session.ResendVerification(ctx, req); err != nil {
		log.Printf("Resend unsuccessful: %s", err.Error())
		return err
	}

	printlnFn("Verification email sent.")
	return nil
}

// Whoami prints the current session's profile.
func (a *App) Whoami(ctx context.Context) error {
	st := a.session.Snapshot()
	if !st.IsAuthenticated || st.User == nil {
		printlnFn("Not logged in.")
		return nil
	}

	u := st.User
	verified := "no"
	if u.IsVerified {
		verified = "yes"
	}
	printlnFn(fmt.Sprintf("Username: %s", u.Username))
	printlnFn(fmt.Sprintf("Email:    %s", u.Email))
	printlnFn(fmt.Sprintf("Verified: %s", verified))
	printlnFn(fmt.Sprintf("Member since: %s", u.CreatedAt.Format("2006-01-02")))
	return nil
}
