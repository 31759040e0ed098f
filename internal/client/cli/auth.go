package cli

import (
	"context"
	"log"
	"os"

	"github.com/ljthub/authcli/internal/common"
)

// getSimpleText, getPassword and getYesNo are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

// Register prompts for email, username and password and creates an
// account. On success the user is told to check their inbox: registration
// never authenticates, the account stays pending until the emailed token
// is redeemed with 'verify'.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.session.Register(ctx, email, username, string(password))
	if err != nil {
		log.Printf("Registration unsuccessful: %s", err.Error())
		return err
	}

	printlnFn("Account created for " + user.Username + ".")
	printlnFn("Check " + user.Email + " for a verification link, then run 'verify <token>'.")
	return nil
}

// Login prompts for credentials and the remember-me choice, then tries to
// establish a session.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	remember, err := getYesNo(a.reader, "Remember this session?", true, os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, username, string(password), remember); err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	log.Printf("Login successful")
	if st := a.session.Snapshot(); st.User != nil && !st.User.IsVerified {
		printlnFn("Your email is not verified yet. Run 'resend' to get a new verification link.")
	}
	return nil
}

// Logout destroys the current session.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	printlnFn("Logged out.")
	return nil
}
