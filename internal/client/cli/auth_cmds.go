package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ilmai/ilmcli/internal/client/api"
)

const minPasswordLen = 8

func newLoginCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()

			email, err := GetSimpleText(a.reader, "Enter email", cmd.OutOrStdout())
			if err != nil {
				return err
			}
			password, err := GetPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			token, err := a.Client.Login(ctx, email, string(password))
			if err != nil {
				return fmt.Errorf("login failed: %s", api.Detail(err, "invalid email or password"))
			}
			if !a.Auth.Login(ctx, token) {
				return fmt.Errorf("login failed: could not load profile")
			}

			profile := a.Auth.Profile()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", profile.Email)
			return nil
		},
	}
}

func newSignupCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			out := cmd.OutOrStdout()

			email, err := GetSimpleText(a.reader, "Enter email", out)
			if err != nil {
				return err
			}
			if email == "" || !strings.Contains(email, "@") {
				return fmt.Errorf("a valid email address is required")
			}
			fullName, err := GetSimpleText(a.reader, "Enter full name (optional)", out)
			if err != nil {
				return err
			}
			password, err := GetPassword(out)
			if err != nil {
				return err
			}
			if len(password) < minPasswordLen {
				return fmt.Errorf("password must be at least %d characters", minPasswordLen)
			}

			if err := a.Client.Signup(cmd.Context(), email, string(password), fullName); err != nil {
				return fmt.Errorf("signup failed: %s", api.Detail(err, "could not create account"))
			}
			fmt.Fprintln(out, "Account created. Run 'ilmcli login' to sign in.")
			return nil
		},
	}
}

func newLogoutCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app().Auth.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}
