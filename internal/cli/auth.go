package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Pradeepvanguru/Testing-Tool/internal/apiclient"
	"github.com/Pradeepvanguru/Testing-Tool/internal/models"

	"github.com/spf13/cobra"
)

var errMissingCredentials = errors.New("please fill in all fields")

// password returns the flag value, falling back to TESTDESK_PASSWORD.
func password(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("TESTDESK_PASSWORD")
}

func (c *Commands) loginCommand() *cobra.Command {
	var email, pass string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pass = password(pass)
			if strings.TrimSpace(email) == "" || pass == "" {
				return errMissingCredentials
			}
			client, store := c.connect(c.log())
			res, err := client.Login(cmd.Context(), strings.TrimSpace(email), pass)
			if err != nil {
				return err
			}
			if err := store.Login(res.Token, res.User); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", userLabel(res.User))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "Account password (env TESTDESK_PASSWORD)")
	return cmd
}

func (c *Commands) signupCommand() *cobra.Command {
	var username, email, pass string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pass = password(pass)
			if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || pass == "" {
				return errMissingCredentials
			}
			client, store := c.connect(c.log())
			res, err := client.Register(cmd.Context(), strings.TrimSpace(username), strings.TrimSpace(email), pass)
			if err != nil {
				return err
			}
			if err := store.Login(res.Token, res.User); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", userLabel(res.User))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "Account password (env TESTDESK_PASSWORD)")
	return cmd
}

func (c *Commands) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, store := c.connect(c.log())
			store.Init(cmd.Context())
			if store.Token() != "" {
				// The local token is dropped even when the server is unreachable.
				if err := client.Logout(cmd.Context()); err != nil && !apiclient.IsUnauthorized(err) {
					c.log().Warn("Server logout failed", "err", err)
				}
			}
			if err := store.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *Commands) profileCommand() *cobra.Command {
	var username, email, current, next string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, store, err := c.authenticated(cmd.Context())
			if err != nil {
				return err
			}
			user := store.User()

			if username != "" || email != "" {
				if username == "" {
					username = user.Username
				}
				if email == "" {
					email = user.Email
				}
				if user, err = client.UpdateProfile(cmd.Context(), username, email); err != nil {
					return err
				}
			}
			if next != "" {
				if err := client.ChangePassword(cmd.Context(), current, next); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:     %s\n", user.Username)
			fmt.Fprintf(out, "Email:    %s\n", user.Email)
			fmt.Fprintf(out, "ID:       %s\n", user.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&current, "current-password", "", "Current password, required with --new-password")
	cmd.Flags().StringVar(&next, "new-password", "", "New password")
	return cmd
}

func userLabel(u *models.User) string {
	if u == nil {
		return "unknown user"
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
