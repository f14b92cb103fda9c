package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"finx-auth/internal/auth"
	"finx-auth/internal/auth/credentials"
	"finx-auth/internal/auth/resolver"

	"github.com/spf13/cobra"
)

func loginCmd(opts *globalOptions) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with email and password.

The password is read from stdin with --password-stdin, otherwise from the
FINX_PASSWORD environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("FINX_PASSWORD")
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			services, err := openServices(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer services.Close()

			user, err := services.State.Login(cmd.Context(), credentials.Credentials{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return errors.New(auth.Message(err))
			}

			return printResult(cmd, opts, user, func() string {
				return fmt.Sprintf("Signed in as %s <%s>", user.Name, user.Email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func logoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer services.Close()

			services.State.Logout(cmd.Context())

			return printResult(cmd, opts, map[string]string{"status": "signed_out"}, func() string {
				return "Signed out"
			})
		},
	}
}

type statusView struct {
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	User      *auth.User `json:"user,omitempty"`
}

func statusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without contacting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer services.Close()

			ctx := cmd.Context()
			view := statusView{Status: string(services.Manager.Status(ctx))}
			if expiry := services.Manager.TokenExpiry(ctx); !expiry.IsZero() {
				view.ExpiresAt = &expiry
			}
			if profile, err := services.Manager.StoredUser(ctx); err == nil && profile != nil {
				provider := auth.ProviderEmail
				if grant, err := services.Tokens.Grant(ctx); err == nil && grant != nil {
					provider = grant.Provider
				}
				view.User = resolver.UserFromProfile(*profile, provider)
			}

			return printResult(cmd, opts, view, func() string {
				var b strings.Builder
				fmt.Fprintf(&b, "Status:  %s", view.Status)
				if view.ExpiresAt != nil {
					fmt.Fprintf(&b, "\nExpires: %s", view.ExpiresAt.Local().Format(time.RFC1123))
				}
				if view.User != nil {
					fmt.Fprintf(&b, "\nUser:    %s <%s> (%s)", view.User.Name, view.User.Email, view.User.Provider)
				}
				return b.String()
			})
		},
	}
}

func tokenCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a valid access token, refreshing it when close to expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer services.Close()

			token, err := services.Manager.ValidAccessToken(cmd.Context())
			if err != nil {
				return err
			}
			if token == "" {
				return errors.New(auth.Message(auth.ErrNotAuthenticated))
			}

			return printResult(cmd, opts, map[string]string{"access_token": token}, func() string {
				return token
			})
		},
	}
}

func refreshCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new token pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer services.Close()

			if _, err := services.Manager.Refresh(cmd.Context()); err != nil {
				return errors.New(auth.Message(err))
			}
			expiry := services.Manager.TokenExpiry(cmd.Context())

			return printResult(cmd, opts, map[string]any{"status": "refreshed", "expires_at": expiry}, func() string {
				return "Refreshed, expires " + expiry.Local().Format(time.RFC1123)
			})
		},
	}
}

func whoamiCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Fetch the signed-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := openServices(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer services.Close()

			profile, err := services.Manager.CurrentUser(cmd.Context())
			if err != nil {
				return errors.New(auth.Message(err))
			}

			return printResult(cmd, opts, profile, func() string {
				name := profile.FullName()
				if name == "" {
					return fmt.Sprintf("%s (id %s)", profile.Email, profile.ID)
				}
				return fmt.Sprintf("%s <%s> (id %s)", name, profile.Email, profile.ID)
			})
		},
	}
}
