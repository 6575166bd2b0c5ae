package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	server     string
	sessionDB  string
}

// NewRootCmd builds the command tree. factory is called once per invocation,
// after flags are parsed.
func NewRootCmd(factory AuthFactory) *cobra.Command {
	flags := &rootFlags{}
	app := &App{factory: factory}

	cmd := &cobra.Command{
		Use:           "gophauth-client",
		Short:         "Command line client for the gophauth service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (JSON or YAML)")
	cmd.PersistentFlags().StringVarP(&flags.server, "server", "a", "", "gRPC endpoint host:port")
	cmd.PersistentFlags().StringVar(&flags.sessionDB, "session", "", "path of the local session database")

	cmd.AddCommand(
		app.newRegisterCmd(),
		app.newLoginCmd(),
		app.newRefreshCmd(),
		app.newWhoAmICmd(),
		app.newLogoutCmd(),
		app.newPingCmd(),
	)
	for _, sub := range cmd.Commands() {
		run := sub.RunE
		sub.RunE = func(c *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := app.closeAuth(); err == nil {
					err = cerr
				}
			}()
			return run(c, args)
		}
	}
	return cmd
}

func (a *App) closeAuth() error {
	if a.auth == nil {
		return nil
	}
	err := a.auth.Close()
	a.auth = nil
	return err
}

func (a *App) init(cmd *cobra.Command, flags *rootFlags) error {
	if !needsAuth(cmd) {
		return nil
	}

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	if flags.server != "" {
		cfg.ServerEndpointAddr = flags.server
	}
	if flags.sessionDB != "" {
		cfg.SessionDBPath = flags.sessionDB
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	auth, err := a.factory(ctx, cfg)
	if err != nil {
		return err
	}

	a.config = cfg
	a.auth = auth
	a.reader = bufio.NewReader(cmd.InOrStdin())
	return nil
}

// needsAuth is false for cobra's built-in help and completion commands.
func needsAuth(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}

func (a *App) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) newRegisterCmd() *cobra.Command {
	var userName, firstName string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if userName == "" {
				var err error
				if userName, err = GetSimpleText(a.reader, "Enter user name", out); err != nil {
					return err
				}
			}
			password, err := GetPassword(a.reader, out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			user, err := a.auth.Register(ctx, userName, password, firstName)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Signup successful: %s (%s)\n", user.UserName, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userName, "user", "u", "", "user name (prompted when empty)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	return cmd
}

func (a *App) newLoginCmd() *cobra.Command {
	var userName string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if userName == "" {
				var err error
				if userName, err = GetSimpleText(a.reader, "Enter user name", out); err != nil {
					return err
				}
			}
			password, err := GetPassword(a.reader, out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			if err := a.auth.Login(ctx, userName, password); err != nil {
				return err
			}
			fmt.Fprintln(out, "Login successful")
			return nil
		},
	}
	cmd.Flags().StringVarP(&userName, "user", "u", "", "user name (prompted when empty)")
	return cmd
}

func (a *App) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the saved refresh token for a new session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			s, err := a.auth.Refresh(ctx)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session refreshed, access token valid until %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func (a *App) newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			u, err := a.auth.WhoAmI(ctx)
			if err != nil {
				return explain(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:         %s\n", u.ID)
			fmt.Fprintf(out, "user:       %s\n", u.UserName)
			fmt.Fprintf(out, "first name: %s\n", u.FirstName)
			if !u.CreatedAt.IsZero() {
				fmt.Fprintf(out, "created at: %s\n", u.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			if err := a.auth.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *App) newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd)
			defer cancel()

			if err := a.auth.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

// explain turns session errors into advice for the user.
func explain(err error) error {
	switch {
	case errors.Is(err, session.ErrNoSession):
		return errors.New("not logged in, run 'gophauth-client login' first")
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrTokenExpired):
		return fmt.Errorf("session is no longer valid, log in again: %w", err)
	default:
		return err
	}
}
