package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rhuss/basicgate/pkg/auth"
	"github.com/rhuss/basicgate/pkg/auth/basic"
	"github.com/rhuss/basicgate/pkg/config"
	"github.com/rhuss/basicgate/pkg/debug"
	"github.com/rhuss/basicgate/pkg/gateway"
	"github.com/rhuss/basicgate/pkg/password"
	"github.com/rhuss/basicgate/pkg/userstore"
)

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "userctl",
		Short:         "Manage basicgate users",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file")

	root.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newHashCmd(),
		newCheckCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// withStore loads config, opens the store and runs fn.
func withStore(ctx context.Context, opts *options, fn func(*config.Config, userstore.Repository) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	debug.Init(cfg.Log.Debug, cfg.Log.Level)

	repo, closeStore, err := gateway.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(cfg, repo)
}

func newAddCmd(opts *options) *cobra.Command {
	var first, last string

	cmd := &cobra.Command{
		Use:   "add EMAIL PASSWORD",
		Short: "Add a user to the configured store",
		Long: `Add a user to the configured store.

The memory store only lives for the duration of the command, so add is
mostly useful with storage.type=postgres.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(_ *config.Config, repo userstore.Repository) error {
				u, err := userstore.NewUser(args[0], args[1])
				if err != nil {
					return err
				}
				u.FirstName, u.LastName = first, last
				if err := repo.Save(cmd.Context(), u); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u.ID())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&first, "first-name", "", "First name")
	cmd.Flags().StringVar(&last, "last-name", "", "Last name")
	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(_ *config.Config, repo userstore.Repository) error {
				users, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				return printUsers(cmd.OutOrStdout(), users, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printUsers(w io.Writer, users []*userstore.User, asJSON bool) error {
	if asJSON {
		if users == nil {
			users = []*userstore.User{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID(), u.Email(), u.DisplayName(), u.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func newHashCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash PASSWORD",
		Short: "Print a bcrypt hash for use in a users file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := password.HashWithCost(args[0], cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", password.DefaultBcryptCost, "bcrypt cost")
	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check AUTHORIZATION",
		Short: "Run the Basic pipeline over an Authorization header value",
		Long: `Run the Basic pipeline over an Authorization header value and print the
resolved principal, or the stage that rejected it.

Example:
  userctl check "Basic $(printf 'bob@x.com:secret' | base64)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(_ *config.Config, repo userstore.Repository) error {
				scheme := basic.New(userstore.Principals(repo))
				p, err := scheme.Evaluate(cmd.Context(), headerRequest(args[0]))
				out := cmd.OutOrStdout()
				if err != nil {
					fmt.Fprintf(out, "rejected: %s (%v)\n", auth.FailureKind(err), err)
					return nil
				}
				fmt.Fprintf(out, "authenticated: %s <%s>\n", p.ID(), p.Email())
				return nil
			})
		},
	}
	return cmd
}

func newTokenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "token ID",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(cfg *config.Config, repo userstore.Repository) error {
				if !cfg.Auth.UsesToken() {
					return fmt.Errorf("auth.type %q does not enable bearer tokens", cfg.Auth.Type)
				}
				a, err := gateway.BuildAuth(cfg.Auth, repo)
				if err != nil {
					return err
				}
				u, err := repo.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("user %s: %w", args[0], err)
				}
				signed, _, err := a.Tokens.Issue(u)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), signed)
				return nil
			})
		},
	}
}

// headerRequest presents a single Authorization value as an auth.Request.
type headerRequest string

func (h headerRequest) GetHeader(name string) (string, bool) {
	if name != auth.AuthorizationHeader {
		return "", false
	}
	return string(h), true
}
