package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewUserCommand 创建 user 命令及其子命令
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	return cmd
}

type userCreateOptions struct {
	username string
	email    string
	password string
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &userCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(ctx context.Context, env *Env) error {
				u, err := env.authService().Signup(ctx, opts.username, opts.email, opts.password)
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), rootOpts, u, func(w io.Writer) {
					fmt.Fprintf(w, "created user %s (%s)\n", u.Username, u.ID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&opts.username, "username", "", "login name")
	cmd.Flags().StringVar(&opts.email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.password, "password", "", "password, at least 8 characters")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
