package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewGroupCommand 创建 group 命令及其子命令
func NewGroupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage post groups",
	}
	cmd.AddCommand(newGroupCreateCommand(rootOpts))
	cmd.AddCommand(newGroupListCommand(rootOpts))
	cmd.AddCommand(newGroupDeleteCommand(rootOpts))
	return cmd
}

type groupCreateOptions struct {
	title       string
	slug        string
	description string
}

func newGroupCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &groupCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(ctx context.Context, env *Env) error {
				g, err := env.groupService().Create(ctx, opts.title, opts.slug, opts.description)
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), rootOpts, g, func(w io.Writer) {
					fmt.Fprintf(w, "created group %d %s (%s)\n", g.ID, g.Slug, g.Title)
				})
			})
		},
	}
	cmd.Flags().StringVar(&opts.title, "title", "", "group title")
	cmd.Flags().StringVar(&opts.slug, "slug", "", "url slug")
	cmd.Flags().StringVar(&opts.description, "description", "", "group description")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("slug")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newGroupListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(ctx context.Context, env *Env) error {
				groups, err := env.groupService().List(ctx)
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), rootOpts, groups, func(w io.Writer) {
					for _, g := range groups {
						fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
					}
				})
			})
		},
	}
}

func newGroupDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a group; its posts stay, without a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(ctx context.Context, env *Env) error {
				detached, err := env.groupService().Delete(ctx, args[0])
				if err != nil {
					return err
				}
				out := map[string]any{"slug": args[0], "detached_posts": detached}
				return emit(cmd.OutOrStdout(), rootOpts, out, func(w io.Writer) {
					fmt.Fprintf(w, "deleted group %s, %d post(s) detached\n", args[0], detached)
				})
			})
		},
	}
}
