package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/yatube/pkg/database"
)

// NewMigrateCommand 创建 migrate 命令
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, rootOpts, func(ctx context.Context, env *Env) error {
				if err := database.Migrate(env.DB.WithContext(ctx)); err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), rootOpts, map[string]bool{"migrated": true}, func(w io.Writer) {
					fmt.Fprintln(w, "schema up to date")
				})
			})
		},
	}
}
