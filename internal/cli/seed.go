package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
)

const seedPassword = "yatube-demo-pass"

type seedOptions struct {
	author string
	group  string
	posts  int
}

type seedResult struct {
	Author  string `json:"author"`
	Group   string `json:"group,omitempty"`
	Created int    `json:"created"`
}

// NewSeedCommand 创建 seed 命令
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo posts",
		Long: `Create demo posts by one author, optionally in one group.

The author and the group are created when missing; new authors get the
password "` + seedPassword + `".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.posts < 1 {
				return fmt.Errorf("--posts must be positive, got %d", opts.posts)
			}
			return withEnv(cmd, rootOpts, func(ctx context.Context, env *Env) error {
				res, err := runSeed(ctx, env, opts)
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), rootOpts, res, func(w io.Writer) {
					fmt.Fprintf(w, "created %d post(s) by %s\n", res.Created, res.Author)
				})
			})
		},
	}
	cmd.Flags().StringVar(&opts.author, "author", "demo", "author username")
	cmd.Flags().StringVar(&opts.group, "group", "", "group slug (optional)")
	cmd.Flags().IntVarP(&opts.posts, "posts", "n", 15, "number of posts")
	return cmd
}

func runSeed(ctx context.Context, env *Env, opts *seedOptions) (*seedResult, error) {
	author, err := ensureUser(ctx, env, opts.author)
	if err != nil {
		return nil, err
	}

	form := service.PostForm{}
	if opts.group != "" {
		g, err := ensureGroup(ctx, env, opts.group)
		if err != nil {
			return nil, err
		}
		form.Group = strconv.FormatUint(uint64(g.ID), 10)
	}

	authoring := env.authoringService()
	res := &seedResult{Author: author.Username, Group: opts.group}
	for i := 1; i <= opts.posts; i++ {
		form.Text = fmt.Sprintf("Тестовый пост %d", i)
		if _, err := authoring.CreatePost(ctx, author.ID, form); err != nil {
			return res, fmt.Errorf("post %d: %w", i, err)
		}
		res.Created++
	}
	return res, nil
}

func ensureUser(ctx context.Context, env *Env, username string) (*model.User, error) {
	u, err := repository.NewUserRepository(env.DB).GetByUsername(ctx, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return env.authService().Signup(ctx, username, username+"@example.com", seedPassword)
}

func ensureGroup(ctx context.Context, env *Env, slug string) (*model.Group, error) {
	g, err := repository.NewGroupRepository(env.DB).GetBySlug(ctx, slug)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return env.groupService().Create(ctx, slug, slug, "Демо-группа "+slug)
}
