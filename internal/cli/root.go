// Package cli yatubectl 管理命令行
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// ValidFormats 允许的输出格式
var ValidFormats = []string{"text", "json"}

// Env 命令操作的运行环境
type Env struct {
	DB     *gorm.DB
	Cache  cache.FeedCache
	Tokens *auth.Manager
	Close  func()
}

// RootOptions 全局参数和运行环境工厂
type RootOptions struct {
	Format string // "json" | "text"

	// Open 构建运行环境，测试中可替换
	Open func(ctx context.Context) (*Env, error)
}

// NewRootCommand 创建 yatubectl 根命令
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Open: openFromConfig})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yatubectl",
		Short: "yatube administration",
		Long:  "Manage groups and users of a yatube database and seed demo content.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true, // 由 main 打印错误
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewGroupCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func openFromConfig(ctx context.Context) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, "console"); err != nil {
		return nil, err
	}
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	feedCache, closeCache, err := cache.Open(ctx, cfg.Redis)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return &Env{
		DB:     db,
		Cache:  feedCache,
		Tokens: auth.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry),
		Close: func() {
			_ = closeCache()
			_ = database.Close(db)
			_ = logger.Sync()
		},
	}, nil
}

func (e *Env) groupService() service.GroupService {
	return service.NewGroupService(e.DB, repository.NewGroupRepository(e.DB), repository.NewPostRepository(e.DB), e.Cache)
}

func (e *Env) authService() service.AuthService {
	return service.NewAuthService(repository.NewUserRepository(e.DB), e.Tokens)
}

func (e *Env) authoringService() service.AuthoringService {
	return service.NewAuthoringService(e.DB, repository.NewPostRepository(e.DB), repository.NewGroupRepository(e.DB), e.Cache)
}

// withEnv 打开运行环境后执行 fn
func withEnv(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := opts.Open(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(ctx, env)
}

// emit 以 JSON 输出 v，text 格式时调用 text 函数
func emit(w io.Writer, opts *RootOptions, v any, text func(io.Writer)) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
