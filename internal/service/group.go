package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// GroupService 分组管理
type GroupService interface {
	Create(ctx context.Context, title, slug, description string) (*model.Group, error)
	List(ctx context.Context) ([]*model.Group, error)
	// Delete 先解除分组下所有帖子的关联，再删除分组
	// 返回失去分组的帖子数
	Delete(ctx context.Context, slug string) (int64, error)
}

type groupService struct {
	db     *gorm.DB
	groups repository.GroupRepository
	posts  repository.PostRepository
	cache  cache.FeedCache
}

func NewGroupService(db *gorm.DB, groups repository.GroupRepository, posts repository.PostRepository, feedCache cache.FeedCache) GroupService {
	if feedCache == nil {
		feedCache = cache.Nop{}
	}
	return &groupService{db: db, groups: groups, posts: posts, cache: feedCache}
}

func (s *groupService) Create(ctx context.Context, title, slug, description string) (*model.Group, error) {
	ve := &ValidationError{}
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)
	description = strings.TrimSpace(description)
	if title == "" {
		ve.add("title", MsgRequired)
	} else if len([]rune(title)) > 200 {
		ve.add("title", "Ensure this value has at most 200 characters.")
	}
	if slug == "" {
		ve.add("slug", MsgRequired)
	} else if !slugPattern.MatchString(slug) || len(slug) > 50 {
		ve.add("slug", "Enter a valid slug of letters, numbers, underscores or hyphens.")
	}
	if description == "" {
		ve.add("description", MsgRequired)
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}

	if _, err := s.groups.GetBySlug(ctx, slug); err == nil {
		return nil, fmt.Errorf("group %q: %w", slug, ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	g := &model.Group{Title: title, Slug: slug, Description: description}
	if err := s.groups.Create(ctx, g); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("group %q: %w", slug, ErrConflict)
		}
		return nil, fmt.Errorf("create group: %w", err)
	}
	logger.Info("group created", zap.String("slug", slug))
	return g, nil
}

func (s *groupService) List(ctx context.Context) ([]*model.Group, error) {
	return s.groups.List(ctx)
}

func (s *groupService) Delete(ctx context.Context, slug string) (int64, error) {
	var detached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)
		g, err := groups.GetBySlug(ctx, slug)
		if err != nil {
			return notFound(err)
		}
		n, err := s.posts.WithTx(tx).DetachGroup(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("detach posts: %w", err)
		}
		if err := groups.Delete(ctx, g.ID); err != nil {
			return fmt.Errorf("delete group: %w", notFound(err))
		}
		detached = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn("feed cache invalidate failed", zap.Error(err))
	}
	logger.Info("group deleted", zap.String("slug", slug), zap.Int64("posts_detached", detached))
	return detached, nil
}
