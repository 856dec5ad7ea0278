package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// AuthoringService 帖子写入侧；只有作者能编辑，不提供删除
type AuthoringService interface {
	// Form 用给定值渲染帖子表单
	Form(ctx context.Context, bound PostForm) (*FormView, error)
	CreatePost(ctx context.Context, authorID string, form PostForm) (*model.Post, error)
	// PostForEdit callerID 有权编辑时返回帖子
	PostForEdit(ctx context.Context, callerID string, postID uint) (*model.Post, error)
	EditPost(ctx context.Context, callerID string, postID uint, form PostForm) (*model.Post, error)
}

type authoringService struct {
	db     *gorm.DB
	posts  repository.PostRepository
	groups repository.GroupRepository
	cache  cache.FeedCache
	now    func() time.Time
}

// AuthoringOption NewAuthoringService 的可选项
type AuthoringOption func(*authoringService)

// WithClock 替换 pub_date 的时间来源
func WithClock(now func() time.Time) AuthoringOption {
	return func(s *authoringService) { s.now = now }
}

func NewAuthoringService(db *gorm.DB, posts repository.PostRepository, groups repository.GroupRepository, feedCache cache.FeedCache, opts ...AuthoringOption) AuthoringService {
	if feedCache == nil {
		feedCache = cache.Nop{}
	}
	s := &authoringService{db: db, posts: posts, groups: groups, cache: feedCache, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *authoringService) Form(ctx context.Context, bound PostForm) (*FormView, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return buildFormView(groups, bound), nil
}

func (s *authoringService) CreatePost(ctx context.Context, authorID string, form PostForm) (*model.Post, error) {
	var postID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := ValidatePostForm(ctx, s.groups.WithTx(tx), form)
		if err != nil {
			return err
		}
		if !res.OK {
			return res.Err()
		}
		post := &model.Post{
			Text:     res.Text,
			PubDate:  s.now().UTC(),
			AuthorID: authorID,
			GroupID:  res.GroupID,
		}
		if err := s.posts.WithTx(tx).Create(ctx, post); err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		postID = post.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	logger.Info("post created", zap.Uint("post_id", postID), zap.String("author_id", authorID))
	return s.posts.GetByID(ctx, postID)
}

func (s *authoringService) PostForEdit(ctx context.Context, callerID string, postID uint) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}
	if post.AuthorID != callerID {
		return post, ErrForbidden
	}
	return post, nil
}

func (s *authoringService) EditPost(ctx context.Context, callerID string, postID uint, form PostForm) (*model.Post, error) {
	if _, err := s.PostForEdit(ctx, callerID, postID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := ValidatePostForm(ctx, s.groups.WithTx(tx), form)
		if err != nil {
			return err
		}
		if !res.OK {
			return res.Err()
		}
		if err := s.posts.WithTx(tx).UpdateContent(ctx, postID, res.Text, res.GroupID); err != nil {
			return fmt.Errorf("update post: %w", notFound(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	logger.Info("post edited", zap.Uint("post_id", postID), zap.String("author_id", callerID))
	return s.posts.GetByID(ctx, postID)
}

func (s *authoringService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn("feed cache invalidate failed", zap.Error(err))
	}
}
