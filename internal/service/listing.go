package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/paginator"
)

// Feed 一页帖子列表及其过滤对象
type Feed struct {
	Page   *cache.PostPage
	Group  *model.Group
	Author *model.User
}

// ListingService 读取侧：首页、分组、作者主页列表和帖子详情
type ListingService interface {
	ListAll(ctx context.Context, page int) (*Feed, error)
	ListByGroup(ctx context.Context, slug string, page int) (*Feed, error)
	ListByAuthor(ctx context.Context, username string, page int) (*Feed, error)
	GetDetail(ctx context.Context, postID uint) (*model.Post, error)
}

type listingService struct {
	posts   repository.PostRepository
	groups  repository.GroupRepository
	users   repository.UserRepository
	cache   cache.FeedCache
	perPage int
}

func NewListingService(posts repository.PostRepository, groups repository.GroupRepository, users repository.UserRepository, feedCache cache.FeedCache) ListingService {
	if feedCache == nil {
		feedCache = cache.Nop{}
	}
	return &listingService{
		posts:   posts,
		groups:  groups,
		users:   users,
		cache:   feedCache,
		perPage: paginator.DefaultPerPage,
	}
}

func (s *listingService) ListAll(ctx context.Context, page int) (*Feed, error) {
	p, err := s.page(ctx, cache.ScopeAll(), repository.PostFilter{}, page)
	if err != nil {
		return nil, err
	}
	return &Feed{Page: p}, nil
}

func (s *listingService) ListByGroup(ctx context.Context, slug string, page int) (*Feed, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	p, err := s.page(ctx, cache.ScopeGroup(group.ID), repository.PostFilter{GroupID: &group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &Feed{Page: p, Group: group}, nil
}

func (s *listingService) ListByAuthor(ctx context.Context, username string, page int) (*Feed, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	p, err := s.page(ctx, cache.ScopeAuthor(author.ID), repository.PostFilter{AuthorID: author.ID}, page)
	if err != nil {
		return nil, err
	}
	return &Feed{Page: p, Author: author}, nil
}

func (s *listingService) GetDetail(ctx context.Context, postID uint) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}
	return post, nil
}

func (s *listingService) page(ctx context.Context, scope string, filter repository.PostFilter, requested int) (*cache.PostPage, error) {
	cached, version, ok := s.cache.Get(ctx, scope, requested)
	if ok {
		return cached, nil
	}

	count, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	plan := paginator.NewPlan(requested, count, s.perPage)
	posts, err := s.posts.List(ctx, filter, plan.Offset, plan.Limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	p := paginator.Build(plan, posts)
	s.cache.Set(ctx, version, scope, requested, p)
	return p, nil
}
