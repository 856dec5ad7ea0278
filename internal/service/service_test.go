package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/testutil"
)

type testEnv struct {
	db        *gorm.DB
	posts     repository.PostRepository
	groups    repository.GroupRepository
	users     repository.UserRepository
	clock     *testutil.StepClock
	listing   ListingService
	authoring AuthoringService
	groupSvc  GroupService
}

func newTestEnv(t *testing.T, feedCache cache.FeedCache) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	env := &testEnv{
		db:     db,
		posts:  repository.NewPostRepository(db),
		groups: repository.NewGroupRepository(db),
		users:  repository.NewUserRepository(db),
		clock:  testutil.NewStepClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second),
	}
	env.listing = NewListingService(env.posts, env.groups, env.users, feedCache)
	env.authoring = NewAuthoringService(db, env.posts, env.groups, feedCache, WithClock(env.clock.Now))
	env.groupSvc = NewGroupService(db, env.groups, env.posts, feedCache)
	return env
}

func (e *testEnv) createPosts(t *testing.T, author *model.User, group *model.Group, n int) []*model.Post {
	t.Helper()
	form := PostForm{Text: "Текст поста"}
	if group != nil {
		form.Group = idString(group.ID)
	}
	out := make([]*model.Post, 0, n)
	for i := 0; i < n; i++ {
		p, err := e.authoring.CreatePost(context.Background(), author.ID, form)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func (e *testEnv) countPosts(t *testing.T) int64 {
	t.Helper()
	n, err := e.posts.Count(context.Background(), repository.PostFilter{})
	require.NoError(t, err)
	return n
}

func idString(id uint) string {
	return FormFromPost(&model.Post{GroupID: &id}).Group
}

func postIDs(posts []*model.Post) []uint {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
