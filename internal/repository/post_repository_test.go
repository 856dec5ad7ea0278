package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/testutil"
)

func seedPosts(t *testing.T, repo PostRepository, author *model.User, group *model.Group, n int, base time.Time) []*model.Post {
	t.Helper()
	ctx := context.Background()
	posts := make([]*model.Post, 0, n)
	for i := 0; i < n; i++ {
		p := &model.Post{
			Text:     fmt.Sprintf("post %d", i),
			PubDate:  base.Add(time.Duration(i) * time.Minute),
			AuthorID: author.ID,
		}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(t, repo.Create(ctx, p))
		posts = append(posts, p)
	}
	return posts
}

func TestPostRepository_ListNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	author := testutil.CreateUser(t, db, "Vasya")
	group := testutil.CreateGroup(t, db, "Тестовая группа", "test-slug")
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	seedPosts(t, repo, author, group, 15, base)

	first, err := repo.List(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "post 14", first[0].Text)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].PubDate.After(first[i].PubDate))
	}
	require.NotNil(t, first[0].Author)
	assert.Equal(t, "Vasya", first[0].Author.Username)
	require.NotNil(t, first[0].Group)
	assert.Equal(t, "test-slug", first[0].Group.Slug)

	second, err := repo.List(ctx, PostFilter{}, 10, 10)
	require.NoError(t, err)
	assert.Len(t, second, 5)
	assert.Equal(t, "post 0", second[4].Text)
}

func TestPostRepository_ListCarriesPostLength(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	author := testutil.CreateUser(t, db, "author")
	ctx := context.Background()

	p := &model.Post{Text: "Привет, мир", PubDate: time.Now().UTC(), AuthorID: author.ID}
	require.NoError(t, repo.Create(ctx, p))

	listed, err := repo.List(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 11, listed[0].PostLength, "length counts characters, not bytes")

	assert.False(t, db.Migrator().HasColumn(&model.Post{}, "post_length"))
}

func TestPostRepository_TiesFallBackToInsertOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	author := testutil.CreateUser(t, db, "author")
	ctx := context.Background()

	same := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &model.Post{Text: text, PubDate: same, AuthorID: author.ID}))
	}

	posts, err := repo.List(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{posts[0].Text, posts[1].Text, posts[2].Text})
}

func TestPostRepository_Filters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	groupA := testutil.CreateGroup(t, db, "A", "group-a")
	groupB := testutil.CreateGroup(t, db, "B", "group-b")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seedPosts(t, repo, alice, groupA, 3, base)
	seedPosts(t, repo, bob, groupB, 2, base.Add(time.Hour))
	seedPosts(t, repo, bob, nil, 4, base.Add(2*time.Hour))

	tests := []struct {
		name   string
		filter PostFilter
		want   int64
	}{
		{"all", PostFilter{}, 9},
		{"group a", PostFilter{GroupID: &groupA.ID}, 3},
		{"group b", PostFilter{GroupID: &groupB.ID}, 2},
		{"author alice", PostFilter{AuthorID: alice.ID}, 3},
		{"author bob", PostFilter{AuthorID: bob.ID}, 6},
		{"bob in group a", PostFilter{GroupID: &groupA.ID, AuthorID: bob.ID}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cnt, err := repo.Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cnt)

			posts, err := repo.List(ctx, tt.filter, 0, 100)
			require.NoError(t, err)
			assert.Len(t, posts, int(tt.want))
		})
	}
}

func TestPostRepository_UpdateContent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	group := testutil.CreateGroup(t, db, "G", "g")

	pub := time.Date(2024, 3, 3, 3, 3, 3, 0, time.UTC)
	post := &model.Post{Text: "before", PubDate: pub, AuthorID: author.ID, GroupID: &group.ID}
	require.NoError(t, repo.Create(ctx, post))

	require.NoError(t, repo.UpdateContent(ctx, post.ID, "after", nil))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.Group)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.True(t, pub.Equal(got.PubDate))

	require.NoError(t, repo.UpdateContent(ctx, post.ID, "again", &group.ID))
	got, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.GroupID)
	assert.Equal(t, group.ID, *got.GroupID)

	err = repo.UpdateContent(ctx, post.ID+100, "ghost", nil)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestPostRepository_GetByIDMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), 42)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestPostRepository_DetachGroup(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	keep := testutil.CreateGroup(t, db, "Keep", "keep")
	drop := testutil.CreateGroup(t, db, "Drop", "drop")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seedPosts(t, repo, author, keep, 2, base)
	seedPosts(t, repo, author, drop, 3, base)

	n, err := repo.DetachGroup(ctx, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	cnt, err := repo.Count(ctx, PostFilter{GroupID: &drop.ID})
	require.NoError(t, err)
	assert.Zero(t, cnt)

	cnt, err = repo.Count(ctx, PostFilter{GroupID: &keep.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)

	cnt, err = repo.Count(ctx, PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), cnt)
}

func TestPostRepository_WithTxRollback(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.WithTx(tx).Create(ctx, &model.Post{Text: "lost", PubDate: time.Now(), AuthorID: author.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	cnt, err := repo.Count(ctx, PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, cnt)
}
