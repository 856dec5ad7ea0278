package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/testutil"
)

func TestCreatePost_Valid(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db, "user_author")
	before := env.countPosts(t)

	post, err := env.authoring.CreatePost(ctx, author.ID, PostForm{Text: "Новый тестовый текст"})
	require.NoError(t, err)

	assert.Equal(t, before+1, env.countPosts(t))
	assert.Equal(t, "Новый тестовый текст", post.Text)
	assert.Equal(t, author.ID, post.AuthorID)
	require.NotNil(t, post.Author)
	assert.Equal(t, "user_author", post.Author.Username)
	assert.Nil(t, post.GroupID)
	assert.True(t, env.clock.Peek().Equal(post.PubDate))

	feed, err := env.listing.ListAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, post.ID, feed.Page.ObjectList[0].ID)
}

func TestCreatePost_WithGroup(t *testing.T) {
	env := newTestEnv(t, nil)
	author := testutil.CreateUser(t, env.db, "author")
	group := testutil.CreateGroup(t, env.db, "G", "g")

	post, err := env.authoring.CreatePost(context.Background(), author.ID, PostForm{Text: "in group", Group: idString(group.ID)})
	require.NoError(t, err)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
	require.NotNil(t, post.Group)
	assert.Equal(t, "g", post.Group.Slug)
}

func TestCreatePost_TrimsText(t *testing.T) {
	env := newTestEnv(t, nil)
	author := testutil.CreateUser(t, env.db, "author")

	post, err := env.authoring.CreatePost(context.Background(), author.ID, PostForm{Text: "  padded \n"})
	require.NoError(t, err)
	assert.Equal(t, "padded", post.Text)
}

func TestCreatePost_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		form   PostForm
		fields []string
	}{
		{"empty text", PostForm{Text: ""}, []string{"text"}},
		{"whitespace text", PostForm{Text: " \t\n "}, []string{"text"}},
		{"unknown group", PostForm{Text: "ok", Group: "999"}, []string{"group"}},
		{"non-numeric group", PostForm{Text: "ok", Group: "cats"}, []string{"group"}},
		{"negative group", PostForm{Text: "ok", Group: "-1"}, []string{"group"}},
		{"both", PostForm{Text: "", Group: "999"}, []string{"text", "group"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			author := testutil.CreateUser(t, env.db, "author")

			post, err := env.authoring.CreatePost(context.Background(), author.ID, tt.form)
			assert.Nil(t, post)
			ve, ok := AsValidation(err)
			require.True(t, ok, "want validation error, got %v", err)
			assert.Len(t, ve.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.NotEmpty(t, ve.Fields[f], "field %s", f)
			}
			assert.Zero(t, env.countPosts(t))
		})
	}
}

func TestEditPost_ByAuthor(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db, "user_author")
	group := testutil.CreateGroup(t, env.db, "Тестовая группа", "test-slug")
	original, err := env.authoring.CreatePost(ctx, author.ID, PostForm{Text: "Тестовый текст", Group: idString(group.ID)})
	require.NoError(t, err)
	count := env.countPosts(t)

	edited, err := env.authoring.EditPost(ctx, author.ID, original.ID, PostForm{Text: "Измененный тестовый текст", Group: ""})
	require.NoError(t, err)

	assert.Equal(t, count, env.countPosts(t))
	assert.Equal(t, original.ID, edited.ID)
	assert.Equal(t, "Измененный тестовый текст", edited.Text)
	assert.Nil(t, edited.GroupID)
	assert.Equal(t, original.AuthorID, edited.AuthorID)
	assert.True(t, original.PubDate.Equal(edited.PubDate))

	detail, err := env.listing.GetDetail(ctx, original.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Тестовый текст", detail.Text)

	// the post left its old group's feed
	groupFeed, err := env.listing.ListByGroup(ctx, group.Slug, 1)
	require.NoError(t, err)
	assert.NotContains(t, postIDs(groupFeed.Page.ObjectList), original.ID)
}

func TestEditPost_ClearingAlreadyEmptyGroup(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db, "author")
	post, err := env.authoring.CreatePost(ctx, author.ID, PostForm{Text: "no group"})
	require.NoError(t, err)

	edited, err := env.authoring.EditPost(ctx, author.ID, post.ID, PostForm{Text: "still none"})
	require.NoError(t, err)
	assert.Nil(t, edited.GroupID)
}

func TestEditPost_ByNonAuthor(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	userA := testutil.CreateUser(t, env.db, "a")
	userB := testutil.CreateUser(t, env.db, "b")
	group := testutil.CreateGroup(t, env.db, "G", "g")
	post, err := env.authoring.CreatePost(ctx, userA.ID, PostForm{Text: "mine", Group: idString(group.ID)})
	require.NoError(t, err)

	_, err = env.authoring.EditPost(ctx, userB.ID, post.ID, PostForm{Text: "hijacked"})
	assert.True(t, errors.Is(err, ErrForbidden))

	after, err := env.listing.GetDetail(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", after.Text)
	require.NotNil(t, after.GroupID)
	assert.Equal(t, group.ID, *after.GroupID)
	assert.Equal(t, userA.ID, after.AuthorID)
	assert.True(t, post.PubDate.Equal(after.PubDate))

	_, err = env.authoring.PostForEdit(ctx, userB.ID, post.ID)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestEditPost_InvalidLeavesPostUntouched(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	author := testutil.CreateUser(t, env.db, "author")
	post, err := env.authoring.CreatePost(ctx, author.ID, PostForm{Text: "keep me"})
	require.NoError(t, err)

	_, err = env.authoring.EditPost(ctx, author.ID, post.ID, PostForm{Text: "   ", Group: "404"})
	ve, ok := AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "text")
	assert.Contains(t, ve.Fields, "group")

	after, err := env.listing.GetDetail(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep me", after.Text)
}

func TestEditPost_Missing(t *testing.T) {
	env := newTestEnv(t, nil)
	author := testutil.CreateUser(t, env.db, "author")

	_, err := env.authoring.EditPost(context.Background(), author.ID, 12345, PostForm{Text: "x"})
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = env.authoring.PostForEdit(context.Background(), author.ID, 12345)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestForm_ListsGroupChoices(t *testing.T) {
	env := newTestEnv(t, nil)
	testutil.CreateGroup(t, env.db, "Beta", "beta")
	alpha := testutil.CreateGroup(t, env.db, "Alpha", "alpha")

	form, err := env.authoring.Form(context.Background(), PostForm{Text: "draft", Group: idString(alpha.ID)})
	require.NoError(t, err)

	text, ok := form.Field("text")
	require.True(t, ok)
	assert.Equal(t, "char", text.Type)
	assert.True(t, text.Required)
	assert.Equal(t, "draft", text.Value)

	group, ok := form.Field("group")
	require.True(t, ok)
	assert.Equal(t, "choice", group.Type)
	assert.False(t, group.Required)
	assert.Equal(t, idString(alpha.ID), group.Value)
	require.Len(t, group.Choices, 3)
	assert.Equal(t, "", group.Choices[0].Value)
	assert.Equal(t, "Alpha", group.Choices[1].Label)
	assert.Equal(t, "Beta", group.Choices[2].Label)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string][]string{"text": {MsgRequired}, "group": {MsgInvalidChoice}}}
	assert.Equal(t, "validation failed: group: "+MsgInvalidChoice+"; text: "+MsgRequired, err.Error())
}
