package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/testutil"
)

func newTestRoot(t *testing.T) (*gorm.DB, func(args ...string) (string, error)) {
	t.Helper()
	db := testutil.NewDB(t)
	run := func(args ...string) (string, error) {
		opts := &RootOptions{Open: func(context.Context) (*Env, error) {
			return &Env{
				DB:     db,
				Cache:  cache.Nop{},
				Tokens: auth.NewManager("test", time.Hour),
				Close:  func() {},
			}, nil
		}}
		cmd := newRootCommand(opts)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}
	return db, run
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "yatubectl", cmd.Use)

	for _, name := range []string{"migrate", "group", "user", "seed"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, run := newTestRoot(t)
	_, err := run("group", "list", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestGroupLifecycle(t *testing.T) {
	db, run := newTestRoot(t)

	out, err := run("group", "create", "--title", "Котики", "--slug", "cats", "--description", "Про котиков")
	require.NoError(t, err)
	assert.Contains(t, out, "created group")

	_, err = run("group", "create", "--title", "Dup", "--slug", "cats", "--description", "x")
	assert.True(t, errors.Is(err, service.ErrConflict), "got %v", err)

	out, err = run("group", "list", "--format", "json")
	require.NoError(t, err)
	var groups []model.Group
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "cats", groups[0].Slug)

	_, err = run("seed", "--author", "vasya", "--group", "cats", "-n", "3")
	require.NoError(t, err)

	out, err = run("group", "delete", "cats")
	require.NoError(t, err)
	assert.Contains(t, out, "3 post(s) detached")

	var withGroup int64
	require.NoError(t, db.Model(&model.Post{}).Where("group_id IS NOT NULL").Count(&withGroup).Error)
	assert.Zero(t, withGroup)
	var total int64
	require.NoError(t, db.Model(&model.Post{}).Count(&total).Error)
	assert.EqualValues(t, 3, total)

	_, err = run("group", "delete", "cats")
	assert.True(t, errors.Is(err, service.ErrNotFound), "got %v", err)
}

func TestUserCreate(t *testing.T) {
	_, run := newTestRoot(t)

	out, err := run("user", "create", "--username", "leo", "--email", "leo@example.com", "--password", "long-enough", "--format", "json")
	require.NoError(t, err)
	var u model.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, "leo", u.Username)
	assert.NotContains(t, out, "long-enough")

	_, err = run("user", "create", "--username", "leo", "--email", "leo@example.com", "--password", "long-enough")
	assert.True(t, errors.Is(err, service.ErrConflict), "got %v", err)
}

func TestSeed(t *testing.T) {
	db, run := newTestRoot(t)

	out, err := run("seed", "--author", "vasya", "-n", "15", "--format", "json")
	require.NoError(t, err)
	var res seedResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 15, res.Created)

	// a second run reuses the author
	_, err = run("seed", "--author", "vasya", "-n", "2")
	require.NoError(t, err)
	var users, posts int64
	require.NoError(t, db.Model(&model.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&model.Post{}).Count(&posts).Error)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 17, posts)

	_, err = run("seed", "-n", "0")
	assert.Error(t, err)
}
