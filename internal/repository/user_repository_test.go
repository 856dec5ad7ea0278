package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/testutil"
)

func TestUserRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &model.User{Username: "leo", Email: "leo@example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Len(t, u.ID, 36, "uuid assigned")

	byName, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "leo", byID.Username)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	err = repo.Create(ctx, &model.User{Username: "leo", Email: "x@example.com", Password: "hash"})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}
