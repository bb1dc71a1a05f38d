package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"statues/internal/model"
	"statues/internal/testutil"
)

func TestUserRepository(t *testing.T) {
	gormDB := testutil.OpenInMemoryDB(t)
	repo := NewUserRepository(gormDB)
	ctx := context.Background()

	user := &model.User{Username: "alice", PasswordHash: "hash", Role: model.RoleUser}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, model.RoleUser, found.Role)

	_, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.Create(ctx, &model.User{Username: "alice", PasswordHash: "other", Role: model.RoleUser})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, repo.UpdateRole(ctx, user.ID, model.RoleAdmin))
	found, err = repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, found.IsAdmin())

	assert.ErrorIs(t, repo.UpdateRole(ctx, 9999, model.RoleAdmin), gorm.ErrRecordNotFound)
}

func TestStatueRepository(t *testing.T) {
	gormDB := testutil.OpenInMemoryDB(t)
	repo := NewStatueRepository(gormDB)
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	first := &model.Statue{Name: "Thinker", Description: "Bronze", Image: testutil.StrPtr("thinker.jpg")}
	second := &model.Statue{Name: "David", Description: "Marble"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Thinker", list[0].Name)
	assert.Nil(t, list[1].Image)

	first.Name = "The Thinker"
	first.Image = nil
	require.NoError(t, repo.Update(ctx, first))
	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Thinker", got.Name)
	assert.Equal(t, "Bronze", got.Description)
	assert.Nil(t, got.Image)

	byName, err := repo.FindByName(ctx, "David")
	require.NoError(t, err)
	assert.Equal(t, second.ID, byName.ID)

	deleted, err := repo.Delete(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.FindByID(ctx, second.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFavoriteRepository(t *testing.T) {
	gormDB := testutil.OpenInMemoryDB(t)
	users := NewUserRepository(gormDB)
	statues := NewStatueRepository(gormDB)
	repo := NewFavoriteRepository(gormDB)
	ctx := context.Background()

	alice := &model.User{Username: "alice", PasswordHash: "h", Role: model.RoleUser}
	bob := &model.User{Username: "bob", PasswordHash: "h", Role: model.RoleUser}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))
	s1 := testutil.SeedStatue(t, gormDB, "One", "first", nil)
	s2 := testutil.SeedStatue(t, gormDB, "Two", "second", nil)

	require.NoError(t, repo.Add(ctx, alice.ID, s1.ID))
	require.NoError(t, repo.Add(ctx, alice.ID, s2.ID))
	require.NoError(t, repo.Add(ctx, bob.ID, s2.ID))

	assert.ErrorIs(t, repo.Add(ctx, alice.ID, s1.ID), gorm.ErrDuplicatedKey)
	assert.Error(t, repo.Add(ctx, alice.ID, 9999))

	exists, err := repo.Exists(ctx, alice.ID, s1.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	favs, err := repo.ListStatues(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.ElementsMatch(t, []uint{s1.ID, s2.ID}, []uint{favs[0].ID, favs[1].ID})

	favs, err = repo.ListStatues(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, s2.ID, favs[0].ID)

	require.NoError(t, repo.Remove(ctx, alice.ID, s1.ID))
	require.NoError(t, repo.Remove(ctx, alice.ID, s1.ID))
	exists, err = repo.Exists(ctx, alice.ID, s1.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting a statue cascades to its favorites.
	_, err = statues.Delete(ctx, s2.ID)
	require.NoError(t, err)
	favs, err = repo.ListStatues(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}
