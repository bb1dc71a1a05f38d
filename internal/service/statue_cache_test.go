package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statues/internal/cache"
	"statues/internal/model"
	"statues/internal/repository"
	"statues/internal/storage"
	"statues/internal/testutil"
)

func newCachedStatueFixture(t *testing.T) (*statueFixture, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gormDB := testutil.OpenInMemoryDB(t)
	dir := t.TempDir()
	images, err := storage.NewDiskStore(dir)
	require.NoError(t, err)

	repo := repository.NewStatueRepository(gormDB)
	return &statueFixture{
		svc:       NewStatueService(repo, images, cache.New(rdb), testBaseURL),
		repo:      repo,
		uploadDir: dir,
	}, mr
}

func names(statues []model.Statue) []string {
	out := make([]string, 0, len(statues))
	for _, s := range statues {
		out = append(out, s.Name)
	}
	return out
}

func TestStatueService_ListServedFromCache(t *testing.T) {
	f, mr := newCachedStatueFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Create(ctx, &model.Statue{Name: "David", Description: "marble", Image: testutil.StrPtr("david.jpg")}))

	statues, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"David"}, names(statues))
	assert.True(t, mr.Exists(statueListCacheKey))
	assert.Equal(t, statueListCacheTTL, mr.TTL(statueListCacheKey))

	// A write that bypasses the service is not visible until the entry expires.
	require.NoError(t, f.repo.Create(ctx, &model.Statue{Name: "Venus", Description: "marble"}))
	statues, err = f.svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"David"}, names(statues))
	assert.Equal(t, testBaseURL+"/assets/david.jpg", statues[0].ImageValue())

	mr.FastForward(statueListCacheTTL + time.Second)
	statues, err = f.svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"David", "Venus"}, names(statues))
}

func TestStatueService_MutationsInvalidateCache(t *testing.T) {
	f, mr := newCachedStatueFixture(t)
	ctx := context.Background()

	statues, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, statues)
	require.True(t, mr.Exists(statueListCacheKey))

	created, err := f.svc.Create(ctx, adminSession, StatueInput{Name: "Thinker", Description: "bronze"}, nil)
	require.NoError(t, err)
	assert.False(t, mr.Exists(statueListCacheKey))
	statues, err = f.svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Thinker"}, names(statues))

	_, err = f.svc.Update(ctx, adminSession, created.ID, StatueInput{Name: "The Thinker"}, nil)
	require.NoError(t, err)
	assert.False(t, mr.Exists(statueListCacheKey))
	statues, err = f.svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"The Thinker"}, names(statues))

	require.NoError(t, f.svc.Delete(ctx, adminSession, created.ID))
	assert.False(t, mr.Exists(statueListCacheKey))
	statues, err = f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, statues)
}

func TestStatueService_FailedMutationKeepsCache(t *testing.T) {
	f, mr := newCachedStatueFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, adminSession, StatueInput{Name: "David", Description: "marble"}, nil)
	require.NoError(t, err)
	_, err = f.svc.List(ctx)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, userSession, StatueInput{Name: "Venus", Description: "marble"}, nil)
	require.Error(t, err)
	assert.True(t, mr.Exists(statueListCacheKey))
}
