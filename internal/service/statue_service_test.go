package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statues/internal/auth"
	apperrors "statues/internal/errors"
	"statues/internal/model"
	"statues/internal/repository"
	"statues/internal/storage"
	"statues/internal/testutil"
)

const testBaseURL = "http://localhost:8081"

var (
	adminSession = &auth.Session{ID: "admin-session", UserID: 1, Username: "admin", Role: model.RoleAdmin}
	userSession  = &auth.Session{ID: "user-session", UserID: 2, Username: "alice", Role: model.RoleUser}
)

type statueFixture struct {
	svc       StatueService
	repo      repository.StatueRepository
	uploadDir string
}

func newStatueFixture(t *testing.T) *statueFixture {
	t.Helper()
	gormDB := testutil.OpenInMemoryDB(t)
	dir := t.TempDir()
	images, err := storage.NewDiskStore(dir)
	require.NoError(t, err)

	repo := repository.NewStatueRepository(gormDB)
	return &statueFixture{
		svc:       NewStatueService(repo, images, nil, testBaseURL),
		repo:      repo,
		uploadDir: dir,
	}
}

func pngUpload(name string) *Upload {
	return &Upload{Filename: name, Size: 4, ContentType: "image/png", Reader: strings.NewReader("\x89PNG")}
}

func TestStatueService_ListNormalizesImages(t *testing.T) {
	f := newStatueFixture(t)
	ctx := context.Background()

	empty, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, f.repo.Create(ctx, &model.Statue{Name: "Local", Description: "d", Image: testutil.StrPtr("x.jpg")}))
	require.NoError(t, f.repo.Create(ctx, &model.Statue{Name: "Remote", Description: "d", Image: testutil.StrPtr("https://cdn.test/r.png")}))
	require.NoError(t, f.repo.Create(ctx, &model.Statue{Name: "None", Description: "d"}))

	statues, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, statues, 3)
	assert.Equal(t, "http://localhost:8081/assets/x.jpg", statues[0].ImageValue())
	assert.Equal(t, "https://cdn.test/r.png", statues[1].ImageValue())
	assert.Equal(t, storage.PlaceholderImageURL, statues[2].ImageValue())
}

func TestStatueService_Get(t *testing.T) {
	f := newStatueFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Create(ctx, &model.Statue{Name: "David", Description: "marble"}))

	statue, err := f.svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "David", statue.Name)

	_, err = f.svc.Get(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrStatueNotFound)
}

func TestStatueService_Create(t *testing.T) {
	tests := []struct {
		name          string
		session       *auth.Session
		input         StatueInput
		upload        *Upload
		expectedError error
		wantImage     func(t *testing.T, image string)
	}{
		{
			name:    "with uploaded file",
			session: adminSession,
			input:   StatueInput{Name: " Thinker ", Description: "bronze", Image: "ignored.jpg"},
			upload:  pngUpload("photo.PNG"),
			wantImage: func(t *testing.T, image string) {
				assert.True(t, strings.HasPrefix(image, testBaseURL+"/assets/image-"))
				assert.True(t, strings.HasSuffix(image, ".png"))
			},
		},
		{
			name:    "with image url",
			session: adminSession,
			input:   StatueInput{Name: "Venus", Description: "marble", Image: "https://example.com/v.jpg"},
			wantImage: func(t *testing.T, image string) {
				assert.Equal(t, "https://example.com/v.jpg", image)
			},
		},
		{
			name:    "without image",
			session: adminSession,
			input:   StatueInput{Name: "Venus", Description: "marble"},
			wantImage: func(t *testing.T, image string) {
				assert.Equal(t, storage.PlaceholderImageURL, image)
			},
		},
		{
			name:          "anonymous",
			input:         StatueInput{Name: "Venus", Description: "marble"},
			expectedError: apperrors.ErrUnauthorized,
		},
		{
			name:          "non admin",
			session:       userSession,
			input:         StatueInput{Name: "Venus", Description: "marble"},
			expectedError: apperrors.ErrUnauthorized,
		},
		{
			name:          "missing name",
			session:       adminSession,
			input:         StatueInput{Name: "  ", Description: "marble"},
			expectedError: apperrors.ErrInvalidInput,
		},
		{
			name:          "missing description",
			session:       adminSession,
			input:         StatueInput{Name: "Venus"},
			expectedError: apperrors.ErrInvalidInput,
		},
		{
			name:          "image url too long",
			session:       adminSession,
			input:         StatueInput{Name: "Venus", Description: "marble", Image: "https://cdn.test/" + strings.Repeat("a", 1024)},
			expectedError: apperrors.ErrInvalidInput,
		},
		{
			name:          "unsupported file",
			session:       adminSession,
			input:         StatueInput{Name: "Venus", Description: "marble"},
			upload:        &Upload{Filename: "script.sh", Reader: strings.NewReader("#!")},
			expectedError: apperrors.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStatueFixture(t)
			ctx := context.Background()

			statue, err := f.svc.Create(ctx, tt.session, tt.input, tt.upload)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				list, _ := f.svc.List(ctx)
				assert.Empty(t, list)
				entries, _ := os.ReadDir(f.uploadDir)
				assert.Empty(t, entries)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, statue.ID)
			assert.Equal(t, strings.TrimSpace(tt.input.Name), statue.Name)
			tt.wantImage(t, statue.ImageValue())

			if tt.upload != nil {
				stored, err := f.repo.FindByID(ctx, statue.ID)
				require.NoError(t, err)
				data, err := os.ReadFile(filepath.Join(f.uploadDir, stored.ImageValue()))
				require.NoError(t, err)
				assert.Equal(t, "\x89PNG", string(data))
			}
		})
	}
}

func TestStatueService_PartialUpdate(t *testing.T) {
	f := newStatueFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, adminSession, StatueInput{Name: "Old", Description: "keep me", Image: "https://example.com/a.jpg"}, nil)
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, adminSession, created.ID, StatueInput{Name: "New"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, "https://example.com/a.jpg", updated.ImageValue())

	stored, err := f.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", stored.Name)
	assert.Equal(t, "keep me", stored.Description)
	assert.Equal(t, "https://example.com/a.jpg", stored.ImageValue())
}

func TestStatueService_UpdateReplacesUploadedImage(t *testing.T) {
	f := newStatueFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, adminSession, StatueInput{Name: "A", Description: "B"}, pngUpload("first.png"))
	require.NoError(t, err)
	first, err := f.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, adminSession, created.ID, StatueInput{}, pngUpload("second.png"))
	require.NoError(t, err)
	second, err := f.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ImageValue(), second.ImageValue())
	_, err = os.Stat(filepath.Join(f.uploadDir, first.ImageValue()))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.uploadDir, second.ImageValue()))
	assert.NoError(t, err)
}

func TestStatueService_UpdateErrors(t *testing.T) {
	f := newStatueFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, adminSession, StatueInput{Name: "A", Description: "B"}, nil)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, userSession, created.ID, StatueInput{Name: "X"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.svc.Update(ctx, adminSession, 999, StatueInput{Name: "X"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrStatueNotFound)

	_, err = f.svc.Update(ctx, adminSession, created.ID, StatueInput{Name: strings.Repeat("n", 256)}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.svc.Update(ctx, adminSession, created.ID, StatueInput{Image: "https://cdn.test/" + strings.Repeat("a", 1024)}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	stored, err := f.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Image)
}

func TestStatueService_Delete(t *testing.T) {
	f := newStatueFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, adminSession, StatueInput{Name: "A", Description: "B"}, pngUpload("a.png"))
	require.NoError(t, err)
	stored, err := f.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, userSession, created.ID), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Delete(ctx, nil, created.ID), apperrors.ErrUnauthorized)

	require.NoError(t, f.svc.Delete(ctx, adminSession, created.ID))
	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrStatueNotFound)
	_, err = os.Stat(filepath.Join(f.uploadDir, stored.ImageValue()))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, f.svc.Delete(ctx, adminSession, created.ID), apperrors.ErrStatueNotFound)
}

type failingImageStore struct{}

func (failingImageStore) Save(context.Context, string, io.Reader, int64, string) error {
	return io.ErrUnexpectedEOF
}

func (failingImageStore) Open(context.Context, string) (io.ReadCloser, *storage.ObjectInfo, error) {
	return nil, nil, storage.ErrImageNotFound
}

func (failingImageStore) Delete(context.Context, string) error { return nil }

func TestStatueService_CreateStorageFailure(t *testing.T) {
	gormDB := testutil.OpenInMemoryDB(t)
	repo := repository.NewStatueRepository(gormDB)
	svc := NewStatueService(repo, failingImageStore{}, nil, testBaseURL)

	_, err := svc.Create(context.Background(), adminSession, StatueInput{Name: "A", Description: "B"}, pngUpload("a.png"))
	require.Error(t, err)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
