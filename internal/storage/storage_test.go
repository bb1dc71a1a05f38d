package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		image string
		want  string
	}{
		{name: "local filename", base: "http://localhost:8081", image: "x.jpg", want: "http://localhost:8081/assets/x.jpg"},
		{name: "base with trailing slash", base: "https://cdn.test/", image: "x.jpg", want: "https://cdn.test/assets/x.jpg"},
		{name: "absolute http url", base: "http://localhost:8081", image: "http://example.com/a.png", want: "http://example.com/a.png"},
		{name: "absolute https url", base: "http://localhost:8081", image: "https://example.com/a.png", want: "https://example.com/a.png"},
		{name: "empty image", base: "http://localhost:8081", image: "", want: PlaceholderImageURL},
		{name: "blank image", base: "http://localhost:8081", image: "   ", want: PlaceholderImageURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicURL(tt.base, tt.image))
		})
	}
}

func TestGenerateFilename(t *testing.T) {
	a := GenerateFilename("My Photo.JPG")
	b := GenerateFilename("My Photo.JPG")
	assert.Regexp(t, regexp.MustCompile(`^image-\d+-[0-9a-f]{8}\.jpg$`), a)
	assert.NotEqual(t, a, b)
	assert.True(t, IsSafeFilename(a))
}

func TestFilenameChecks(t *testing.T) {
	assert.True(t, IsAllowedImage("a.PNG"))
	assert.False(t, IsAllowedImage("a.exe"))
	assert.False(t, IsAllowedImage("noext"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("a.jpeg"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("a.bin"))

	for _, bad := range []string{"", ".", "..", "../etc/passwd", "a/b.jpg", `a\b.jpg`, "x..jpg"} {
		assert.False(t, IsSafeFilename(bad), bad)
	}
}

func TestDiskStore(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a.png", strings.NewReader("png-bytes"), 9, "image/png"))

	rc, info, err := store.Open(ctx, "a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, int64(9), info.Size)

	_, _, err = store.Open(ctx, "missing.png")
	assert.ErrorIs(t, err, ErrImageNotFound)
	_, _, err = store.Open(ctx, "../a.png")
	assert.ErrorIs(t, err, ErrImageNotFound)

	assert.Error(t, store.Save(ctx, "../evil.png", strings.NewReader("x"), 1, "image/png"))

	require.NoError(t, store.Delete(ctx, "a.png"))
	require.NoError(t, store.Delete(ctx, "a.png"))
	_, _, err = store.Open(ctx, "a.png")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	failPut error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   aws.String(f.types[aws.ToString(in.Key)]),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	fake := newFakeS3()
	store := &S3Store{client: fake, bucket: "statues"}
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "b.jpg", strings.NewReader("jpg"), 3, "image/jpeg"))

	rc, info, err := store.Open(ctx, "b.jpg")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "jpg", string(data))
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.Equal(t, int64(3), info.Size)

	_, _, err = store.Open(ctx, "missing.jpg")
	assert.ErrorIs(t, err, ErrImageNotFound)

	require.NoError(t, store.Delete(ctx, "b.jpg"))
	_, _, err = store.Open(ctx, "b.jpg")
	assert.ErrorIs(t, err, ErrImageNotFound)

	fake.failPut = errors.New("boom")
	assert.Error(t, store.Save(ctx, "c.jpg", strings.NewReader("x"), 1, "image/jpeg"))
}
