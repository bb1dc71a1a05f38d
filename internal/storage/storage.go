// Package storage keeps uploaded statue images and builds their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderImageURL is returned for statues without an image.
const PlaceholderImageURL = "https://via.placeholder.com/200"

// ErrImageNotFound is returned when a stored image does not exist.
var ErrImageNotFound = errors.New("image not found")

// AllowedExtensions lists the upload extensions accepted for statue images.
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ObjectInfo describes a stored image.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// ImageStore persists uploaded images under generated filenames.
type ImageStore interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, filename string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, filename string) error
}

// GenerateFilename returns a unique name keeping the original extension,
// e.g. image-1725613970000-1f2e3d4c.jpg.
func GenerateFilename(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("image-%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

// IsAllowedImage reports whether the file extension is an accepted image type.
func IsAllowedImage(filename string) bool {
	_, ok := AllowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ContentTypeFor guesses a content type from the file extension.
func ContentTypeFor(filename string) string {
	if ct, ok := AllowedExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsSafeFilename rejects names that could escape the storage root.
func IsSafeFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}

// IsRemoteURL reports whether the stored image reference is already an absolute URL.
func IsRemoteURL(image string) bool {
	lower := strings.ToLower(image)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// PublicURL turns a stored image reference into the URL clients load:
// empty values get the placeholder, absolute URLs pass through, and local
// filenames are served from <base>/assets/<filename>.
func PublicURL(baseURL, image string) string {
	image = strings.TrimSpace(image)
	switch {
	case image == "":
		return PlaceholderImageURL
	case IsRemoteURL(image):
		return image
	default:
		return strings.TrimRight(baseURL, "/") + "/assets/" + image
	}
}
