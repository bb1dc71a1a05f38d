package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"statues/internal/auth"
	"statues/internal/cache"
	apperrors "statues/internal/errors"
	"statues/internal/model"
	"statues/internal/repository"
	"statues/internal/storage"
)

const (
	statueListCacheKey = "statues:all"
	statueListCacheTTL = 60 * time.Second
	maxStatueNameLen   = 255
	maxImageRefLen     = 1024
)

// Upload is an image file sent along with a statue.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// StatueInput carries the text fields of a create or update request.
// On update, blank fields keep their stored value.
type StatueInput struct {
	Name        string
	Description string
	Image       string
}

// StatueService manages the statue catalog. Returned statues always carry a
// client-ready image URL.
type StatueService interface {
	List(ctx context.Context) ([]model.Statue, error)
	Get(ctx context.Context, id uint) (*model.Statue, error)
	Create(ctx context.Context, session *auth.Session, input StatueInput, upload *Upload) (*model.Statue, error)
	Update(ctx context.Context, session *auth.Session, id uint, input StatueInput, upload *Upload) (*model.Statue, error)
	Delete(ctx context.Context, session *auth.Session, id uint) error
}

type statueService struct {
	statueRepo repository.StatueRepository
	images     storage.ImageStore
	cache      *cache.Client
	baseURL    string
}

// NewStatueService creates a new statue service. cache may be nil.
func NewStatueService(
	statueRepo repository.StatueRepository,
	images storage.ImageStore,
	cache *cache.Client,
	baseURL string,
) StatueService {
	return &statueService{
		statueRepo: statueRepo,
		images:     images,
		cache:      cache,
		baseURL:    baseURL,
	}
}

// List returns the whole catalog ordered by ID, served from cache when possible.
func (s *statueService) List(ctx context.Context) ([]model.Statue, error) {
	if cached, _ := s.cache.Get(ctx, statueListCacheKey); cached != nil {
		var statues []model.Statue
		if err := json.Unmarshal(cached, &statues); err == nil {
			return s.normalizeAll(statues), nil
		}
	}

	statues, err := s.statueRepo.List(ctx)
	if err != nil {
		return nil, storeErr("list statues", err)
	}

	if data, err := json.Marshal(statues); err == nil {
		_ = s.cache.Set(ctx, statueListCacheKey, data, statueListCacheTTL)
	}
	return s.normalizeAll(statues), nil
}

func (s *statueService) Get(ctx context.Context, id uint) (*model.Statue, error) {
	statue, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	out := s.normalize(*statue)
	return &out, nil
}

// Create validates the input, stores the upload if any and inserts the statue.
// An uploaded file takes precedence over the image field.
func (s *statueService) Create(ctx context.Context, session *auth.Session, input StatueInput, upload *Upload) (*model.Statue, error) {
	if !session.IsAdmin() {
		return nil, apperrors.ErrUnauthorized
	}

	statue := &model.Statue{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
	}
	if err := validateStatue(statue.Name, statue.Description); err != nil {
		return nil, err
	}
	if err := validateImage(input.Image, upload); err != nil {
		return nil, err
	}

	image, err := s.resolveImage(ctx, input.Image, upload)
	if err != nil {
		return nil, err
	}
	statue.Image = image

	if err := s.statueRepo.Create(ctx, statue); err != nil {
		s.discardUpload(ctx, upload, image)
		return nil, storeErr("create statue", err)
	}
	s.invalidate(ctx)

	logrus.WithFields(logrus.Fields{"statue_id": statue.ID, "user_id": session.UserID}).Info("statue created")
	out := s.normalize(*statue)
	return &out, nil
}

// Update applies the non-blank fields of input to an existing statue.
// Concurrent updates are last-write-wins.
func (s *statueService) Update(ctx context.Context, session *auth.Session, id uint, input StatueInput, upload *Upload) (*model.Statue, error) {
	if !session.IsAdmin() {
		return nil, apperrors.ErrUnauthorized
	}
	if err := validateImage(input.Image, upload); err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); utf8.RuneCountInString(name) > maxStatueNameLen {
		return nil, apperrors.Invalid("name", fmt.Sprintf("must be at most %d characters", maxStatueNameLen))
	}

	statue, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := statue.ImageValue()

	if name := strings.TrimSpace(input.Name); name != "" {
		statue.Name = name
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		statue.Description = description
	}
	if upload != nil || strings.TrimSpace(input.Image) != "" {
		image, err := s.resolveImage(ctx, input.Image, upload)
		if err != nil {
			return nil, err
		}
		statue.Image = image
	}

	if err := s.statueRepo.Update(ctx, statue); err != nil {
		s.discardUpload(ctx, upload, statue.Image)
		return nil, storeErr("update statue", err)
	}
	s.invalidate(ctx)

	if current := statue.ImageValue(); current != previous {
		s.removeLocalImage(ctx, previous)
	}

	logrus.WithFields(logrus.Fields{"statue_id": statue.ID, "user_id": session.UserID}).Info("statue updated")
	out := s.normalize(*statue)
	return &out, nil
}

// Delete removes the statue. Favorites pointing at it go with it.
func (s *statueService) Delete(ctx context.Context, session *auth.Session, id uint) error {
	if !session.IsAdmin() {
		return apperrors.ErrUnauthorized
	}

	statue, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := s.statueRepo.Delete(ctx, id)
	if err != nil {
		return storeErr("delete statue", err)
	}
	if !deleted {
		return apperrors.ErrStatueNotFound
	}
	s.invalidate(ctx)
	s.removeLocalImage(ctx, statue.ImageValue())

	logrus.WithFields(logrus.Fields{"statue_id": id, "user_id": session.UserID}).Info("statue deleted")
	return nil
}

func (s *statueService) find(ctx context.Context, id uint) (*model.Statue, error) {
	statue, err := s.statueRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrStatueNotFound
	}
	if err != nil {
		return nil, storeErr("find statue", err)
	}
	return statue, nil
}

// resolveImage stores the upload under a fresh name, or falls back to the
// image field. It returns nil when neither is present.
func (s *statueService) resolveImage(ctx context.Context, field string, upload *Upload) (*string, error) {
	if upload != nil {
		filename := storage.GenerateFilename(upload.Filename)
		contentType := upload.ContentType
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = storage.ContentTypeFor(filename)
		}
		if err := s.images.Save(ctx, filename, upload.Reader, upload.Size, contentType); err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		return &filename, nil
	}
	if field = strings.TrimSpace(field); field != "" {
		return &field, nil
	}
	return nil, nil
}

func (s *statueService) discardUpload(ctx context.Context, upload *Upload, image *string) {
	if upload == nil || image == nil {
		return
	}
	s.removeLocalImage(ctx, *image)
}

// removeLocalImage deletes a stored file. Remote URLs are left alone and
// failures are only logged.
func (s *statueService) removeLocalImage(ctx context.Context, image string) {
	if image == "" || storage.IsRemoteURL(image) || !storage.IsSafeFilename(image) {
		return
	}
	if err := s.images.Delete(ctx, image); err != nil {
		logrus.WithFields(logrus.Fields{"image": image, "error": err.Error()}).Warn("failed to remove image")
	}
}

func (s *statueService) invalidate(ctx context.Context) {
	_ = s.cache.Delete(ctx, statueListCacheKey)
}

func (s *statueService) normalize(statue model.Statue) model.Statue {
	url := storage.PublicURL(s.baseURL, statue.ImageValue())
	statue.Image = &url
	return statue
}

func (s *statueService) normalizeAll(statues []model.Statue) []model.Statue {
	out := make([]model.Statue, len(statues))
	for i := range statues {
		out[i] = s.normalize(statues[i])
	}
	return out
}

func validateStatue(name, description string) error {
	switch {
	case name == "":
		return apperrors.Invalid("name", "is required")
	case utf8.RuneCountInString(name) > maxStatueNameLen:
		return apperrors.Invalid("name", fmt.Sprintf("must be at most %d characters", maxStatueNameLen))
	case description == "":
		return apperrors.Invalid("description", "is required")
	}
	return nil
}

// validateImage checks whichever image source will be stored: the upload when
// present, otherwise the image field, which must fit the image column.
func validateImage(field string, upload *Upload) error {
	if upload == nil {
		if utf8.RuneCountInString(strings.TrimSpace(field)) > maxImageRefLen {
			return apperrors.Invalid("image", fmt.Sprintf("must be at most %d characters", maxImageRefLen))
		}
		return nil
	}
	if upload.Reader == nil {
		return apperrors.Invalid("image", "file is empty")
	}
	if !storage.IsAllowedImage(upload.Filename) {
		return apperrors.Invalid("image", "must be a jpg, jpeg, png, gif or webp file")
	}
	return nil
}
