package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"statues/internal/auth"
	apperrors "statues/internal/errors"
	"statues/internal/model"
	"statues/internal/repository"
	"statues/internal/storage"
)

// FavoriteService manages each user's bookmarked statues.
type FavoriteService interface {
	Add(ctx context.Context, session *auth.Session, statueID uint) error
	Remove(ctx context.Context, session *auth.Session, statueID uint) error
	List(ctx context.Context, session *auth.Session) ([]model.Statue, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	statueRepo   repository.StatueRepository
	baseURL      string
}

// NewFavoriteService creates a new favorite service.
func NewFavoriteService(favoriteRepo repository.FavoriteRepository, statueRepo repository.StatueRepository, baseURL string) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		statueRepo:   statueRepo,
		baseURL:      baseURL,
	}
}

// Add bookmarks a statue for the session's user. A pair can exist only once.
func (s *favoriteService) Add(ctx context.Context, session *auth.Session, statueID uint) error {
	if session == nil {
		return apperrors.ErrUnauthorized
	}

	if _, err := s.statueRepo.FindByID(ctx, statueID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrStatueNotFound
		}
		return storeErr("find statue", err)
	}

	exists, err := s.favoriteRepo.Exists(ctx, session.UserID, statueID)
	if err != nil {
		return storeErr("check favorite", err)
	}
	if exists {
		return apperrors.Conflict("statue already in favorites")
	}

	if err := s.favoriteRepo.Add(ctx, session.UserID, statueID); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return apperrors.Conflict("statue already in favorites")
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			// The statue was deleted in between.
			return apperrors.ErrStatueNotFound
		}
		return storeErr("add favorite", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": session.UserID, "statue_id": statueID}).Info("favorite added")
	return nil
}

// Remove drops the bookmark. Removing a missing one succeeds.
func (s *favoriteService) Remove(ctx context.Context, session *auth.Session, statueID uint) error {
	if session == nil {
		return apperrors.ErrUnauthorized
	}
	if err := s.favoriteRepo.Remove(ctx, session.UserID, statueID); err != nil {
		return storeErr("remove favorite", err)
	}

	logrus.WithFields(logrus.Fields{"user_id": session.UserID, "statue_id": statueID}).Info("favorite removed")
	return nil
}

// List returns the caller's favorites, oldest bookmark first.
func (s *favoriteService) List(ctx context.Context, session *auth.Session) ([]model.Statue, error) {
	if session == nil {
		return nil, apperrors.ErrUnauthorized
	}
	statues, err := s.favoriteRepo.ListStatues(ctx, session.UserID)
	if err != nil {
		return nil, storeErr("list favorites", err)
	}
	for i := range statues {
		url := storage.PublicURL(s.baseURL, statues[i].ImageValue())
		statues[i].Image = &url
	}
	return statues, nil
}
