package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"statues/internal/model"
)

// FavoriteRepository defines persistence for the user/statue bookmark links.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, statueID uint) error
	Remove(ctx context.Context, userID, statueID uint) error
	Exists(ctx context.Context, userID, statueID uint) (bool, error)
	ListStatues(ctx context.Context, userID uint) ([]model.Statue, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository.
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Add inserts the link. A duplicate pair surfaces as gorm.ErrDuplicatedKey.
func (r *favoriteRepository) Add(ctx context.Context, userID, statueID uint) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).
		Create(&model.Favorite{UserID: userID, StatueID: statueID}).Error
}

// Remove deletes the link if present.
func (r *favoriteRepository) Remove(ctx context.Context, userID, statueID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND statue_id = ?", userID, statueID).
		Delete(&model.Favorite{}).Error
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, statueID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("user_id = ? AND statue_id = ?", userID, statueID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListStatues returns the statues the user bookmarked, oldest bookmark first.
func (r *favoriteRepository) ListStatues(ctx context.Context, userID uint) ([]model.Statue, error) {
	statues := []model.Statue{}
	err := r.db.WithContext(ctx).
		Model(&model.Statue{}).
		Select("statues.*").
		Joins("JOIN favorites ON favorites.statue_id = statues.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at, statues.id").
		Find(&statues).Error
	if err != nil {
		return nil, err
	}
	return statues, nil
}
