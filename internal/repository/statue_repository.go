package repository

import (
	"context"

	"gorm.io/gorm"

	"statues/internal/model"
)

// StatueRepository defines catalog persistence operations.
type StatueRepository interface {
	Create(ctx context.Context, statue *model.Statue) error
	Update(ctx context.Context, statue *model.Statue) error
	Delete(ctx context.Context, id uint) (bool, error)
	FindByID(ctx context.Context, id uint) (*model.Statue, error)
	FindByName(ctx context.Context, name string) (*model.Statue, error)
	List(ctx context.Context) ([]model.Statue, error)
}

type statueRepository struct {
	db *gorm.DB
}

// NewStatueRepository creates a new statue repository.
func NewStatueRepository(db *gorm.DB) StatueRepository {
	return &statueRepository{db: db}
}

// Create inserts a statue and fills in its ID.
func (r *statueRepository) Create(ctx context.Context, statue *model.Statue) error {
	return r.db.WithContext(ctx).Create(statue).Error
}

// Update writes every column of an existing statue. Concurrent updates are last-write-wins.
func (r *statueRepository) Update(ctx context.Context, statue *model.Statue) error {
	return r.db.WithContext(ctx).Model(statue).
		Select("name", "description", "image", "updated_at").
		Updates(statue).Error
}

// Delete removes a statue and reports whether a row existed.
func (r *statueRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Statue{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindByID finds a statue by ID.
func (r *statueRepository) FindByID(ctx context.Context, id uint) (*model.Statue, error) {
	var statue model.Statue
	if err := r.db.WithContext(ctx).First(&statue, id).Error; err != nil {
		return nil, err
	}
	return &statue, nil
}

// FindByName finds the first statue with the given name.
func (r *statueRepository) FindByName(ctx context.Context, name string) (*model.Statue, error) {
	var statue model.Statue
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&statue).Error; err != nil {
		return nil, err
	}
	return &statue, nil
}

// List returns every statue ordered by ID.
func (r *statueRepository) List(ctx context.Context) ([]model.Statue, error) {
	statues := []model.Statue{}
	if err := r.db.WithContext(ctx).Order("id").Find(&statues).Error; err != nil {
		return nil, err
	}
	return statues, nil
}
