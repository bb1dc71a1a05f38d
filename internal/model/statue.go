package model

import "time"

// Statue is a catalog entry. Image holds either a stored filename or an absolute URL.
type Statue struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Image       *string   `json:"image" gorm:"size:1024"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// ImageValue returns the stored image reference or an empty string.
func (s *Statue) ImageValue() string {
	if s.Image == nil {
		return ""
	}
	return *s.Image
}
