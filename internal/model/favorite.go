package model

import "time"

// Favorite links a user to a statue they bookmarked.
type Favorite struct {
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	StatueID  uint      `json:"statue_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`

	User   User   `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Statue Statue `json:"-" gorm:"foreignKey:StatueID;references:ID;constraint:OnDelete:CASCADE"`
}
