package models

import "time"

// MaxReviewImages caps how many images one review may carry.
const MaxReviewImages = 10

type Review struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	SpotID       uint          `gorm:"not null;uniqueIndex:idx_reviews_spot_user" json:"spotId"`
	Spot         *Spot         `gorm:"foreignKey:SpotID;constraint:OnDelete:CASCADE" json:"-"`
	UserID       uint          `gorm:"not null;uniqueIndex:idx_reviews_spot_user" json:"userId"`
	User         *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Review       string        `gorm:"type:text;not null" json:"review"`
	Stars        int           `gorm:"not null;check:stars >= 1 AND stars <= 5" json:"stars"`
	ReviewImages []ReviewImage `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type ReviewImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"not null;index" json:"reviewId"`
	URL       string    `gorm:"not null" json:"url"`
	Preview   bool      `gorm:"not null;default:false" json:"preview"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
