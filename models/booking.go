package models

import "time"

// DateLayout is the wire format for booking dates.
const DateLayout = "2006-01-02"

type Booking struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SpotID    uint      `gorm:"not null;index" json:"spotId"`
	Spot      *Spot     `gorm:"foreignKey:SpotID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	StartDate time.Time `gorm:"not null;index" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AllModels lists every table in migration order.
func AllModels() []any {
	return []any{&User{}, &Spot{}, &SpotImage{}, &Review{}, &ReviewImage{}, &Booking{}}
}
