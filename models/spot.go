package models

import "time"

type Spot struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OwnerID     uint        `gorm:"not null;index" json:"ownerId"`
	Owner       *User       `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Address     string      `gorm:"not null" json:"address"`
	City        string      `gorm:"not null" json:"city"`
	State       string      `gorm:"not null" json:"state"`
	Country     string      `gorm:"not null" json:"country"`
	Lat         float64     `json:"lat"`
	Lng         float64     `json:"lng"`
	Name        string      `gorm:"size:50;not null" json:"name"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Price       float64     `gorm:"not null" json:"price"`
	SpotImages  []SpotImage `gorm:"foreignKey:SpotID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews     []Review    `gorm:"foreignKey:SpotID;constraint:OnDelete:CASCADE" json:"-"`
	Bookings    []Booking   `gorm:"foreignKey:SpotID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// OwnedBy reports whether userID created the spot.
func (s Spot) OwnedBy(userID uint) bool {
	return s.OwnerID == userID
}

type SpotImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SpotID    uint      `gorm:"not null;index" json:"spotId"`
	URL       string    `gorm:"not null" json:"url"`
	Preview   bool      `gorm:"not null;default:false" json:"preview"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
