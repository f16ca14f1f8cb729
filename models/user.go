package models

import (
	"time"
)

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Username       string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	HashedPassword string    `gorm:"not null" json:"-"` // never serialized
	FirstName      string    `gorm:"size:30" json:"firstName"`
	LastName       string    `gorm:"size:30" json:"lastName"`
	Spots          []Spot    `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews        []Review  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Bookings       []Booking `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SafeUser is the public view of a User returned by session endpoints.
type SafeUser struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// UserSummary is embedded in spot, review and booking responses.
type UserSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (u User) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}
