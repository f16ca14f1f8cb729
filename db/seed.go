package db

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/sidhant-sriv/spots-api/booking"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

//go:embed seed.json
var seedData []byte

// Fixture ids (ownerId, spotId, ...) are 1-based positions in their lists.
type seedFile struct {
	Users []struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Password  string `json:"password"`
	} `json:"users"`
	Spots []struct {
		OwnerID     int     `json:"ownerId"`
		Address     string  `json:"address"`
		City        string  `json:"city"`
		State       string  `json:"state"`
		Country     string  `json:"country"`
		Lat         float64 `json:"lat"`
		Lng         float64 `json:"lng"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
	} `json:"spots"`
	SpotImages []struct {
		SpotID  int    `json:"spotId"`
		URL     string `json:"url"`
		Preview bool   `json:"preview"`
	} `json:"spotImages"`
	Reviews []struct {
		SpotID int    `json:"spotId"`
		UserID int    `json:"userId"`
		Review string `json:"review"`
		Stars  int    `json:"stars"`
	} `json:"reviews"`
	ReviewImages []struct {
		ReviewID int    `json:"reviewId"`
		URL      string `json:"url"`
		Preview  bool   `json:"preview"`
	} `json:"reviewImages"`
	Bookings []struct {
		SpotID    int    `json:"spotId"`
		UserID    int    `json:"userId"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"bookings"`
}

// Seed loads the demo data set. It does nothing when any user exists.
func Seed(DB *gorm.DB) error {
	var count int64
	if err := DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		logging.Info().Int64("users", count).Msg("Database already populated, skipping seed")
		return nil
	}

	var data seedFile
	if err := json.Unmarshal(seedData, &data); err != nil {
		return fmt.Errorf("decode seed data: %w", err)
	}

	err := DB.Transaction(func(tx *gorm.DB) error {
		userIDs := make([]uint, len(data.Users))
		for i, u := range data.Users {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.Username, err)
			}
			user := models.User{
				Email:          u.Email,
				Username:       u.Username,
				FirstName:      u.FirstName,
				LastName:       u.LastName,
				HashedPassword: string(hash),
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("create user %s: %w", u.Username, err)
			}
			userIDs[i] = user.ID
		}

		spotIDs := make([]uint, len(data.Spots))
		for i, s := range data.Spots {
			spot := models.Spot{
				OwnerID:     userIDs[s.OwnerID-1],
				Address:     s.Address,
				City:        s.City,
				State:       s.State,
				Country:     s.Country,
				Lat:         s.Lat,
				Lng:         s.Lng,
				Name:        s.Name,
				Description: s.Description,
				Price:       s.Price,
			}
			if err := tx.Create(&spot).Error; err != nil {
				return fmt.Errorf("create spot %s: %w", s.Name, err)
			}
			spotIDs[i] = spot.ID
		}

		for _, img := range data.SpotImages {
			image := models.SpotImage{SpotID: spotIDs[img.SpotID-1], URL: img.URL, Preview: img.Preview}
			if err := tx.Create(&image).Error; err != nil {
				return fmt.Errorf("create spot image: %w", err)
			}
		}

		reviewIDs := make([]uint, len(data.Reviews))
		for i, r := range data.Reviews {
			review := models.Review{
				SpotID: spotIDs[r.SpotID-1],
				UserID: userIDs[r.UserID-1],
				Review: r.Review,
				Stars:  r.Stars,
			}
			if err := tx.Create(&review).Error; err != nil {
				return fmt.Errorf("create review: %w", err)
			}
			reviewIDs[i] = review.ID
		}

		for _, img := range data.ReviewImages {
			image := models.ReviewImage{ReviewID: reviewIDs[img.ReviewID-1], URL: img.URL, Preview: img.Preview}
			if err := tx.Create(&image).Error; err != nil {
				return fmt.Errorf("create review image: %w", err)
			}
		}

		for _, b := range data.Bookings {
			start, err := booking.ParseDate(b.StartDate)
			if err != nil {
				return err
			}
			end, err := booking.ParseDate(b.EndDate)
			if err != nil {
				return err
			}
			row := models.Booking{
				SpotID:    spotIDs[b.SpotID-1],
				UserID:    userIDs[b.UserID-1],
				StartDate: start,
				EndDate:   end,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Info().
		Int("users", len(data.Users)).
		Int("spots", len(data.Spots)).
		Int("bookings", len(data.Bookings)).
		Msg("Database seeded")
	return nil
}
