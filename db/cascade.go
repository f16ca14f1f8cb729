package db

import (
	"fmt"

	"github.com/sidhant-sriv/spots-api/models"
	"gorm.io/gorm"
)

// DeleteSpot removes a spot with its images, reviews (and their images) and
// bookings in one transaction. The foreign keys cascade as well; deleting
// explicitly keeps the behaviour independent of the dialect's FK support.
func DeleteSpot(DB *gorm.DB, spotID uint) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("spot_id = ?", spotID)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&models.ReviewImage{}).Error; err != nil {
			return fmt.Errorf("delete review images: %w", err)
		}
		if err := tx.Where("spot_id = ?", spotID).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		if err := tx.Where("spot_id = ?", spotID).Delete(&models.Booking{}).Error; err != nil {
			return fmt.Errorf("delete bookings: %w", err)
		}
		if err := tx.Where("spot_id = ?", spotID).Delete(&models.SpotImage{}).Error; err != nil {
			return fmt.Errorf("delete spot images: %w", err)
		}
		if err := tx.Delete(&models.Spot{}, spotID).Error; err != nil {
			return fmt.Errorf("delete spot: %w", err)
		}
		return nil
	})
}

// DeleteReview removes a review and its images.
func DeleteReview(DB *gorm.DB, reviewID uint) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", reviewID).Delete(&models.ReviewImage{}).Error; err != nil {
			return fmt.Errorf("delete review images: %w", err)
		}
		if err := tx.Delete(&models.Review{}, reviewID).Error; err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		return nil
	})
}
