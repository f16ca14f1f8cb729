package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/spots-api/middleware"
	"github.com/sidhant-sriv/spots-api/models"
	"gorm.io/gorm"
)

func ImageRoutes(api *gin.RouterGroup, DB *gorm.DB) {
	api.DELETE("/spot-images/:imageId", middleware.RequireAuth(), DeleteSpotImage(DB))
	api.DELETE("/review-images/:imageId", middleware.RequireAuth(), DeleteReviewImage(DB))
}

// DeleteSpotImage removes an image from a spot the current user owns.
func DeleteSpotImage(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		image, ok := findByID[models.SpotImage](c, DB, "imageId", "Spot Image")
		if !ok {
			return
		}
		gdb := DB.WithContext(c.Request.Context())

		var spot models.Spot
		if err := gdb.First(&spot, image.SpotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondNotFound(c, "Spot")
				return
			}
			respondInternal(c, err, "Failed to load spot")
			return
		}
		if !spot.OwnedBy(middleware.GetUserID(c)) {
			respondForbidden(c)
			return
		}

		if err := gdb.Delete(image).Error; err != nil {
			respondInternal(c, err, "Failed to delete spot image")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
	}
}

// DeleteReviewImage removes an image from a review the current user wrote.
func DeleteReviewImage(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		image, ok := findByID[models.ReviewImage](c, DB, "imageId", "Review Image")
		if !ok {
			return
		}
		gdb := DB.WithContext(c.Request.Context())

		var review models.Review
		if err := gdb.First(&review, image.ReviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondNotFound(c, "Review")
				return
			}
			respondInternal(c, err, "Failed to load review")
			return
		}
		if review.UserID != middleware.GetUserID(c) {
			respondForbidden(c)
			return
		}

		if err := gdb.Delete(image).Error; err != nil {
			respondInternal(c, err, "Failed to delete review image")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
	}
}
