package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/spots-api/db"
	"github.com/sidhant-sriv/spots-api/middleware"
	"github.com/sidhant-sriv/spots-api/models"
	"github.com/sidhant-sriv/spots-api/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func ReviewRoutes(api *gin.RouterGroup, DB *gorm.DB) {
	spots := api.Group("/spots")
	{
		spots.GET("/:spotId/reviews", ListSpotReviews(DB))
		spots.POST("/:spotId/reviews", middleware.RequireAuth(), CreateReview(DB))
	}

	reviews := api.Group("/reviews")
	reviews.Use(middleware.RequireAuth())
	{
		reviews.GET("/current", CurrentUserReviews(DB))
		reviews.PUT("/:reviewId", UpdateReview(DB))
		reviews.DELETE("/:reviewId", DeleteReview(DB))
		reviews.POST("/:reviewId/images", AddReviewImage(DB))
	}
}

type reviewRequest struct {
	Review string `json:"review" binding:"required"`
	Stars  int    `json:"stars" binding:"required,min=1,max=5"`
}

var reviewMessages = validation.Messages{
	"review": "Review text is required",
	"stars":  "Stars must be an integer from 1 to 5",
}

type reviewImageView struct {
	ID  uint   `json:"id"`
	URL string `json:"url"`
}

type reviewView struct {
	models.Review
	User         models.UserSummary `json:"User"`
	Spot         *spotSummary       `json:"Spot,omitempty"`
	ReviewImages []reviewImageView  `json:"ReviewImages"`
}

func newReviewView(r models.Review) reviewView {
	v := reviewView{Review: r, ReviewImages: make([]reviewImageView, len(r.ReviewImages))}
	if r.User != nil {
		v.User = r.User.Summary()
	}
	for i, img := range r.ReviewImages {
		v.ReviewImages[i] = reviewImageView{ID: img.ID, URL: img.URL}
	}
	return v
}

// loadReviews runs q with the author and images preloaded.
func loadReviews(ctx context.Context, q *gorm.DB) ([]models.Review, error) {
	var reviews []models.Review
	err := q.WithContext(ctx).
		Preload("User").
		Preload("ReviewImages", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Order("id").
		Find(&reviews).Error
	return reviews, err
}

// ListSpotReviews returns every review of a spot.
func ListSpotReviews(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		spot, ok := findByID[models.Spot](c, DB, "spotId", "Spot")
		if !ok {
			return
		}

		reviews, err := loadReviews(c.Request.Context(), DB.Where("spot_id = ?", spot.ID))
		if err != nil {
			respondInternal(c, err, "Failed to list reviews")
			return
		}

		views := make([]reviewView, len(reviews))
		for i, r := range reviews {
			views[i] = newReviewView(r)
		}
		c.JSON(http.StatusOK, gin.H{"Reviews": views})
	}
}

// CurrentUserReviews returns the current user's reviews with their spots.
func CurrentUserReviews(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		reviews, err := loadReviews(ctx, DB.Where("user_id = ?", middleware.GetUserID(c)))
		if err != nil {
			respondInternal(c, err, "Failed to list reviews")
			return
		}

		spots, err := spotSummariesByID(ctx, DB, reviewSpotIDs(reviews))
		if err != nil {
			respondInternal(c, err, "Failed to load reviewed spots")
			return
		}

		views := make([]reviewView, len(reviews))
		for i, r := range reviews {
			views[i] = newReviewView(r)
			if s, ok := spots[r.SpotID]; ok {
				views[i].Spot = &s
			}
		}
		c.JSON(http.StatusOK, gin.H{"Reviews": views})
	}
}

func reviewSpotIDs(reviews []models.Review) []uint {
	ids := make([]uint, len(reviews))
	for i, r := range reviews {
		ids[i] = r.SpotID
	}
	return ids
}

// spotSummariesByID loads and summarizes the given spots keyed by id.
func spotSummariesByID(ctx context.Context, DB *gorm.DB, ids []uint) (map[uint]spotSummary, error) {
	out := map[uint]spotSummary{}
	if len(ids) == 0 {
		return out, nil
	}
	var spots []models.Spot
	if err := DB.WithContext(ctx).Where("id IN ?", ids).Find(&spots).Error; err != nil {
		return nil, err
	}
	summaries, err := summarizeSpots(ctx, DB, spots)
	if err != nil {
		return nil, err
	}
	for _, s := range summaries {
		out[s.ID] = s
	}
	return out, nil
}

// CreateReview adds the current user's review of a spot. A user may review a
// spot once.
func CreateReview(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		spot, ok := findByID[models.Spot](c, DB, "spotId", "Spot")
		if !ok {
			return
		}

		var req reviewRequest
		if !bindJSON(c, &req, reviewMessages) {
			return
		}

		userID := middleware.GetUserID(c)
		gdb := DB.WithContext(c.Request.Context())

		var existing int64
		if err := gdb.Model(&models.Review{}).Where("spot_id = ? AND user_id = ?", spot.ID, userID).Count(&existing).Error; err != nil {
			respondInternal(c, err, "Failed to check existing reviews")
			return
		}
		if existing > 0 {
			respondError(c, http.StatusInternalServerError, "User already has a review for this spot", nil)
			return
		}

		review := models.Review{SpotID: spot.ID, UserID: userID, Review: req.Review, Stars: req.Stars}
		if err := gdb.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				respondError(c, http.StatusInternalServerError, "User already has a review for this spot", nil)
				return
			}
			respondInternal(c, err, "Failed to create review")
			return
		}
		c.JSON(http.StatusCreated, review)
	}
}

// loadOwnReview loads the review in the path and checks the current user wrote it.
func loadOwnReview(c *gin.Context, DB *gorm.DB) (*models.Review, bool) {
	review, ok := findByID[models.Review](c, DB, "reviewId", "Review")
	if !ok {
		return nil, false
	}
	if review.UserID != middleware.GetUserID(c) {
		respondForbidden(c)
		return nil, false
	}
	return review, true
}

func UpdateReview(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		review, ok := loadOwnReview(c, DB)
		if !ok {
			return
		}

		var req reviewRequest
		if !bindJSON(c, &req, reviewMessages) {
			return
		}
		review.Review = req.Review
		review.Stars = req.Stars

		if err := DB.WithContext(c.Request.Context()).Omit(clause.Associations).Save(review).Error; err != nil {
			respondInternal(c, err, "Failed to update review")
			return
		}
		c.JSON(http.StatusOK, review)
	}
}

func DeleteReview(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		review, ok := loadOwnReview(c, DB)
		if !ok {
			return
		}
		if err := db.DeleteReview(DB.WithContext(c.Request.Context()), review.ID); err != nil {
			respondInternal(c, err, "Failed to delete review")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
	}
}

// AddReviewImage attaches an image to the current user's review, up to
// models.MaxReviewImages.
func AddReviewImage(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		review, ok := loadOwnReview(c, DB)
		if !ok {
			return
		}
		gdb := DB.WithContext(c.Request.Context())

		var count int64
		if err := gdb.Model(&models.ReviewImage{}).Where("review_id = ?", review.ID).Count(&count).Error; err != nil {
			respondInternal(c, err, "Failed to count review images")
			return
		}
		if count >= models.MaxReviewImages {
			respondError(c, http.StatusForbidden, "Maximum number of images for this resource was reached", nil)
			return
		}

		var req imageRequest
		if !bindJSON(c, &req, imageMessages) {
			return
		}

		image := models.ReviewImage{ReviewID: review.ID, URL: req.URL, Preview: req.Preview}
		if err := gdb.Create(&image).Error; err != nil {
			respondInternal(c, err, "Failed to add review image")
			return
		}
		c.JSON(http.StatusOK, reviewImageView{ID: image.ID, URL: image.URL})
	}
}
