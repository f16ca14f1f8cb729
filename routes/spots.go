package routes

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/spots-api/db"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/middleware"
	"github.com/sidhant-sriv/spots-api/models"
	"github.com/sidhant-sriv/spots-api/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPage = 1
	maxPage     = 10
	defaultSize = 20
	maxSize     = 20
)

// SpotRoutes sets up the routes for spot-related operations
func SpotRoutes(api *gin.RouterGroup, DB *gorm.DB) {
	spots := api.Group("/spots")
	{
		spots.GET("", ListSpots(DB))
		spots.GET("/current", middleware.RequireAuth(), CurrentUserSpots(DB))
		spots.GET("/:spotId", GetSpot(DB))
		spots.POST("", middleware.RequireAuth(), CreateSpot(DB))
		spots.PUT("/:spotId", middleware.RequireAuth(), UpdateSpot(DB))
		spots.DELETE("/:spotId", middleware.RequireAuth(), DeleteSpot(DB))
		spots.POST("/:spotId/images", middleware.RequireAuth(), AddSpotImage(DB))
	}
}

type spotRequest struct {
	Address     string   `json:"address" binding:"required"`
	City        string   `json:"city" binding:"required"`
	State       string   `json:"state" binding:"required"`
	Country     string   `json:"country" binding:"required"`
	Lat         *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng         *float64 `json:"lng" binding:"required,min=-180,max=180"`
	Name        string   `json:"name" binding:"required,max=49"`
	Description string   `json:"description" binding:"required"`
	Price       *float64 `json:"price" binding:"required,gt=0"`
}

var spotMessages = validation.Messages{
	"address":     "Street address is required",
	"city":        "City is required",
	"state":       "State is required",
	"country":     "Country is required",
	"lat":         "Latitude must be within -90 and 90",
	"lng":         "Longitude must be within -180 and 180",
	"name":        "Name must be less than 50 characters",
	"description": "Description is required",
	"price":       "Price per day must be a positive number",
}

func (r spotRequest) apply(spot *models.Spot) {
	spot.Address = r.Address
	spot.City = r.City
	spot.State = r.State
	spot.Country = r.Country
	spot.Lat = *r.Lat
	spot.Lng = *r.Lng
	spot.Name = r.Name
	spot.Description = r.Description
	spot.Price = *r.Price
}

type imageRequest struct {
	URL     string `json:"url" binding:"required,url"`
	Preview bool   `json:"preview"`
}

var imageMessages = validation.Messages{
	"url":     "Image url is required",
	"url.url": "Image url must be a valid url",
	"preview": "Preview must be a boolean",
}

// imageView is how spot images appear inside other resources.
type imageView struct {
	ID      uint   `json:"id"`
	URL     string `json:"url"`
	Preview bool   `json:"preview"`
}

// spotSummary is a spot as it appears in lists.
type spotSummary struct {
	models.Spot
	AvgRating    *float64 `json:"avgRating"`
	PreviewImage *string  `json:"previewImage"`
}

type spotDetail struct {
	models.Spot
	NumReviews    int64              `json:"numReviews"`
	AvgStarRating *float64           `json:"avgStarRating"`
	SpotImages    []imageView        `json:"SpotImages"`
	Owner         models.UserSummary `json:"Owner"`
}

// spotFilter holds the validated listing query.
type spotFilter struct {
	Page, Size         int
	MinLat, MaxLat     *float64
	MinLng, MaxLng     *float64
	MinPrice, MaxPrice *float64
}

func parseSpotFilter(c *gin.Context) (spotFilter, validation.Errors) {
	f := spotFilter{Page: defaultPage, Size: defaultSize}
	errs := validation.Errors{}

	parseInt := func(key string, dst *int, limit int, msg string) {
		raw, ok := c.GetQuery(key)
		if !ok {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs[key] = msg
			return
		}
		*dst = min(n, limit)
	}
	parseFloat := func(key string, dst **float64, lo, hi float64, msg string) {
		raw, ok := c.GetQuery(key)
		if !ok {
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || v < lo || v > hi {
			errs[key] = msg
			return
		}
		*dst = &v
	}

	parseInt("page", &f.Page, maxPage, "Page must be greater than or equal to 1")
	parseInt("size", &f.Size, maxSize, "Size must be greater than or equal to 1")
	parseFloat("minLat", &f.MinLat, -90, 90, "Minimum latitude is invalid")
	parseFloat("maxLat", &f.MaxLat, -90, 90, "Maximum latitude is invalid")
	parseFloat("minLng", &f.MinLng, -180, 180, "Minimum longitude is invalid")
	parseFloat("maxLng", &f.MaxLng, -180, 180, "Maximum longitude is invalid")
	parseFloat("minPrice", &f.MinPrice, 0, math.MaxFloat64, "Minimum price must be greater than or equal to 0")
	parseFloat("maxPrice", &f.MaxPrice, 0, math.MaxFloat64, "Maximum price must be greater than or equal to 0")

	return f, errs
}

func (f spotFilter) scope(q *gorm.DB) *gorm.DB {
	bounds := []struct {
		cond string
		v    *float64
	}{
		{"lat >= ?", f.MinLat},
		{"lat <= ?", f.MaxLat},
		{"lng >= ?", f.MinLng},
		{"lng <= ?", f.MaxLng},
		{"price >= ?", f.MinPrice},
		{"price <= ?", f.MaxPrice},
	}
	for _, b := range bounds {
		if b.v != nil {
			q = q.Where(b.cond, *b.v)
		}
	}
	return q.Order("id").Offset((f.Page - 1) * f.Size).Limit(f.Size)
}

// summarizeSpots attaches average ratings and preview image urls.
func summarizeSpots(ctx context.Context, DB *gorm.DB, spots []models.Spot) ([]spotSummary, error) {
	out := make([]spotSummary, len(spots))
	if len(spots) == 0 {
		return out, nil
	}

	ids := make([]uint, len(spots))
	for i, s := range spots {
		ids[i] = s.ID
	}

	var ratings []struct {
		SpotID uint
		Avg    float64
	}
	err := DB.WithContext(ctx).Model(&models.Review{}).
		Select("spot_id, AVG(stars) AS avg").
		Where("spot_id IN ?", ids).
		Group("spot_id").
		Scan(&ratings).Error
	if err != nil {
		return nil, err
	}
	avg := make(map[uint]float64, len(ratings))
	for _, r := range ratings {
		avg[r.SpotID] = r.Avg
	}

	var previews []models.SpotImage
	err = DB.WithContext(ctx).
		Where("spot_id IN ? AND preview = ?", ids, true).
		Order("id").
		Find(&previews).Error
	if err != nil {
		return nil, err
	}
	preview := make(map[uint]string, len(previews))
	for _, img := range previews {
		if _, seen := preview[img.SpotID]; !seen {
			preview[img.SpotID] = img.URL
		}
	}

	for i, s := range spots {
		out[i].Spot = s
		if a, ok := avg[s.ID]; ok {
			out[i].AvgRating = &a
		}
		if url, ok := preview[s.ID]; ok {
			out[i].PreviewImage = &url
		}
	}
	return out, nil
}

// ListSpots returns a filtered page of spots.
func ListSpots(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, errs := parseSpotFilter(c)
		if len(errs) > 0 {
			respondValidation(c, errs)
			return
		}

		var spots []models.Spot
		if err := filter.scope(DB.WithContext(c.Request.Context())).Find(&spots).Error; err != nil {
			respondInternal(c, err, "Failed to list spots")
			return
		}
		summaries, err := summarizeSpots(c.Request.Context(), DB, spots)
		if err != nil {
			respondInternal(c, err, "Failed to summarize spots")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"Spots": summaries,
			"page":  filter.Page,
			"size":  filter.Size,
		})
	}
}

// CurrentUserSpots returns every spot owned by the current user.
func CurrentUserSpots(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var spots []models.Spot
		err := DB.WithContext(c.Request.Context()).
			Where("owner_id = ?", middleware.GetUserID(c)).
			Order("id").
			Find(&spots).Error
		if err != nil {
			respondInternal(c, err, "Failed to list spots")
			return
		}
		summaries, err := summarizeSpots(c.Request.Context(), DB, spots)
		if err != nil {
			respondInternal(c, err, "Failed to summarize spots")
			return
		}
		c.JSON(http.StatusOK, gin.H{"Spots": summaries})
	}
}

// GetSpot returns one spot with its images, owner and review stats.
func GetSpot(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		spot, ok := findByID[models.Spot](c, DB, "spotId", "Spot")
		if !ok {
			return
		}
		gdb := DB.WithContext(c.Request.Context())

		var stats struct {
			Num int64
			Avg *float64
		}
		err := gdb.Model(&models.Review{}).
			Select("COUNT(*) AS num, AVG(stars) AS avg").
			Where("spot_id = ?", spot.ID).
			Scan(&stats).Error
		if err != nil {
			respondInternal(c, err, "Failed to load review stats")
			return
		}

		var images []models.SpotImage
		if err := gdb.Where("spot_id = ?", spot.ID).Order("id").Find(&images).Error; err != nil {
			respondInternal(c, err, "Failed to load spot images")
			return
		}

		var owner models.User
		if err := gdb.First(&owner, spot.OwnerID).Error; err != nil {
			respondInternal(c, err, "Failed to load spot owner")
			return
		}

		detail := spotDetail{
			Spot:          *spot,
			NumReviews:    stats.Num,
			AvgStarRating: stats.Avg,
			SpotImages:    make([]imageView, len(images)),
			Owner:         owner.Summary(),
		}
		for i, img := range images {
			detail.SpotImages[i] = imageView{ID: img.ID, URL: img.URL, Preview: img.Preview}
		}
		c.JSON(http.StatusOK, detail)
	}
}

// CreateSpot handles the creation of a new spot owned by the current user
func CreateSpot(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req spotRequest
		if !bindJSON(c, &req, spotMessages) {
			return
		}

		spot := models.Spot{OwnerID: middleware.GetUserID(c)}
		req.apply(&spot)
		if err := DB.WithContext(c.Request.Context()).Create(&spot).Error; err != nil {
			respondInternal(c, err, "Failed to create spot")
			return
		}

		logging.Ctx(c.Request.Context()).Info().Uint("spot_id", spot.ID).Msg("Spot created")
		c.JSON(http.StatusCreated, spot)
	}
}

// loadOwnedSpot loads the spot in the path and checks the current user owns it.
func loadOwnedSpot(c *gin.Context, DB *gorm.DB) (*models.Spot, bool) {
	spot, ok := findByID[models.Spot](c, DB, "spotId", "Spot")
	if !ok {
		return nil, false
	}
	if !spot.OwnedBy(middleware.GetUserID(c)) {
		respondForbidden(c)
		return nil, false
	}
	return spot, true
}

// UpdateSpot replaces every editable field of a spot
func UpdateSpot(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		spot, ok := loadOwnedSpot(c, DB)
		if !ok {
			return
		}

		var req spotRequest
		if !bindJSON(c, &req, spotMessages) {
			return
		}
		req.apply(spot)

		if err := DB.WithContext(c.Request.Context()).Omit(clause.Associations).Save(spot).Error; err != nil {
			respondInternal(c, err, "Failed to update spot")
			return
		}
		c.JSON(http.StatusOK, spot)
	}
}

// DeleteSpot removes a spot and everything that hangs off it
func DeleteSpot(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		spot, ok := loadOwnedSpot(c, DB)
		if !ok {
			return
		}

		if err := db.DeleteSpot(DB.WithContext(c.Request.Context()), spot.ID); err != nil {
			respondInternal(c, err, "Failed to delete spot")
			return
		}

		logging.Ctx(c.Request.Context()).Info().Uint("spot_id", spot.ID).Msg("Spot deleted")
		c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
	}
}

// AddSpotImage attaches an image url to a spot the current user owns.
func AddSpotImage(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		spot, ok := loadOwnedSpot(c, DB)
		if !ok {
			return
		}

		var req imageRequest
		if !bindJSON(c, &req, imageMessages) {
			return
		}

		image := models.SpotImage{SpotID: spot.ID, URL: req.URL, Preview: req.Preview}
		if err := DB.WithContext(c.Request.Context()).Create(&image).Error; err != nil {
			respondInternal(c, err, "Failed to add spot image")
			return
		}
		c.JSON(http.StatusOK, imageView{ID: image.ID, URL: image.URL, Preview: image.Preview})
	}
}
