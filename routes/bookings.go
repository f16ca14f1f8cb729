package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/spots-api/booking"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/metrics"
	"github.com/sidhant-sriv/spots-api/middleware"
	"github.com/sidhant-sriv/spots-api/models"
	"github.com/sidhant-sriv/spots-api/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// now is replaced in tests.
var now = time.Now

func BookingRoutes(api *gin.RouterGroup, DB *gorm.DB) {
	spots := api.Group("/spots")
	spots.Use(middleware.RequireAuth())
	{
		spots.GET("/:spotId/bookings", ListSpotBookings(DB))
		spots.POST("/:spotId/bookings", CreateBooking(DB))
	}

	bookings := api.Group("/bookings")
	bookings.Use(middleware.RequireAuth())
	{
		bookings.GET("/current", CurrentUserBookings(DB))
		bookings.PUT("/:bookingId", UpdateBooking(DB))
		bookings.DELETE("/:bookingId", DeleteBooking(DB))
	}
}

type bookingRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

var bookingMessages = validation.Messages{
	"startDate": "startDate is required",
	"endDate":   "endDate is required",
}

const conflictMessage = "Sorry, this spot is already booked for the specified dates"

// dates binds the request body and returns the validated range.
func (r *bookingRequest) dates(c *gin.Context) (start, end time.Time, ok bool) {
	if !bindJSON(c, r, bookingMessages) {
		return start, end, false
	}

	errs := validation.Errors{}
	start, err := booking.ParseDate(r.StartDate)
	if err != nil {
		errs["startDate"] = "startDate must be a date (YYYY-MM-DD)"
	}
	end, err = booking.ParseDate(r.EndDate)
	if err != nil {
		errs["endDate"] = "endDate must be a date (YYYY-MM-DD)"
	}
	if len(errs) > 0 {
		respondValidation(c, errs)
		return start, end, false
	}

	if err := booking.Validate(start, end, now()); err != nil {
		var rangeErr *booking.RangeError
		if errors.As(err, &rangeErr) {
			respondValidation(c, rangeErr.Fields)
		} else {
			respondInternal(c, err, "Failed to validate booking dates")
		}
		return start, end, false
	}
	return start, end, true
}

// reserve checks b against the spot's other bookings and runs write in the
// same transaction. On postgres the spot row is locked so concurrent
// reservations for one spot serialize.
func reserve(ctx context.Context, DB *gorm.DB, b *models.Booking, write func(tx *gorm.DB) error) error {
	return DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lock := tx
		if tx.Dialector.Name() == "postgres" {
			lock = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var spot models.Spot
		if err := lock.Select("id").First(&spot, b.SpotID).Error; err != nil {
			return err
		}

		var existing []models.Booking
		if err := tx.Where("spot_id = ?", b.SpotID).Find(&existing).Error; err != nil {
			return err
		}
		intervals := make([]booking.Interval, len(existing))
		for i, e := range existing {
			intervals[i] = booking.Interval{ID: e.ID, Start: e.StartDate, End: e.EndDate}
		}
		candidate := booking.Interval{ID: b.ID, Start: b.StartDate, End: b.EndDate}
		if err := booking.Check(candidate, intervals); err != nil {
			return err
		}
		return write(tx)
	})
}

// respondReserveError maps a reserve failure to a response.
func respondReserveError(c *gin.Context, err error, operation string) {
	var conflict *booking.ConflictError
	switch {
	case errors.As(err, &conflict):
		metrics.BookingConflicts.WithLabelValues(operation).Inc()
		logging.Ctx(c.Request.Context()).Info().
			Interface("conflicts_with", conflict.BookingIDs).
			Str("operation", operation).
			Msg("Booking rejected")
		respondError(c, http.StatusForbidden, conflictMessage, conflict.Fields())
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "Spot")
	default:
		respondInternal(c, err, "Failed to "+operation+" booking")
	}
}

// CreateBooking books a spot for the current user.
func CreateBooking(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		spot, ok := findByID[models.Spot](c, DB, "spotId", "Spot")
		if !ok {
			return
		}
		userID := middleware.GetUserID(c)
		if spot.OwnedBy(userID) {
			respondForbidden(c)
			return
		}

		var req bookingRequest
		start, end, ok := req.dates(c)
		if !ok {
			return
		}

		b := models.Booking{SpotID: spot.ID, UserID: userID, StartDate: start, EndDate: end}
		err := reserve(c.Request.Context(), DB, &b, func(tx *gorm.DB) error {
			return tx.Create(&b).Error
		})
		if err != nil {
			respondReserveError(c, err, "create")
			return
		}

		metrics.BookingsCreated.Inc()
		logging.Ctx(c.Request.Context()).Info().
			Uint("booking_id", b.ID).
			Uint("spot_id", spot.ID).
			Msg("Booking created")
		c.JSON(http.StatusCreated, b)
	}
}

// UpdateBooking moves the current user's booking to new dates.
func UpdateBooking(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, ok := findByID[models.Booking](c, DB, "bookingId", "Booking")
		if !ok {
			return
		}
		if b.UserID != middleware.GetUserID(c) {
			respondForbidden(c)
			return
		}
		if booking.Day(b.EndDate).Before(booking.Day(now())) {
			respondError(c, http.StatusForbidden, "Past bookings can't be modified", nil)
			return
		}

		var req bookingRequest
		start, end, ok := req.dates(c)
		if !ok {
			return
		}
		b.StartDate, b.EndDate = start, end

		err := reserve(c.Request.Context(), DB, b, func(tx *gorm.DB) error {
			return tx.Omit(clause.Associations).Save(b).Error
		})
		if err != nil {
			respondReserveError(c, err, "update")
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// DeleteBooking cancels a booking that has not started. The booker and the
// spot owner may cancel.
func DeleteBooking(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, ok := findByID[models.Booking](c, DB, "bookingId", "Booking")
		if !ok {
			return
		}
		gdb := DB.WithContext(c.Request.Context())

		userID := middleware.GetUserID(c)
		if b.UserID != userID {
			var spot models.Spot
			if err := gdb.Select("id", "owner_id").First(&spot, b.SpotID).Error; err != nil {
				respondInternal(c, err, "Failed to load booked spot")
				return
			}
			if !spot.OwnedBy(userID) {
				respondForbidden(c)
				return
			}
		}

		if !booking.Day(now()).Before(booking.Day(b.StartDate)) {
			respondError(c, http.StatusForbidden, "Bookings that have been started can't be deleted", nil)
			return
		}

		if err := gdb.Delete(&models.Booking{}, b.ID).Error; err != nil {
			respondInternal(c, err, "Failed to delete booking")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
	}
}

type ownerBookingView struct {
	User models.UserSummary `json:"User"`
	models.Booking
}

type guestBookingView struct {
	SpotID    uint      `json:"spotId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// ListSpotBookings shows the owner who booked; everyone else only sees the
// booked dates.
func ListSpotBookings(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		spot, ok := findByID[models.Spot](c, DB, "spotId", "Spot")
		if !ok {
			return
		}

		q := DB.WithContext(c.Request.Context()).Where("spot_id = ?", spot.ID).Order("start_date")
		owner := spot.OwnedBy(middleware.GetUserID(c))
		if owner {
			q = q.Preload("User")
		}

		var bookings []models.Booking
		if err := q.Find(&bookings).Error; err != nil {
			respondInternal(c, err, "Failed to list bookings")
			return
		}

		if owner {
			views := make([]ownerBookingView, len(bookings))
			for i, b := range bookings {
				views[i].Booking = b
				if b.User != nil {
					views[i].User = b.User.Summary()
				}
			}
			c.JSON(http.StatusOK, gin.H{"Bookings": views})
			return
		}

		views := make([]guestBookingView, len(bookings))
		for i, b := range bookings {
			views[i] = guestBookingView{SpotID: b.SpotID, StartDate: b.StartDate, EndDate: b.EndDate}
		}
		c.JSON(http.StatusOK, gin.H{"Bookings": views})
	}
}

type currentBookingView struct {
	models.Booking
	Spot *spotSummary `json:"Spot,omitempty"`
}

// CurrentUserBookings returns the current user's bookings with their spots.
func CurrentUserBookings(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var bookings []models.Booking
		err := DB.WithContext(ctx).
			Where("user_id = ?", middleware.GetUserID(c)).
			Order("start_date").
			Find(&bookings).Error
		if err != nil {
			respondInternal(c, err, "Failed to list bookings")
			return
		}

		ids := make([]uint, len(bookings))
		for i, b := range bookings {
			ids[i] = b.SpotID
		}
		spots, err := spotSummariesByID(ctx, DB, ids)
		if err != nil {
			respondInternal(c, err, "Failed to load booked spots")
			return
		}

		views := make([]currentBookingView, len(bookings))
		for i, b := range bookings {
			views[i].Booking = b
			if s, ok := spots[b.SpotID]; ok {
				views[i].Spot = &s
			}
		}
		c.JSON(http.StatusOK, gin.H{"Bookings": views})
	}
}
