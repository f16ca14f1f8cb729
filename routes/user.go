// routes with all the user related operations using gin
package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/middleware"
	"github.com/sidhant-sriv/spots-api/models"
	"github.com/sidhant-sriv/spots-api/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func UserRoutes(api *gin.RouterGroup, DB *gorm.DB, sessions *middleware.Sessions) {
	api.POST("/users", Signup(DB, sessions))
}

type signupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required,min=4,notemail"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"required,min=2"`
	LastName  string `json:"lastName" binding:"required,min=2"`
}

var signupMessages = validation.Messages{
	"email":             "Invalid email",
	"username":          "Username is required",
	"username.notemail": "Username cannot be an email.",
	"password":          "Password must be 6 characters or more.",
	"firstName":         "First Name is required",
	"lastName":          "Last Name is required",
}

// Signup creates a user and logs them in.
func Signup(DB *gorm.DB, sessions *middleware.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if !bindJSON(c, &req, signupMessages) {
			return
		}
		gdb := DB.WithContext(c.Request.Context())

		// Check both unique columns first so the response names the field.
		for _, unique := range []struct{ column, value string }{
			{"email", req.Email},
			{"username", req.Username},
		} {
			var n int64
			if err := gdb.Model(&models.User{}).Where(unique.column+" = ?", unique.value).Count(&n).Error; err != nil {
				respondInternal(c, err, "Failed to check existing users")
				return
			}
			if n > 0 {
				respondError(c, http.StatusInternalServerError, "User already exists", validation.Errors{
					unique.column: "User with that " + unique.column + " already exists",
				})
				return
			}
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondInternal(c, err, "Failed to hash password")
			return
		}

		user := models.User{
			Email:          req.Email,
			Username:       req.Username,
			HashedPassword: string(hashedPassword),
			FirstName:      req.FirstName,
			LastName:       req.LastName,
		}
		if err := gdb.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				respondError(c, http.StatusInternalServerError, "User already exists", nil)
				return
			}
			respondInternal(c, err, "Failed to create user")
			return
		}

		if err := sessions.SetTokenCookie(c, user.ID); err != nil {
			respondInternal(c, err, "Failed to issue session token")
			return
		}
		logging.Ctx(c.Request.Context()).Info().Uint("user_id", user.ID).Msg("User signed up")
		c.JSON(http.StatusCreated, gin.H{"user": user.Safe()})
	}
}
