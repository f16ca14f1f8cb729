// routes/auth.go
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

// SessionRoutes sets up /session: restore, login and logout.
func SessionRoutes(api *gin.RouterGroup, DB *gorm.DB, sessions *middleware.Sessions) {
	session := api.Group("/session")
	{
		session.GET("", GetSession())
		session.POST("", Login(DB, sessions))
		session.DELETE("", Logout(sessions))
	}
}

type loginRequest struct {
	Credential string `json:"credential" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

var loginMessages = validation.Messages{
	"credential": "Email or username is required",
	"password":   "Password is required",
}

// GetSession returns the restored user, or null when logged out.
func GetSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Safe()})
	}
}

// Login checks a credential (email or username) and password and sets the
// session cookie.
func Login(DB *gorm.DB, sessions *middleware.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req, loginMessages) {
			return
		}

		var user models.User
		err := DB.WithContext(c.Request.Context()).
			Where("email = ? OR username = ?", req.Credential, req.Credential).
			First(&user).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			respondInternal(c, err, "Database error during login")
			return
		}
		if err != nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
			logging.Ctx(c.Request.Context()).Info().Str("credential", req.Credential).Msg("Login failed")
			respondError(c, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}

		if err := sessions.SetTokenCookie(c, user.ID); err != nil {
			respondInternal(c, err, "Failed to issue session token")
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Safe()})
	}
}

func Logout(sessions *middleware.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions.ClearTokenCookie(c)
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	}
}
