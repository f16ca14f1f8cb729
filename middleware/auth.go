// middleware/auth.go
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sidhant-sriv/spots-api/config"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/models"
	"gorm.io/gorm"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
	tokenType = "session"
)

var ErrInvalidToken = errors.New("invalid session token")

// Sessions issues and reads the signed session cookie.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	cookie string
	secure bool
}

func NewSessions(cfg config.AuthConfig) *Sessions {
	name := cfg.CookieName
	if name == "" {
		name = "token"
	}
	return &Sessions{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		cookie: name,
		secure: cfg.CookieSecure,
	}
}

// IssueToken signs a session token for userID.
func (s *Sessions) IssueToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.ttl).Unix(),
		"iat":     now.Unix(),
		"type":    tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token and returns the user id it was issued for.
func (s *Sessions) ParseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if claims["type"] != tokenType {
		return 0, fmt.Errorf("%w: wrong token type", ErrInvalidToken)
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return uint(id), nil
}

// SetTokenCookie signs a token for userID and stores it in the session cookie.
func (s *Sessions) SetTokenCookie(c *gin.Context, userID uint) error {
	token, err := s.IssueToken(userID)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookie, token, int(s.ttl.Seconds()), "/", "", s.secure, true)
	return nil
}

// ClearTokenCookie expires the session cookie.
func (s *Sessions) ClearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookie, "", -1, "/", "", s.secure, true)
}

// RestoreUser loads the user named by the session cookie, if any. Requests
// with a bad token or an unknown user continue anonymously and lose the
// cookie.
func (s *Sessions) RestoreUser(DB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(s.cookie)
		if err != nil || tokenString == "" {
			c.Next()
			return
		}

		userID, err := s.ParseToken(tokenString)
		if err != nil {
			logging.Ctx(c.Request.Context()).Debug().Err(err).Msg("Discarding session cookie")
			s.ClearTokenCookie(c)
			c.Next()
			return
		}

		var user models.User
		if err := DB.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logging.Ctx(c.Request.Context()).Error().Err(err).Uint("user_id", userID).Msg("Failed to restore session user")
			}
			s.ClearTokenCookie(c)
			c.Next()
			return
		}

		c.Set(userKey, &user)
		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

// RequireAuth rejects requests without a restored user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user restored for this request or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, exists := c.Get(userKey)
	if !exists {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// GetUserID retrieves the authenticated user ID from the Gin context
func GetUserID(c *gin.Context) uint {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return 0
	}
	return userID.(uint)
}
