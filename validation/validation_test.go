package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Username string   `json:"username" binding:"required,min=4,notemail"`
	Lat      *float64 `json:"lat" binding:"required,gte=-90,lte=90"`
}

var signupMessages = Messages{
	"email":             "Invalid email",
	"username":          "Username is required",
	"username.notemail": "Username cannot be an email.",
	"lat":               "Latitude must be within -90 and 90",
}

func ptr(f float64) *float64 { return &f }

func TestTranslateValidationErrors(t *testing.T) {
	Setup()

	tests := []struct {
		name string
		req  signupRequest
		want Errors
	}{
		{
			name: "all missing",
			req:  signupRequest{},
			want: Errors{
				"email":    "Invalid email",
				"username": "Username is required",
				"lat":      "Latitude must be within -90 and 90",
			},
		},
		{
			name: "username is an email",
			req:  signupRequest{Email: "a@b.io", Username: "demo@user.io", Lat: ptr(10)},
			want: Errors{"username": "Username cannot be an email."},
		},
		{
			name: "latitude out of range",
			req:  signupRequest{Email: "a@b.io", Username: "demo", Lat: ptr(91)},
			want: Errors{"lat": "Latitude must be within -90 and 90"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
			require.Error(t, err)
			got, ok := Translate(err, signupMessages)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStructValid(t *testing.T) {
	Setup()
	req := signupRequest{Email: "a@b.io", Username: "demo", Lat: ptr(0)}
	assert.NoError(t, Struct(&req))
}

func TestTranslateTypeError(t *testing.T) {
	var req struct {
		Stars int `json:"stars"`
	}
	err := json.Unmarshal([]byte(`{"stars":"five"}`), &req)
	require.Error(t, err)

	got, ok := Translate(err, Messages{"stars": "Stars must be an integer from 1 to 5"})
	require.True(t, ok)
	assert.Equal(t, Errors{"stars": "Stars must be an integer from 1 to 5"}, got)
}

func TestTranslateUnknownError(t *testing.T) {
	_, ok := Translate(errors.New("unexpected EOF"), nil)
	assert.False(t, ok)
}

func TestDefaultMessage(t *testing.T) {
	assert.Equal(t, "size is invalid", Messages{}.lookup("size", "min"))
}
