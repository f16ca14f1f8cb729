package routes

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/sidhant-sriv/spots-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spotJSON struct {
	ID           uint     `json:"id"`
	OwnerID      uint     `json:"ownerId"`
	Name         string   `json:"name"`
	Lat          float64  `json:"lat"`
	Price        float64  `json:"price"`
	AvgRating    *float64 `json:"avgRating"`
	PreviewImage *string  `json:"previewImage"`
}

type spotListBody struct {
	Spots []spotJSON `json:"Spots"`
	Page  int        `json:"page"`
	Size  int        `json:"size"`
}

func validSpot() map[string]any {
	return map[string]any{
		"address":     "123 Disney Lane",
		"city":        "San Francisco",
		"state":       "California",
		"country":     "United States of America",
		"lat":         37.7645358,
		"lng":         -122.4730327,
		"name":        "App Academy",
		"description": "Place where web developers are created",
		"price":       123,
	}
}

type spotDetailJSON struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	NumReviews    int64    `json:"numReviews"`
	AvgStarRating *float64 `json:"avgStarRating"`
	SpotImages    []struct {
		ID      uint   `json:"id"`
		URL     string `json:"url"`
		Preview bool   `json:"preview"`
	} `json:"SpotImages"`
	Owner struct {
		ID        uint   `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"Owner"`
}

func spotIDs(spots []spotJSON) []uint {
	ids := make([]uint, len(spots))
	for i, s := range spots {
		ids[i] = s.ID
	}
	return ids
}

func TestListSpots(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/spots", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[spotListBody](t, w)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 20, body.Size)
	require.Len(t, body.Spots, 3)

	cabin := body.Spots[0]
	assert.Equal(t, "Cozy Cabin", cabin.Name)
	require.NotNil(t, cabin.AvgRating)
	assert.InDelta(t, 4.0, *cabin.AvgRating, 1e-9)
	require.NotNil(t, cabin.PreviewImage)
	assert.Equal(t, "image-1.jpg", *cabin.PreviewImage)

	// the loft's only image is not a preview
	assert.Nil(t, body.Spots[1].PreviewImage)
	// nobody reviewed the retreat
	assert.Nil(t, body.Spots[2].AvgRating)
}

func TestListSpotsQuery(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		query    string
		wantIDs  []uint
		wantPage int
		wantSize int
	}{
		{"size=2", []uint{1, 2}, 1, 2},
		{"size=2&page=2", []uint{3}, 2, 2},
		{"page=50&size=100", []uint{}, 10, 20},
		{"minPrice=180", []uint{1, 3}, 1, 20},
		{"minPrice=180&maxPrice=200", []uint{3}, 1, 20},
		{"maxLat=30", []uint{1, 3}, 1, 20},
		{"minLng=-100&maxLng=-40", []uint{2, 3}, 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := api.do(http.MethodGet, "/api/spots?"+tt.query, nil, 0)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := decode[spotListBody](t, w)
			assert.Equal(t, tt.wantIDs, spotIDs(body.Spots))
			assert.Equal(t, tt.wantPage, body.Page)
			assert.Equal(t, tt.wantSize, body.Size)
		})
	}
}

func TestListSpotsQueryValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		query string
		field string
		msg   string
	}{
		{"page=0", "page", "Page must be greater than or equal to 1"},
		{"page=abc", "page", "Page must be greater than or equal to 1"},
		{"size=0", "size", "Size must be greater than or equal to 1"},
		{"minLat=-91", "minLat", "Minimum latitude is invalid"},
		{"maxLat=x", "maxLat", "Maximum latitude is invalid"},
		{"minLng=-181", "minLng", "Minimum longitude is invalid"},
		{"maxLng=181", "maxLng", "Maximum longitude is invalid"},
		{"minPrice=-1", "minPrice", "Minimum price must be greater than or equal to 0"},
		{"maxPrice=-5", "maxPrice", "Maximum price must be greater than or equal to 0"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := api.do(http.MethodGet, "/api/spots?"+tt.query, nil, 0)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode[errorBody](t, w)
			assert.Equal(t, "Bad Request", body.Message)
			assert.Equal(t, map[string]string{tt.field: tt.msg}, body.Errors)
		})
	}
}

func TestCurrentUserSpots(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/spots/current", nil, fake1ID)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[spotListBody](t, w)
	require.Len(t, body.Spots, 1)
	assert.Equal(t, "Urban Loft", body.Spots[0].Name)

	w = api.do(http.MethodGet, "/api/spots/current", nil, 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetSpot(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/spots/1", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[spotDetailJSON](t, w)

	assert.Equal(t, "Cozy Cabin", body.Name)
	assert.EqualValues(t, 2, body.NumReviews)
	require.NotNil(t, body.AvgStarRating)
	assert.InDelta(t, 4.0, *body.AvgStarRating, 1e-9)
	require.Len(t, body.SpotImages, 2)
	assert.Equal(t, "image-1.jpg", body.SpotImages[0].URL)
	assert.True(t, body.SpotImages[0].Preview)
	assert.Equal(t, demoID, body.Owner.ID)
	assert.Equal(t, "Demo", body.Owner.FirstName)

	w = api.do(http.MethodGet, "/api/spots/3", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"avgStarRating":null`)
	assert.Contains(t, w.Body.String(), `"numReviews":0`)
}

func TestGetSpotNotFound(t *testing.T) {
	api := newTestAPI(t)

	for _, id := range []string{"99", "abc", "0"} {
		w := api.do(http.MethodGet, "/api/spots/"+id, nil, 0)
		assert.Equal(t, http.StatusNotFound, w.Code, id)
		assert.Equal(t, "Spot couldn't be found", decode[errorBody](t, w).Message)
	}
}

func TestCreateSpot(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/spots", validSpot(), fake2ID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	spot := decode[spotJSON](t, w)
	assert.NotZero(t, spot.ID)
	assert.Equal(t, fake2ID, spot.OwnerID)
	assert.Equal(t, "App Academy", spot.Name)

	// latitude zero is the equator, not a missing value
	equator := validSpot()
	equator["lat"] = 0
	w = api.do(http.MethodPost, "/api/spots", equator, fake2ID)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/spots", validSpot(), 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateSpotValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/spots", map[string]any{}, demoID)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{
		"address":     "Street address is required",
		"city":        "City is required",
		"state":       "State is required",
		"country":     "Country is required",
		"lat":         "Latitude must be within -90 and 90",
		"lng":         "Longitude must be within -180 and 180",
		"name":        "Name must be less than 50 characters",
		"description": "Description is required",
		"price":       "Price per day must be a positive number",
	}, decode[errorBody](t, w).Errors)

	tests := []struct {
		field string
		value any
	}{
		{"lat", 90.5},
		{"lng", -181},
		{"name", strings.Repeat("x", 50)},
		{"price", 0},
		{"price", -10},
		{"price", "free"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%v", tt.field, tt.value), func(t *testing.T) {
			body := validSpot()
			body[tt.field] = tt.value
			w := api.do(http.MethodPost, "/api/spots", body, demoID)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			errs := decode[errorBody](t, w).Errors
			assert.Len(t, errs, 1)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestUpdateSpot(t *testing.T) {
	api := newTestAPI(t)

	update := validSpot()
	update["name"] = "Renamed Cabin"

	w := api.do(http.MethodPut, "/api/spots/1", update, demoID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Renamed Cabin", decode[spotJSON](t, w).Name)

	var stored models.Spot
	require.NoError(t, api.DB.First(&stored, 1).Error)
	assert.Equal(t, "Renamed Cabin", stored.Name)
	assert.Equal(t, demoID, stored.OwnerID)

	tests := []struct {
		name   string
		path   string
		body   any
		userID uint
		want   int
	}{
		{"non-owner", "/api/spots/1", update, fake1ID, http.StatusForbidden},
		{"missing", "/api/spots/42", update, demoID, http.StatusNotFound},
		{"anonymous", "/api/spots/1", update, 0, http.StatusUnauthorized},
		{"invalid", "/api/spots/1", map[string]any{"name": "x"}, demoID, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPut, tt.path, tt.body, tt.userID)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w = api.do(http.MethodPut, "/api/spots/1", update, fake1ID)
	assert.Equal(t, errorBody{Message: "Forbidden"}, decode[errorBody](t, w))
}

func TestDeleteSpot(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodDelete, "/api/spots/1", nil, fake1ID)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodDelete, "/api/spots/1", nil, demoID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Successfully deleted"}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/spots/1", nil, 0)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, model := range []any{&models.Booking{}, &models.Review{}, &models.SpotImage{}} {
		var n int64
		require.NoError(t, api.DB.Model(model).Where("spot_id = ?", 1).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
}

func TestAddSpotImage(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/spots/2/images", map[string]any{
		"url":     "https://example.com/loft.jpg",
		"preview": true,
	}, fake1ID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	img := decode[struct {
		ID      uint   `json:"id"`
		URL     string `json:"url"`
		Preview bool   `json:"preview"`
	}](t, w)
	assert.NotZero(t, img.ID)
	assert.Equal(t, "https://example.com/loft.jpg", img.URL)
	assert.True(t, img.Preview)

	// the new preview shows up in listings
	list := decode[spotListBody](t, api.do(http.MethodGet, "/api/spots", nil, 0))
	require.NotNil(t, list.Spots[1].PreviewImage)
	assert.Equal(t, "https://example.com/loft.jpg", *list.Spots[1].PreviewImage)

	w = api.do(http.MethodPost, "/api/spots/2/images", map[string]any{"url": "https://example.com/x.jpg"}, demoID)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/spots/2/images", map[string]any{"url": "not a url"}, fake1ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Image url must be a valid url", decode[errorBody](t, w).Errors["url"])

	w = api.do(http.MethodPost, "/api/spots/9/images", map[string]any{"url": "https://example.com/x.jpg"}, fake1ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
