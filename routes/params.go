package routes

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/spots-api/validation"
	"gorm.io/gorm"
)

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// findByID loads the row named by a path parameter. It writes the 404 or 500
// response itself and reports whether the handler should continue.
func findByID[T any](c *gin.Context, DB *gorm.DB, param, resource string) (*T, bool) {
	id, ok := paramID(c, param)
	if !ok {
		respondNotFound(c, resource)
		return nil, false
	}

	var row T
	if err := DB.WithContext(c.Request.Context()).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, resource)
		} else {
			respondInternal(c, err, "Failed to load "+resource)
		}
		return nil, false
	}
	return &row, true
}

// bindJSON decodes and validates the request body. An empty body is
// validated as the zero value so missing fields get their messages.
func bindJSON(c *gin.Context, obj any, messages validation.Messages) bool {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = validation.Struct(obj)
	}
	if err == nil {
		return true
	}

	if errs, ok := validation.Translate(err, messages); ok {
		respondValidation(c, errs)
		return false
	}
	respondError(c, http.StatusBadRequest, "Bad Request", validation.Errors{"body": "Request body must be valid JSON"})
	return false
}
