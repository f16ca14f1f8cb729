package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidhant-sriv/spots-api/logging"
	"github.com/sidhant-sriv/spots-api/validation"
)

// respondError aborts with the standard {message, errors} body.
func respondError(c *gin.Context, status int, message string, errs validation.Errors) {
	body := gin.H{"message": message}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	c.AbortWithStatusJSON(status, body)
}

func respondValidation(c *gin.Context, errs validation.Errors) {
	respondError(c, http.StatusBadRequest, "Bad Request", errs)
}

func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, resource+" couldn't be found", nil)
}

func respondForbidden(c *gin.Context) {
	respondError(c, http.StatusForbidden, "Forbidden", nil)
}

// respondInternal logs err and hides it from the client.
func respondInternal(c *gin.Context, err error, msg string) {
	logging.Ctx(c.Request.Context()).Error().
		Err(err).
		Str("route", c.FullPath()).
		Msg(msg)
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, "Internal server error", nil)
}
