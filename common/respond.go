package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"widgetic/apperr"
)

// JSONError answers with the status the error maps to. Not-found answers are
// identical for every resource so callers cannot probe which ids exist.
func JSONError(c *gin.Context, err error) {
	status := apperr.Status(err)
	msg := apperr.Message(err)

	switch status {
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
