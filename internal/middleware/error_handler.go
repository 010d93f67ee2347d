package middleware

import (
	"errors"
	"net/http"
	"time"

	"tiendapos/internal/apierror"
	"tiendapos/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const internalMessage = "Error interno del servidor"

// AbortWithError writes err as an envelope and stops the chain. Business
// errors keep their message and field detail; anything else is logged with
// the request id and answered as a bare 500 so internals never leak.
func AbortWithError(c *gin.Context, err error) {
	status := apierror.Status(err)
	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) || status == http.StatusInternalServerError {
		log.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Err(err).
			Msg("internal error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Envelope{
			StatusCode: http.StatusInternalServerError,
			Message:    internalMessage,
			Error:      dto.ErrorBody{Code: apierror.KindInternal.String()},
		})
		return
	}
	c.AbortWithStatusJSON(status, dto.Envelope{
		StatusCode: status,
		Message:    apiErr.Message,
		Error:      dto.ErrorBody{Code: apiErr.Kind.String(), Fields: apiErr.Fields},
	})
}

// ErrorHandler answers errors attached with c.Error when no response was
// written yet.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		AbortWithError(c, c.Errors.Last().Err)
	}
}

// Recovery handles panics and converts them into 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("request_id", c.GetString(RequestIDKey)).
					Interface("panic", r).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Envelope{
					StatusCode: http.StatusInternalServerError,
					Message:    internalMessage,
					Error:      dto.ErrorBody{Code: apierror.KindInternal.String()},
				})
			}
		}()
		c.Next()
	}
}

// Logger logs each request with method, path, status, latency, and request_id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
