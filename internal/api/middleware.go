package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/lingolink/internal/auth"
	"github.com/wuwenbin0122/lingolink/internal/models"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
	authUserKey     = "authUser"
)

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

// RequireAuth resolves the session cookie to a user and stores it on the
// context. Any failure to do so aborts with 401.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := readSessionCookie(c.Request)

		user, err := h.authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNoSession):
				writeError(c, http.StatusUnauthorized, "Unauthorized - No token provided")
			case errors.Is(err, auth.ErrInvalidToken):
				writeError(c, http.StatusUnauthorized, "Unauthorized - Invalid token")
			case errors.Is(err, auth.ErrUserNotFound):
				writeError(c, http.StatusUnauthorized, "Unauthorized - User not found")
			default:
				h.internalError(c, "authenticate session", err)
			}
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by RequireAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(authUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}
