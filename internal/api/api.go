package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/lingolink/internal/auth"
)

type Handler struct {
	authService   *auth.Service
	logger        *zap.Logger
	secureCookies bool
}

// NewHandler builds the auth HTTP handlers. secureCookies sets the Secure flag
// on the session cookie and should be true in production.
func NewHandler(authService *auth.Service, logger *zap.Logger, secureCookies bool) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{authService: authService, logger: logger, secureCookies: secureCookies}
}

// NewRouter assembles the gin engine with middleware, health check and API routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(h.logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	authGroup := router.Group("/api/auth")
	authGroup.POST("/signup", h.handleSignup)
	authGroup.POST("/login", h.handleLogin)
	authGroup.POST("/logout", h.handleLogout)

	protected := authGroup.Group("", h.RequireAuth())
	protected.POST("/onboarding", h.handleOnboard)
	protected.GET("/me", h.handleMe)
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// onboardRequest is the full set of fields onboarding accepts; anything else
// in the body is ignored.
type onboardRequest struct {
	FullName         string `json:"fullName"`
	Bio              string `json:"bio"`
	Location         string `json:"location"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	ProfilePicture   string `json:"profilePicture"`
}

func (h *Handler) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), auth.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.writeServiceError(c, "signup", err, http.StatusNotFound)
		return
	}

	writeSessionCookie(c.Writer, result.Token, h.authService.SessionTTL(), h.secureCookies)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"user":    result.User,
	})
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(c, "login", err, http.StatusUnauthorized)
		return
	}

	writeSessionCookie(c.Writer, result.Token, h.authService.SessionTTL(), h.secureCookies)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User logged in successfully",
		"user":    result.User,
	})
}

func (h *Handler) handleLogout(c *gin.Context) {
	if token, ok := readSessionCookie(c.Request); ok {
		h.authService.Logout(c.Request.Context(), token)
	}

	clearSessionCookie(c.Writer, h.secureCookies)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User logged out successfully",
	})
}

func (h *Handler) handleOnboard(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Unauthorized - No token provided")
		return
	}

	// An empty body is an empty form: the service then reports every missing field.
	var req onboardRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.authService.Onboard(c.Request.Context(), user.ID, auth.OnboardInput{
		FullName:         req.FullName,
		Bio:              req.Bio,
		Location:         req.Location,
		NativeLanguage:   req.NativeLanguage,
		LearningLanguage: req.LearningLanguage,
		ProfilePicture:   req.ProfilePicture,
	})
	if err != nil {
		h.writeServiceError(c, "onboarding", err, http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User onboarded successfully",
		"user":    updated,
	})
}

func (h *Handler) handleMe(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Unauthorized - No token provided")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// writeServiceError maps auth errors to responses. notFoundStatus differs per
// route: login treats an unknown user as an auth failure, onboarding as 404.
func (h *Handler) writeServiceError(c *gin.Context, op string, err error, notFoundStatus int) {
	var vErr *auth.ValidationError
	switch {
	case errors.As(err, &vErr):
		body := gin.H{"success": false, "message": vErr.Message}
		if len(vErr.MissingFields) > 0 {
			body["missingFields"] = vErr.MissingFields
		}
		if len(vErr.MissingOptional) > 0 {
			body["missingOptionalFields"] = vErr.MissingOptional
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case errors.Is(err, auth.ErrEmailExists):
		writeError(c, http.StatusBadRequest, "Email already exist, use a different email!")
	case errors.Is(err, auth.ErrUserNotFound):
		if notFoundStatus == http.StatusUnauthorized {
			writeError(c, notFoundStatus, "User not found, please signup!")
			return
		}
		writeError(c, notFoundStatus, "User not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "Invalid email or password")
	default:
		h.internalError(c, op, err)
	}
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err),
	)
	writeError(c, http.StatusInternalServerError, "Internal server error")
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
