package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/khairulh/notulen/domain/repositories"
	"github.com/khairulh/notulen/internal/auth"
	"github.com/khairulh/notulen/internal/websocket"
)

// Deps carries everything the route handlers need.
type Deps struct {
	Hub      *websocket.Hub
	Handler  websocket.EventHandler
	Store    repositories.SessionStore
	Auth     *auth.Service
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Deps) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "notulen-server",
		})
	})

	if deps.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/auth/login", func(c echo.Context) error {
		return userLogin(c, deps)
	})

	v1.GET("/sessions", func(c echo.Context) error {
		return listSessions(c, deps)
	})
	v1.GET("/sessions/:id", func(c echo.Context) error {
		return getSession(c, deps)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(c, deps)
	})
}

// userLogin issues a user token. Identity verification against a user
// directory sits outside this service; callers present the user
// identifier established upstream.
func userLogin(c echo.Context, deps Deps) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		deps.Logger.Error("Failed to bind login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "User ID is required",
		})
	}

	token, err := deps.Auth.GenerateUserToken(req.UserID)
	if err != nil {
		deps.Logger.Error("Failed to generate user token",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
		UserID:    req.UserID,
	})
}

func listSessions(c echo.Context, deps Deps) error {
	claims, errResp := authenticate(c, deps)
	if claims == nil {
		return errResp
	}

	sessions, err := deps.Store.ListSessionsForUser(c.Request().Context(), claims.UserID)
	if err != nil {
		deps.Logger.Error("Failed to list sessions",
			zap.String("user_id", claims.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list sessions",
		})
	}

	return c.JSON(http.StatusOK, SessionListResponse{Sessions: sessions})
}

func getSession(c echo.Context, deps Deps) error {
	claims, errResp := authenticate(c, deps)
	if claims == nil {
		return errResp
	}

	detail, err := deps.Store.GetSessionDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Session not found",
			})
		}
		deps.Logger.Error("Failed to get session",
			zap.String("session_id", c.Param("id")),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get session",
		})
	}

	if detail.UserID != claims.UserID {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Session not found",
		})
	}

	return c.JSON(http.StatusOK, detail)
}

// authenticate extracts and validates the bearer token. On failure the
// error response has already been written and the returned claims are
// nil; callers must branch on the claims.
func authenticate(c echo.Context, deps Deps) (*auth.JWTClaims, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	claims, err := deps.Auth.ValidateToken(token)
	if err != nil {
		return nil, c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}
	if claims.UserID == "" {
		return nil, c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "User ID not found in token",
		})
	}
	return claims, nil
}

// bearerToken reads the token from the Authorization header, falling
// back to the token query parameter for browser WebSocket clients that
// cannot set headers.
func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return c.QueryParam("token")
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(c echo.Context, deps Deps) error {
	claims, errResp := authenticate(c, deps)
	if claims == nil {
		deps.Logger.Warn("WebSocket connection rejected")
		return errResp
	}

	deps.Logger.Info("WebSocket connection authenticated",
		zap.String("user_id", claims.UserID))

	return websocket.Serve(deps.Hub, deps.Handler, c, claims.UserID, deps.Logger)
}
