package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crewdesk_backend/internal/authgate"
	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/session"
	"crewdesk_backend/internal/shared"
)

// RequireAuth guards a route with the caller's auth gate. It waits for the
// gate to settle, then either redirects to the login route or stores the
// auth state, session and Firebase UID in the context and continues.
func RequireAuth(registry *session.Registry, cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := registry.FromRequest(c)
		if !ok {
			logger.Debug("No session for guarded route", zap.String("path", c.Request.URL.Path))
			redirectToLogin(c, cfg.LoginPath)
			return
		}

		state, err := s.Gate.Await(c.Request.Context())
		if err != nil {
			if errors.Is(err, authgate.ErrGateUnmounted) {
				redirectToLogin(c, cfg.LoginPath)
				return
			}
			// The client went away while the gate was loading.
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		switch state.Decide() {
		case authgate.DecisionRender:
			c.Set(common.AuthStateKey, state)
			c.Set(common.SessionKey, s)
			if id := s.Identity(); id != nil {
				c.Set(common.FirebaseUIDKey, id.UID)
			}
			c.Next()
		default:
			redirectToLogin(c, cfg.LoginPath)
		}
	}
}

// redirectToLogin replaces the current page with the login route for
// browser navigations and answers API calls with 401.
func redirectToLogin(c *gin.Context, loginPath string) {
	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		c.Redirect(http.StatusSeeOther, loginPath)
		c.Abort()
		return
	}
	c.Header("Location", loginPath)
	common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Sign in required."))
}

// GetAuthState retrieves the auth context value stored by RequireAuth.
func GetAuthState(c *gin.Context) (authgate.State, bool) {
	val, exists := c.Get(common.AuthStateKey)
	if !exists {
		return authgate.State{}, false
	}
	state, ok := val.(authgate.State)
	return state, ok
}

// GetSession retrieves the session stored by RequireAuth.
func GetSession(c *gin.Context) *session.Session {
	val, exists := c.Get(common.SessionKey)
	if !exists {
		return nil
	}
	s, ok := val.(*session.Session)
	if !ok {
		return nil
	}
	return s
}

// RoleAuthMiddleware creates a middleware to check if the authenticated user has one of the required roles.
func RoleAuthMiddleware(allowedRoles ...shared.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, ok := GetAuthState(c)
		if !ok || state.User == nil {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User profile not found in context."))
			return
		}

		for _, role := range allowedRoles {
			if state.User.Role == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
