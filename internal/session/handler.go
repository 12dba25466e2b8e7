package session

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"crewdesk_backend/internal/authgate"
	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/identity"
	"crewdesk_backend/internal/notification"
)

// TokenVerifier turns an identity-provider ID token into a verified identity.
type TokenVerifier interface {
	VerifyIdentity(ctx context.Context, idToken string) (*identity.Identity, error)
}

// SignInRequest carries the ID token the front-end obtained from the identity provider.
type SignInRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// Handler exposes the auth context value of the caller's session.
type Handler struct {
	registry      *Registry
	verifier      TokenVerifier
	notifications notification.Service
	logger        *zap.Logger
}

// NewHandler creates the session handler.
func NewHandler(registry *Registry, verifier TokenVerifier, notifications notification.Service, logger *zap.Logger) *Handler {
	return &Handler{
		registry:      registry,
		verifier:      verifier,
		notifications: notifications,
		logger:        logger.Named("SessionHandler"),
	}
}

// RegisterRoutes sets up the session routes. None of them require a session.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/session")
	{
		group.POST("", h.signIn)
		group.GET("", h.current)
		group.DELETE("", h.signOut)
		group.GET("/notifications", h.drainNotifications)
	}
}

func signedOutState() authgate.State {
	s := authgate.InitialState()
	s.Loading = false
	return s
}

func (h *Handler) signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	id, err := h.verifier.VerifyIdentity(c.Request.Context(), req.IDToken)
	if err != nil {
		h.logger.Warn("Sign-in rejected", zap.Error(err))
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired ID token."))
		return
	}

	s := h.registry.Ensure(c)
	s.Identities.Set(id)
	h.respondWithState(c, s, "Signed in.")
}

func (h *Handler) current(c *gin.Context) {
	s, ok := h.registry.FromRequest(c)
	if !ok {
		common.RespondOK(c, "No active session.", signedOutState())
		return
	}
	h.respondWithState(c, s, "Session resolved.")
}

func (h *Handler) signOut(c *gin.Context) {
	s, ok := h.registry.FromRequest(c)
	if !ok {
		common.RespondOK(c, "Signed out.", signedOutState())
		return
	}
	s.Identities.Set(nil)
	h.respondWithState(c, s, "Signed out.")
}

func (h *Handler) drainNotifications(c *gin.Context) {
	s, ok := h.registry.FromRequest(c)
	if !ok {
		common.RespondOK(c, "Notifications retrieved successfully.", []notification.Notification{})
		return
	}
	notifications, err := h.notifications.Drain(c.Request.Context(), s.ID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notifications retrieved successfully.", notifications)
}

func (h *Handler) respondWithState(c *gin.Context, s *Session, message string) {
	state, err := s.Gate.Await(c.Request.Context())
	if err != nil {
		if errors.Is(err, authgate.ErrGateUnmounted) {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Session has expired."))
			return
		}
		h.logger.Debug("Request ended before the session settled", zap.String("sessionID", s.ID), zap.Error(err))
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails("Session is still loading."))
		return
	}
	common.RespondOK(c, message, state)
}
