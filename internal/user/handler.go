package user

import (
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"crewdesk_backend/internal/avatar"
	"crewdesk_backend/internal/common"
	"crewdesk_backend/internal/config"
	"crewdesk_backend/internal/middleware"
	"crewdesk_backend/internal/session"
	"crewdesk_backend/internal/shared"
)

// avatarFormField is the multipart field carrying the avatar image.
const avatarFormField = "avatar"

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service        Service
	avatarMaxBytes int64
	logger         *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service:        service,
		avatarMaxBytes: cfg.AvatarMaxBytes,
		logger:         logger.Named("UserHandler"),
	}
}

// RegisterRoutes sets up the routes for user operations. Every route sits
// behind authMW, which must be middleware.RequireAuth.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	userGroup := router.Group("/users")
	userGroup.Use(authMW)
	{
		userGroup.POST("/register", h.register)
		userGroup.GET("/me", h.getMe)
		userGroup.PATCH("/me", h.updateMe)
		userGroup.GET("/me/avatar", h.getAvatar)
		userGroup.POST("/me/avatar", h.uploadAvatar)
		userGroup.POST("/me/invitations",
			middleware.RoleAuthMiddleware(shared.RoleOwner, shared.RoleAdmin),
			h.invite)
	}
}

func (h *Handler) currentSession(c *gin.Context) (*session.Session, bool) {
	s := middleware.GetSession(c)
	if s == nil || s.Identity() == nil {
		h.logger.Error("Session missing on guarded route", zap.String("path", c.Request.URL.Path))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Session missing."))
		return nil, false
	}
	return s, true
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Invalid request body", zap.String("path", c.Request.URL.Path), zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return false
	}
	return true
}

func (h *Handler) register(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req RegisterRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	profile, created, err := h.service.Register(c.Request.Context(), s.Identity(), req.Name)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	s.Refresh()
	if created {
		common.RespondCreated(c, "User registered successfully.", profile)
		return
	}
	common.RespondOK(c, "User already registered.", profile)
}

func (h *Handler) getMe(c *gin.Context) {
	uid := common.GetFirebaseUIDFromContext(c)
	if uid == "" {
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("User identifier missing."))
		return
	}
	profile, err := h.service.GetCurrentUser(c.Request.Context(), uid)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User profile retrieved successfully.", profile)
}

func (h *Handler) updateMe(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), s.Identity().UID,
		shared.ProfileUpdate{Name: req.Name, PhotoURL: req.PhotoURL})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	s.Refresh()
	common.RespondOK(c, "User profile updated successfully.", profile)
}

func (h *Handler) getAvatar(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}
	url := s.Avatar.AvatarURL()
	if url == "" {
		if state, ok := middleware.GetAuthState(c); ok && state.User != nil && state.User.PhotoURL != nil {
			url = *state.User.PhotoURL
			s.Avatar.SetAvatarURL(url)
		}
	}
	common.RespondOK(c, "Avatar retrieved successfully.", gin.H{
		"avatar_url": url,
		"uploading":  s.Avatar.Uploading(),
	})
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	// Leave room for the multipart envelope and for oversized files to reach
	// the size check, which reports them to the user.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.avatarMaxBytes+1<<20)

	header, err := c.FormFile(avatarFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile):
			common.RespondNoContent(c)
		case errors.As(err, &maxErr):
			common.RespondWithError(c, common.ErrFileTooLarge.WithDetails("Avatar image must be smaller than the upload limit."))
		default:
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid multipart form."))
		}
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Could not read uploaded file."))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		detected, err := mimetype.DetectReader(file)
		if err == nil {
			contentType = detected.String()
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Could not read uploaded file."))
			return
		}
	}

	url, err := s.Avatar.Upload(c.Request.Context(), s.Identity(), &avatar.File{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	s.Refresh()
	common.RespondOK(c, "Avatar updated successfully.", gin.H{"avatar_url": url})
}

func (h *Handler) invite(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req InviteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.service.InviteUser(c.Request.Context(), s.Identity().UID, req.Email)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	s.Refresh()
	common.RespondCreated(c, "Invitation sent.", profile)
}
