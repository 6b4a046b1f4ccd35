package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/spotit-app/spotit-api/internal/application"
	"github.com/spotit-app/spotit-api/internal/domain/entity"
	"github.com/spotit-app/spotit-api/pkg/helpers"
	"github.com/spotit-app/spotit-api/pkg/response"
	"github.com/spotit-app/spotit-api/pkg/validation"
)

type UserHandler struct {
	Svc       *application.UserService
	Logger    *logrus.Logger
	Cookies   *helpers.Manager
	MaxUpload int64
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger, cookieDomain string, cookieSecure bool, maxUpload int64) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure), MaxUpload: maxUpload}
}

type registerRequest struct {
	Name     string `form:"name" binding:"required,min=2,max=100"`
	Username string `form:"username" binding:"required,username"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,strongpwd"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// Register handles POST /users. Multipart form: name, username, email,
// password plus a profilePicture file.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	picture, ok := readUpload(c, "profilePicture", h.MaxUpload)
	if !ok {
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), application.RegisterUserInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, picture)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("user registration failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to register user", nil)
		return
	}
	response.Success(c, http.StatusCreated, userView(u), "user registered", nil)
}

// Login handles POST /login. The identifier may be an email or a username.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if errors.Is(err, application.ErrInvalidCredentials) {
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("login failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to log in", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, userView(u), "login successful",
		map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

func (h *UserHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if errors.Is(err, application.ErrInvalidCredentials) {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("token refresh failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed",
		map[string]any{"access_expires_at": pair.AccessTokenExpiry, "refresh_expires_at": pair.RefreshTokenExpiry})
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.Svc.Logout(c.Request.Context(), c.GetString("userID"))
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// GetProfile handles GET /profile: the user plus their finalized encounters.
func (h *UserHandler) GetProfile(c *gin.Context) {
	p, err := h.Svc.GetProfile(c.Request.Context(), c.GetString("userID"))
	if errors.Is(err, application.ErrUserNotFound) {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to load profile", nil)
		return
	}
	encounters := make([]gin.H, 0, len(p.Encounters))
	for _, e := range p.Encounters {
		encounters = append(encounters, encounterView(e))
	}
	view := userView(p.User)
	view["encounters"] = encounters
	response.Success(c, http.StatusOK, view, "profile", nil)
}

// Rank handles GET /rank: all users ordered by score descending.
func (h *UserHandler) Rank(c *gin.Context) {
	rank, err := h.Svc.Rank(c.Request.Context())
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to load rank", nil)
		return
	}
	response.Success(c, http.StatusOK, rank, "rank", nil)
}

func userView(u *entity.User) gin.H {
	return gin.H{
		"id":             u.ID,
		"name":           u.Name,
		"username":       u.Username,
		"email":          u.Email,
		"score":          u.Score,
		"profilePicture": u.ProfilePicture,
		"createdAt":      u.CreatedAt,
		"updatedAt":      u.UpdatedAt,
	}
}

// readUpload pulls a multipart file field into memory, writing the
// error response itself on failure.
func readUpload(c *gin.Context, field string, maxSize int64) ([]byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, field+" is required", nil)
		return nil, false
	}
	if maxSize > 0 && fh.Size > maxSize {
		response.Error[any](c, http.StatusBadRequest, "picture too large", nil)
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable picture", nil)
		return nil, false
	}
	defer func() { _ = f.Close() }()
	b, err := io.ReadAll(f)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable picture", nil)
		return nil, false
	}
	return b, true
}
