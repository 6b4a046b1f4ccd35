package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/spotit-app/spotit-api/internal/application"
	"github.com/spotit-app/spotit-api/internal/domain/entity"
	"github.com/spotit-app/spotit-api/pkg/response"
	"github.com/spotit-app/spotit-api/pkg/validation"
)

type WallyHandler struct {
	Svc       *application.WallyService
	Logger    *logrus.Logger
	MaxUpload int64
}

func NewWallyHandler(svc *application.WallyService, logger *logrus.Logger, maxUpload int64) *WallyHandler {
	return &WallyHandler{Svc: svc, Logger: logger, MaxUpload: maxUpload}
}

type createWallyRequest struct {
	Name  string `form:"name" binding:"required,min=2,max=100"`
	Email string `form:"email" binding:"required,email"`
	Role  string `form:"role" binding:"required"`
}

type createRoleRequest struct {
	Role            string  `json:"role" binding:"required,min=2,max=50"`
	ScoreMultiplier float64 `json:"scoreMultiplier" binding:"required"`
}

// List handles GET /wallies: every wally with its encounter count.
func (h *WallyHandler) List(c *gin.Context) {
	rows, err := h.Svc.List(c.Request.Context())
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to list wallies", nil)
		return
	}
	views := make([]gin.H, 0, len(rows))
	for i := range rows {
		v := wallyView(&rows[i].Wally)
		v["encounters"] = rows[i].Encounters
		views = append(views, v)
	}
	response.Success(c, http.StatusOK, views, "wallies", nil)
}

func (h *WallyHandler) Get(c *gin.Context) {
	w, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, application.ErrWallyNotFound) {
		response.Error[any](c, http.StatusNotFound, "wally not found", nil)
		return
	}
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to load wally", nil)
		return
	}
	response.Success(c, http.StatusOK, wallyView(w), "wally", nil)
}

// Create handles POST /wallies. Multipart form: name, email, role plus
// a profilePicture file.
func (h *WallyHandler) Create(c *gin.Context) {
	var req createWallyRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	picture, ok := readUpload(c, "profilePicture", h.MaxUpload)
	if !ok {
		return
	}

	w, err := h.Svc.Create(c.Request.Context(), application.CreateWallyInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	}, picture)
	if err != nil {
		if errors.Is(err, application.ErrRoleNotFound) {
			response.Error[any](c, http.StatusNotFound, "role not found", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).Error("wally creation failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to create wally", nil)
		return
	}
	response.Success(c, http.StatusCreated, wallyView(w), "wally created", nil)
}

// Search handles GET /wallies/search?q=...&size=...
func (h *WallyHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}

func (h *WallyHandler) CreateRole(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	r, err := h.Svc.CreateRole(c.Request.Context(), req.Role, req.ScoreMultiplier)
	if err != nil {
		if errors.Is(err, application.ErrInvalidMultiplier) {
			response.Error[any](c, http.StatusBadRequest, "score multiplier must be >= 1", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to create role", nil)
		return
	}
	response.Success(c, http.StatusCreated, roleView(r), "role created", nil)
}

func (h *WallyHandler) ListRoles(c *gin.Context) {
	roles, err := h.Svc.ListRoles(c.Request.Context())
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to list roles", nil)
		return
	}
	views := make([]gin.H, 0, len(roles))
	for _, r := range roles {
		views = append(views, roleView(r))
	}
	response.Success(c, http.StatusOK, views, "roles", nil)
}

func wallyView(w *entity.Wally) gin.H {
	v := gin.H{
		"id":             w.ID,
		"name":           w.Name,
		"email":          w.Email,
		"profilePicture": w.ProfilePicture,
		"createdAt":      w.CreatedAt,
	}
	if w.Role != nil {
		v["role"] = w.Role.Role
		v["scoreMultiplier"] = w.Role.ScoreMultiplier
	}
	return v
}

func roleView(r *entity.WallyRole) gin.H {
	return gin.H{
		"id":              r.ID,
		"role":            r.Role,
		"scoreMultiplier": r.ScoreMultiplier,
	}
}
