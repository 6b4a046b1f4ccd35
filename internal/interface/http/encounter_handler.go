package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/spotit-app/spotit-api/internal/application"
	"github.com/spotit-app/spotit-api/internal/domain/entity"
	"github.com/spotit-app/spotit-api/pkg/response"
)

// EncounterRegistrar is the slice of the encounter service this handler needs.
type EncounterRegistrar interface {
	Register(ctx context.Context, userID, wallyID string, picture []byte) (*entity.Encounter, error)
	ListForUser(ctx context.Context, userID string) ([]*entity.Encounter, error)
}

type EncounterHandler struct {
	Svc       EncounterRegistrar
	Logger    *logrus.Logger
	MaxUpload int64
}

func NewEncounterHandler(svc EncounterRegistrar, logger *logrus.Logger, maxUpload int64) *EncounterHandler {
	return &EncounterHandler{Svc: svc, Logger: logger, MaxUpload: maxUpload}
}

// Register handles POST /encounters. Expects multipart form fields
// wallyId and encounterPicture.
func (h *EncounterHandler) Register(c *gin.Context) {
	uid := c.GetString("userID")

	wallyID := c.PostForm("wallyId")
	if wallyID == "" {
		response.Error[any](c, http.StatusBadRequest, "wallyId is required", nil)
		return
	}

	picture, ok := readUpload(c, "encounterPicture", h.MaxUpload)
	if !ok {
		return
	}

	enc, err := h.Svc.Register(c.Request.Context(), uid, wallyID, picture)
	if err != nil {
		h.writeRegisterError(c, err)
		return
	}

	response.Success(c, http.StatusOK, encounterView(enc), "encounter registered", nil)
}

// List handles GET /encounters for the authenticated user.
func (h *EncounterHandler) List(c *gin.Context) {
	uid := c.GetString("userID")
	encs, err := h.Svc.ListForUser(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to list encounters", nil)
		return
	}
	views := make([]gin.H, 0, len(encs))
	for _, e := range encs {
		views = append(views, encounterView(e))
	}
	response.Success(c, http.StatusOK, views, "encounters", nil)
}

func (h *EncounterHandler) writeRegisterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, application.ErrWallyNotFound):
		response.Error[any](c, http.StatusNotFound, "wally not found", nil)
	case errors.Is(err, application.ErrEncounterRejected):
		response.Error[any](c, http.StatusBadRequest, "encounter was not validated", nil)
	case errors.Is(err, application.ErrInvalidImage):
		response.Error[any](c, http.StatusNotFound, "picture does not show the wally", nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).Error("encounter registration failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to register encounter", nil)
	}
}

func encounterView(e *entity.Encounter) gin.H {
	v := gin.H{
		"id":               e.ID,
		"userId":           e.UserID,
		"wallyId":          e.WallyID,
		"occurredAt":       e.OccurredAt,
		"encounterPicture": e.EncounterPicture,
	}
	if e.Wally != nil {
		w := gin.H{
			"id":             e.Wally.ID,
			"name":           e.Wally.Name,
			"profilePicture": e.Wally.ProfilePicture,
		}
		if e.Wally.Role != nil {
			w["role"] = e.Wally.Role.Role
			w["scoreMultiplier"] = e.Wally.Role.ScoreMultiplier
		}
		v["wally"] = w
	}
	return v
}
