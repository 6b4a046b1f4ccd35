package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotit-app/spotit-api/internal/application"
	"github.com/spotit-app/spotit-api/internal/domain/entity"
)

type stubRegistrar struct {
	enc     *entity.Encounter
	err     error
	gotUser string
	gotWall string
	gotPic  []byte
}

func (s *stubRegistrar) Register(ctx context.Context, userID, wallyID string, picture []byte) (*entity.Encounter, error) {
	s.gotUser, s.gotWall, s.gotPic = userID, wallyID, picture
	if s.err != nil {
		return nil, s.err
	}
	return s.enc, nil
}

func (s *stubRegistrar) ListForUser(ctx context.Context, userID string) ([]*entity.Encounter, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.enc == nil {
		return nil, nil
	}
	return []*entity.Encounter{s.enc}, nil
}

func newEncounterRouter(stub *stubRegistrar) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", "user-1") })
	h := NewEncounterHandler(stub, nil, 10<<20)
	r.POST("/encounters", h.Register)
	r.GET("/encounters", h.List)
	return r
}

func multipartEncounter(t *testing.T, wallyID string, picture []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if wallyID != "" {
		require.NoError(t, mw.WriteField("wallyId", wallyID))
	}
	if picture != nil {
		fw, err := mw.CreateFormFile("encounterPicture", "shot.jpg")
		require.NoError(t, err)
		_, err = fw.Write(picture)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestEncounterRegisterEndpoint(t *testing.T) {
	stub := &stubRegistrar{enc: &entity.Encounter{
		ID:               "enc-1",
		UserID:           "user-1",
		WallyID:          "wally-1",
		OccurredAt:       time.Now(),
		EncounterPicture: "https://storage.googleapis.com/spot.it/enc-1.jpg",
	}}
	r := newEncounterRouter(stub)

	body, ct := multipartEncounter(t, "wally-1", []byte("jpeg-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/encounters", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "a finalized encounter is returned with 200")
	assert.Equal(t, "user-1", stub.gotUser)
	assert.Equal(t, "wally-1", stub.gotWall)
	assert.Equal(t, []byte("jpeg-bytes"), stub.gotPic)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID               string `json:"id"`
			EncounterPicture string `json:"encounterPicture"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "enc-1", resp.Data.ID)
	assert.Equal(t, stub.enc.EncounterPicture, resp.Data.EncounterPicture)
}

func TestEncounterRegisterMissingFields(t *testing.T) {
	r := newEncounterRouter(&stubRegistrar{})

	// no wallyId
	body, ct := multipartEncounter(t, "", []byte("jpeg-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/encounters", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// no picture
	body, ct = multipartEncounter(t, "wally-1", nil)
	req = httptest.NewRequest(http.MethodPost, "/encounters", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEncounterRegisterErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown user", application.ErrUserNotFound, http.StatusNotFound},
		{"unknown wally", application.ErrWallyNotFound, http.StatusNotFound},
		{"rejected encounter", application.ErrEncounterRejected, http.StatusBadRequest},
		{"rejected image", application.ErrInvalidImage, http.StatusNotFound},
		{"validator down", application.ErrValidatorUnavailable, http.StatusInternalServerError},
		{"storage failure", application.ErrPictureStorage, http.StatusInternalServerError},
		{"store failure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEncounterRouter(&stubRegistrar{err: tc.err})
			body, ct := multipartEncounter(t, "wally-1", []byte("jpeg-bytes"))
			req := httptest.NewRequest(http.MethodPost, "/encounters", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestEncounterList(t *testing.T) {
	stub := &stubRegistrar{enc: &entity.Encounter{ID: "enc-1", UserID: "user-1", WallyID: "wally-1"}}
	r := newEncounterRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/encounters", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "enc-1", resp.Data[0].ID)
}
