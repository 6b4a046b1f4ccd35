package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
	repo "github.com/spotit-app/spotit-api/internal/domain/repository"
)

// ErrInvalidMultiplier rejects roles that would shrink scores.
var ErrInvalidMultiplier = errors.New("score multiplier must be >= 1")

// WallyService handles the wally catalogue: listing, creation, roles
// and the Elasticsearch-backed search.
type WallyService struct {
	Wallies  repo.WallyRepository
	Pictures PictureStore
	ES       *elasticsearch.Client
	ESIndex  string
	Logger   *logrus.Logger
}

func NewWallyService(wallies repo.WallyRepository, pictures PictureStore, es *elasticsearch.Client, esIndex string, logger *logrus.Logger) *WallyService {
	return &WallyService{
		Wallies:  wallies,
		Pictures: pictures,
		ES:       es,
		ESIndex:  esIndex,
		Logger:   logger,
	}
}

func (s *WallyService) List(ctx context.Context) ([]repo.WallyWithEncounters, error) {
	return s.Wallies.List(ctx)
}

func (s *WallyService) Get(ctx context.Context, id string) (*entity.Wally, error) {
	w, err := s.Wallies.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && w == nil) {
		return nil, ErrWallyNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

type CreateWallyInput struct {
	Name  string
	Email string
	Role  string // role name, must exist
}

// Create stores the wally, uploads its profile picture under
// wallies/<id>.jpg and indexes the wally for search.
func (s *WallyService) Create(ctx context.Context, in CreateWallyInput, picture []byte) (*entity.Wally, error) {
	role, err := s.Wallies.GetRoleByName(ctx, in.Role)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && role == nil) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}

	w := &entity.Wally{
		Name:   in.Name,
		Email:  in.Email,
		RoleID: role.ID,
		Role:   role,
	}
	if err := s.Wallies.Create(ctx, w); err != nil {
		return nil, err
	}

	key := "wallies/" + w.ID + ".jpg"
	if err := s.Pictures.Upload(ctx, key, profileContentType, bytes.NewReader(picture)); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("wally_id", w.ID).Error("wally picture upload failed")
		}
		return nil, ErrPictureStorage
	}
	w.ProfilePicture = s.Pictures.PublicURL(key)
	if err := s.Wallies.SetProfilePicture(ctx, w.ID, w.ProfilePicture); err != nil {
		return nil, err
	}

	_ = s.indexWally(ctx, w)
	return w, nil
}

func (s *WallyService) CreateRole(ctx context.Context, name string, multiplier float64) (*entity.WallyRole, error) {
	if multiplier < 1 {
		return nil, ErrInvalidMultiplier
	}
	role := &entity.WallyRole{Role: name, ScoreMultiplier: multiplier}
	if err := s.Wallies.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *WallyService) ListRoles(ctx context.Context) ([]*entity.WallyRole, error) {
	return s.Wallies.ListRoles(ctx)
}

func (s *WallyService) indexWally(ctx context.Context, w *entity.Wally) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":              w.ID,
		"name":            w.Name,
		"email":           w.Email,
		"role":            w.Role.Role,
		"profile_picture": w.ProfilePicture,
		"created_at":      w.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: w.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("wally_id", w.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("wally_id", w.ID).Warn("es index response error")
	}
	return nil
}

// Search performs a multi_match over name, email and role.
func (s *WallyService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "email", "role"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
