package application

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
	repo "github.com/spotit-app/spotit-api/internal/domain/repository"
	"github.com/spotit-app/spotit-api/pkg/helpers"
)

const (
	profileContentType = "image/jpg"
	rankCacheKey       = "users:rank"
	rankCacheTTL       = 30 * time.Second
)

// UserService handles registration, login and profile/rank reads.
type UserService struct {
	Users      repo.UserRepository
	Encounters repo.EncounterRepository
	Pictures   PictureStore
	JWT        *helpers.JWTManager
	Redis      *redis.Client
	Logger     *logrus.Logger
}

func NewUserService(users repo.UserRepository, encounters repo.EncounterRepository, pictures PictureStore,
	jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *UserService {
	return &UserService{
		Users:      users,
		Encounters: encounters,
		Pictures:   pictures,
		JWT:        jwt,
		Redis:      rdb,
		Logger:     logger,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterUserInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register creates the user, stores the profile picture under
// users/<id>.jpg and attaches its public URL.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput, picture []byte) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Name:     in.Name,
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}

	key := "users/" + u.ID + ".jpg"
	if err := s.Pictures.Upload(ctx, key, profileContentType, bytes.NewReader(picture)); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("profile picture upload failed")
		}
		return nil, ErrPictureStorage
	}
	u.ProfilePicture = s.Pictures.PublicURL(key)
	if err := s.Users.SetProfilePicture(ctx, u.ID, u.ProfilePicture); err != nil {
		return nil, err
	}
	return u, nil
}

// Login validates identifier (email or username) and password, then
// issues a token pair and records the session in Redis.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*entity.User, TokenPair, error) {
	u, err := s.Users.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && u == nil) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, TokenPair{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

func (s *UserService) issueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"username":   u.Username,
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the session id and token pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && u == nil) {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, sessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID, nil
}

// Logout drops the Redis session so outstanding tokens stop validating.
func (s *UserService) Logout(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
	}
}

// Profile is the user's detail view: identity plus finalized encounters.
type Profile struct {
	User       *entity.User
	Encounters []*entity.Encounter
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && u == nil) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	encs, err := s.Encounters.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Encounters: encs}, nil
}

// RankEntry is one leaderboard row.
type RankEntry struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Username       string  `json:"username"`
	ProfilePicture string  `json:"profilePicture"`
	Score          float64 `json:"score"`
}

// Rank returns all users ordered by score descending, cached briefly in
// Redis since the leaderboard is the hottest read.
func (s *UserService) Rank(ctx context.Context) ([]RankEntry, error) {
	if s.Redis != nil {
		var cached []RankEntry
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, rankCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}

	users, err := s.Users.ListByScore(ctx)
	if err != nil {
		return nil, err
	}
	rank := make([]RankEntry, 0, len(users))
	for _, u := range users {
		rank = append(rank, RankEntry{
			ID:             u.ID,
			Name:           u.Name,
			Username:       u.Username,
			ProfilePicture: u.ProfilePicture,
			Score:          u.Score,
		})
	}

	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, rankCacheKey, rank, rankCacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("rank cache write failed")
		}
	}
	return rank, nil
}
