package application

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
	repo "github.com/spotit-app/spotit-api/internal/domain/repository"
	"github.com/spotit-app/spotit-api/internal/domain/scoring"
	"github.com/spotit-app/spotit-api/internal/infrastructure/validator"
	"github.com/spotit-app/spotit-api/pkg/notifier"
	"github.com/spotit-app/spotit-api/pkg/queue"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrWallyNotFound        = errors.New("wally not found")
	ErrRoleNotFound         = errors.New("wally role not found")
	ErrEncounterRejected    = errors.New("encounter rejected")
	ErrInvalidImage         = errors.New("invalid image")
	ErrValidatorUnavailable = errors.New("validator unavailable")
	ErrPictureStorage       = errors.New("picture storage failed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)

const encounterContentType = "image/jpg"

// PictureStore abstracts upload/remove/public-URL for pictures.
type PictureStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// EncounterValidator abstracts the external AI validation call.
type EncounterValidator interface {
	Validate(ctx context.Context, userID, wallyID, encounterID string) (validator.Verdict, error)
}

// EncounterService orchestrates encounter registration end to end: it
// owns the encounter transaction and the compensating picture deletes.
type EncounterService struct {
	Users      repo.UserRepository
	Wallies    repo.WallyRepository
	Encounters repo.EncounterRepository
	Pictures   PictureStore
	Validator  EncounterValidator
	Queue      *queue.Publisher
	Logger     *logrus.Logger
}

func NewEncounterService(users repo.UserRepository, wallies repo.WallyRepository, encounters repo.EncounterRepository,
	pictures PictureStore, v EncounterValidator, pub *queue.Publisher, logger *logrus.Logger) *EncounterService {
	return &EncounterService{
		Users:      users,
		Wallies:    wallies,
		Encounters: encounters,
		Pictures:   pictures,
		Validator:  v,
		Queue:      pub,
		Logger:     logger,
	}
}

// Register runs the full encounter workflow:
//
//  1. load user and wally (with role)
//  2. check for a prior finalized encounter (first-encounter bonus)
//  3. insert a provisional row inside a transaction
//  4. upload the picture under <encounterID>.jpg
//  5. ask the external validator; on any rejection delete the picture
//     and roll back
//  6. attach the public picture URL and commit
//  7. after commit, add the score delta and publish a notification;
//     failures here are logged, the encounter stays finalized
//
// The prior-encounter check is a plain read before the insert: two
// concurrent first registrations for the same (user, wally) pair can
// both earn the double bonus. Accepted, not locked against.
func (s *EncounterService) Register(ctx context.Context, userID, wallyID string, picture []byte) (*entity.Encounter, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && u == nil) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	w, err := s.Wallies.GetByID(ctx, wallyID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && w == nil) {
		return nil, ErrWallyNotFound
	}
	if err != nil {
		return nil, err
	}

	hasPrior, err := s.Encounters.HasFinalized(ctx, userID, wallyID)
	if err != nil {
		return nil, err
	}

	tx, err := s.Encounters.Begin(ctx)
	if err != nil {
		return nil, err
	}
	// Rollback after commit is a no-op; anything else voids the attempt.
	defer func() { _ = tx.Rollback(ctx) }()

	enc, err := tx.Insert(ctx, userID, wallyID)
	if err != nil {
		return nil, err
	}

	key := enc.ID + ".jpg"
	if err := s.Pictures.Upload(ctx, key, encounterContentType, bytes.NewReader(picture)); err != nil {
		s.logError("encounter picture upload failed", err, enc.ID)
		return nil, ErrPictureStorage
	}

	verdict, verr := s.Validator.Validate(ctx, userID, wallyID, enc.ID)
	switch verdict {
	case validator.VerdictAccepted:
		// fall through to finalize
	case validator.VerdictRejectedEncounter:
		s.deletePicture(ctx, key, enc.ID)
		return nil, ErrEncounterRejected
	case validator.VerdictRejectedImage:
		s.deletePicture(ctx, key, enc.ID)
		return nil, ErrInvalidImage
	default:
		s.deletePicture(ctx, key, enc.ID)
		s.logError("encounter validation failed", verr, enc.ID)
		return nil, ErrValidatorUnavailable
	}

	url := s.Pictures.PublicURL(key)
	if err := tx.AttachPicture(ctx, enc.ID, url); err != nil {
		s.deletePicture(ctx, key, enc.ID)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		s.deletePicture(ctx, key, enc.ID)
		return nil, err
	}
	enc.EncounterPicture = url
	enc.Wally = w

	s.settleScore(ctx, u, w, enc, !hasPrior)
	return enc, nil
}

// settleScore runs after the encounter transaction has committed. The
// score write is deliberately outside that transaction; if it fails the
// encounter stays valid and the gap is logged (and visible to any
// consumer of the notification queue).
func (s *EncounterService) settleScore(ctx context.Context, u *entity.User, w *entity.Wally, enc *entity.Encounter, first bool) {
	var multiplier float64
	if w.Role != nil {
		multiplier = w.Role.ScoreMultiplier
	}
	delta := scoring.Delta(multiplier, first)

	newScore, err := s.Users.AddScore(ctx, u.ID, delta)
	if err != nil {
		s.logError("score update failed after commit", err, enc.ID)
		newScore = u.Score
	}

	if s.Queue != nil {
		job := notifier.EncounterJob{
			EncounterID: enc.ID,
			UserID:      u.ID,
			UserEmail:   u.Email,
			UserName:    u.Name,
			WallyName:   w.Name,
			Delta:       delta,
			NewScore:    newScore,
			OccurredAt:  enc.OccurredAt,
		}
		if err := s.Queue.PublishJSON(ctx, job); err != nil {
			s.logError("encounter notification publish failed", err, enc.ID)
		}
	}
}

// ListForUser returns the caller's finalized encounters, newest first.
func (s *EncounterService) ListForUser(ctx context.Context, userID string) ([]*entity.Encounter, error) {
	return s.Encounters.ListByUser(ctx, userID)
}

// deletePicture is the best-effort compensation for an uploaded picture
// on an attempt that will not finalize. A failed delete never changes
// the error already being returned.
func (s *EncounterService) deletePicture(ctx context.Context, key, encounterID string) {
	if err := s.Pictures.Delete(ctx, key); err != nil {
		s.logError("compensating picture delete failed", err, encounterID)
	}
}

func (s *EncounterService) logError(msg string, err error, encounterID string) {
	if s.Logger == nil {
		return
	}
	entry := s.Logger.WithField("encounter_id", encounterID)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}
