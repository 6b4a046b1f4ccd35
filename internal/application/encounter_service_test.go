package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
	repo "github.com/spotit-app/spotit-api/internal/domain/repository"
	"github.com/spotit-app/spotit-api/internal/infrastructure/validator"
)

// ---- fakes ----

type fakeUsers struct {
	users       map[string]*entity.User
	getErr      error
	addScoreErr error
	addedDeltas []float64
}

func (f *fakeUsers) Create(ctx context.Context, u *entity.User) error {
	u.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == identifier || u.Username == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) SetProfilePicture(ctx context.Context, id, url string) error {
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.ProfilePicture = url
	return nil
}

func (f *fakeUsers) AddScore(ctx context.Context, id string, delta float64) (float64, error) {
	if f.addScoreErr != nil {
		return 0, f.addScoreErr
	}
	u, ok := f.users[id]
	if !ok {
		return 0, repo.ErrNotFound
	}
	u.Score += delta
	f.addedDeltas = append(f.addedDeltas, delta)
	return u.Score, nil
}

func (f *fakeUsers) ListByScore(ctx context.Context) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

type fakeWallies struct {
	wallies map[string]*entity.Wally
	roles   map[string]*entity.WallyRole
	getErr  error
}

func (f *fakeWallies) Create(ctx context.Context, w *entity.Wally) error {
	w.ID = fmt.Sprintf("wally-%d", len(f.wallies)+1)
	w.CreatedAt = time.Now()
	f.wallies[w.ID] = w
	return nil
}

func (f *fakeWallies) GetByID(ctx context.Context, id string) (*entity.Wally, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	w, ok := f.wallies[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return w, nil
}

func (f *fakeWallies) List(ctx context.Context) ([]repo.WallyWithEncounters, error) {
	out := make([]repo.WallyWithEncounters, 0, len(f.wallies))
	for _, w := range f.wallies {
		out = append(out, repo.WallyWithEncounters{Wally: *w})
	}
	return out, nil
}

func (f *fakeWallies) SetProfilePicture(ctx context.Context, id, url string) error {
	w, ok := f.wallies[id]
	if !ok {
		return repo.ErrNotFound
	}
	w.ProfilePicture = url
	return nil
}

func (f *fakeWallies) CreateRole(ctx context.Context, r *entity.WallyRole) error {
	r.ID = fmt.Sprintf("role-%d", len(f.roles)+1)
	r.CreatedAt = time.Now()
	if f.roles == nil {
		f.roles = map[string]*entity.WallyRole{}
	}
	f.roles[r.Role] = r
	return nil
}

func (f *fakeWallies) GetRoleByName(ctx context.Context, name string) (*entity.WallyRole, error) {
	r, ok := f.roles[name]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return r, nil
}

func (f *fakeWallies) ListRoles(ctx context.Context) ([]*entity.WallyRole, error) {
	out := make([]*entity.WallyRole, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out, nil
}

// fakeEncounters keeps committed rows; pending rows live on the tx and
// disappear unless Commit is called, mirroring the real transaction.
type fakeEncounters struct {
	committed     []*entity.Encounter
	nextID        int
	forceNoPrior  bool // pretend the prior-check read happened before any commit
	beginErr      error
	attachErr     error
	commitErr     error
	activeTxCount int
}

type fakeTx struct {
	parent  *fakeEncounters
	pending []*entity.Encounter
	done    bool
}

func (f *fakeEncounters) Begin(ctx context.Context) (repo.EncounterTx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.activeTxCount++
	return &fakeTx{parent: f}, nil
}

func (t *fakeTx) Insert(ctx context.Context, userID, wallyID string) (*entity.Encounter, error) {
	t.parent.nextID++
	e := &entity.Encounter{
		ID:         fmt.Sprintf("enc-%d", t.parent.nextID),
		UserID:     userID,
		WallyID:    wallyID,
		OccurredAt: time.Now(),
	}
	t.pending = append(t.pending, e)
	return e, nil
}

func (t *fakeTx) AttachPicture(ctx context.Context, encounterID, url string) error {
	if t.parent.attachErr != nil {
		return t.parent.attachErr
	}
	for _, e := range t.pending {
		if e.ID == encounterID {
			e.EncounterPicture = url
			return nil
		}
	}
	return repo.ErrNotFound
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.parent.commitErr != nil {
		return t.parent.commitErr
	}
	t.parent.committed = append(t.parent.committed, t.pending...)
	t.parent.activeTxCount--
	t.done = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.parent.activeTxCount--
	t.pending = nil
	t.done = true
	return nil
}

func (f *fakeEncounters) HasFinalized(ctx context.Context, userID, wallyID string) (bool, error) {
	if f.forceNoPrior {
		return false, nil
	}
	for _, e := range f.committed {
		if e.UserID == userID && e.WallyID == wallyID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEncounters) ListByUser(ctx context.Context, userID string) ([]*entity.Encounter, error) {
	var out []*entity.Encounter
	for _, e := range f.committed {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePictures struct {
	objects   map[string][]byte
	uploadErr error
	deleteErr error
}

func (f *fakePictures) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	b, _ := io.ReadAll(r)
	f.objects[key] = b
	return nil
}

func (f *fakePictures) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakePictures) PublicURL(key string) string {
	return "https://storage.test/spot.it/" + key
}

type fakeValidator struct {
	verdict validator.Verdict
	err     error
	called  int
}

func (f *fakeValidator) Validate(ctx context.Context, userID, wallyID, encounterID string) (validator.Verdict, error) {
	f.called++
	return f.verdict, f.err
}

// ---- harness ----

type fixture struct {
	users      *fakeUsers
	wallies    *fakeWallies
	encounters *fakeEncounters
	pictures   *fakePictures
	validator  *fakeValidator
	svc        *EncounterService
}

func newFixture(verdict validator.Verdict) *fixture {
	f := &fixture{
		users: &fakeUsers{users: map[string]*entity.User{
			"user-1": {ID: "user-1", Name: "Ana", Username: "ana", Email: "ana@example.com", Score: 10},
		}},
		wallies: &fakeWallies{wallies: map[string]*entity.Wally{
			"wally-1": {
				ID: "wally-1", Name: "Waldo", RoleID: "role-1",
				Role: &entity.WallyRole{ID: "role-1", Role: "wizard", ScoreMultiplier: 3},
			},
		}},
		encounters: &fakeEncounters{},
		pictures:   &fakePictures{objects: map[string][]byte{}},
		validator:  &fakeValidator{verdict: verdict},
	}
	f.svc = NewEncounterService(f.users, f.wallies, f.encounters, f.pictures, f.validator, nil, nil)
	return f
}

var testPicture = []byte("jpeg-bytes")

// ---- tests ----

func TestRegisterFirstEncounter(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)

	enc, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	require.NoError(t, err)
	require.NotNil(t, enc)

	// exactly one finalized encounter is visible
	require.Len(t, f.encounters.committed, 1)
	assert.Equal(t, enc.ID, f.encounters.committed[0].ID)
	assert.Equal(t, "https://storage.test/spot.it/"+enc.ID+".jpg", enc.EncounterPicture)

	// picture persisted under <encounterID>.jpg
	assert.Contains(t, f.pictures.objects, enc.ID+".jpg")

	// first encounter with multiplier 3: 10 + 1*3*2 = 16
	assert.Equal(t, 16.0, f.users.users["user-1"].Score)
	assert.Equal(t, []float64{6}, f.users.addedDeltas)
	assert.Equal(t, 1, f.validator.called)
}

func TestRegisterRepeatEncounter(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)
	f.encounters.committed = append(f.encounters.committed, &entity.Encounter{
		ID: "enc-prior", UserID: "user-1", WallyID: "wally-1",
	})

	_, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	require.NoError(t, err)

	// prior finalized encounter: 10 + 1*3*1 = 13
	assert.Equal(t, 13.0, f.users.users["user-1"].Score)
	assert.Len(t, f.encounters.committed, 2)
}

func TestRegisterUnknownUser(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)
	_, err := f.svc.Register(context.Background(), "nope", "wally-1", testPicture)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.encounters.committed)
	assert.Zero(t, f.validator.called)
}

func TestRegisterUnknownWally(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)
	_, err := f.svc.Register(context.Background(), "user-1", "nope", testPicture)
	assert.ErrorIs(t, err, ErrWallyNotFound)
	assert.Empty(t, f.encounters.committed)
}

func TestRegisterUploadFailure(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)
	f.pictures.uploadErr = errors.New("bucket gone")

	_, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	assert.ErrorIs(t, err, ErrPictureStorage)
	assert.Empty(t, f.encounters.committed)
	assert.Empty(t, f.pictures.objects)
	assert.Zero(t, f.validator.called)
	assert.Equal(t, 10.0, f.users.users["user-1"].Score)
	assert.Zero(t, f.encounters.activeTxCount, "transaction must not stay open")
}

func TestRegisterRejections(t *testing.T) {
	cases := []struct {
		verdict validator.Verdict
		wantErr error
	}{
		{validator.VerdictRejectedEncounter, ErrEncounterRejected},
		{validator.VerdictRejectedImage, ErrInvalidImage},
		{validator.VerdictError, ErrValidatorUnavailable},
	}
	for _, c := range cases {
		t.Run(c.verdict.String(), func(t *testing.T) {
			f := newFixture(c.verdict)

			_, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
			assert.ErrorIs(t, err, c.wantErr)

			// no residual rows, compensation removed the picture
			assert.Empty(t, f.encounters.committed)
			assert.Empty(t, f.pictures.objects)
			assert.Equal(t, 10.0, f.users.users["user-1"].Score)
			assert.Zero(t, f.encounters.activeTxCount)
		})
	}
}

func TestRegisterCompensationDeleteFailureKeepsError(t *testing.T) {
	f := newFixture(validator.VerdictRejectedImage)
	f.pictures.deleteErr = errors.New("delete refused")

	_, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Empty(t, f.encounters.committed)
}

func TestRegisterCommitFailure(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)
	f.encounters.commitErr = errors.New("commit refused")

	_, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	require.Error(t, err)
	assert.Empty(t, f.encounters.committed)
	assert.Empty(t, f.pictures.objects, "accepted-but-uncommitted attempt must clean up its picture")
	assert.Equal(t, 10.0, f.users.users["user-1"].Score, "score must not change without a finalized encounter")
}

func TestRegisterScoreUpdateFailureKeepsEncounter(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)
	f.users.addScoreErr = errors.New("users table locked")

	enc, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	require.NoError(t, err, "a committed encounter survives a failed score write")
	require.NotNil(t, enc)
	assert.Len(t, f.encounters.committed, 1)
	assert.Equal(t, 10.0, f.users.users["user-1"].Score)
}

func TestRegisterFirstEncounterRaceAllowsDoubleBonus(t *testing.T) {
	// Both invocations read "no prior encounter" before either commits;
	// the workflow takes no lock, so both legitimately earn the bonus.
	f := newFixture(validator.VerdictAccepted)
	f.encounters.forceNoPrior = true

	_, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	require.NoError(t, err)
	_, err = f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	require.NoError(t, err)

	assert.Equal(t, []float64{6, 6}, f.users.addedDeltas)
	assert.Equal(t, 22.0, f.users.users["user-1"].Score)
}

func TestListForUser(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)
	_, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	require.NoError(t, err)

	encs, err := f.svc.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, encs, 1)

	encs, err = f.svc.ListForUser(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.Empty(t, encs)
}

func TestRegisterUserLookupFailure(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)
	f.users.getErr = errors.New("connection reset")

	_, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound, "a failing store is not a missing user")
	assert.Empty(t, f.encounters.committed)
	assert.Zero(t, f.validator.called)
}

func TestRegisterWallyLookupFailure(t *testing.T) {
	f := newFixture(validator.VerdictAccepted)
	f.wallies.getErr = errors.New("connection reset")

	_, err := f.svc.Register(context.Background(), "user-1", "wally-1", testPicture)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrWallyNotFound, "a failing store is not a missing wally")
	assert.Empty(t, f.encounters.committed)
}
