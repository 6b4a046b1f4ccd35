package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
)

func newWallyService(wallies *fakeWallies) *WallyService {
	return NewWallyService(wallies, &fakePictures{objects: map[string][]byte{}}, nil, "wallies", nil)
}

func TestWallyCreateRole(t *testing.T) {
	svc := newWallyService(&fakeWallies{wallies: map[string]*entity.Wally{}})

	r, err := svc.CreateRole(context.Background(), "wizard", 3)
	require.NoError(t, err)
	assert.Equal(t, "wizard", r.Role)
	assert.Equal(t, 3.0, r.ScoreMultiplier)

	_, err = svc.CreateRole(context.Background(), "intern", 0.5)
	assert.ErrorIs(t, err, ErrInvalidMultiplier)

	roles, err := svc.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 1)
}

func TestWallyCreate(t *testing.T) {
	wallies := &fakeWallies{wallies: map[string]*entity.Wally{}}
	svc := newWallyService(wallies)

	_, err := svc.CreateRole(context.Background(), "wizard", 3)
	require.NoError(t, err)

	w, err := svc.Create(context.Background(), CreateWallyInput{
		Name:  "Waldo",
		Email: "waldo@example.com",
		Role:  "wizard",
	}, testPicture)
	require.NoError(t, err)
	require.NotEmpty(t, w.ID)

	assert.Equal(t, "https://storage.test/spot.it/wallies/"+w.ID+".jpg", w.ProfilePicture)
	require.NotNil(t, w.Role)
	assert.Equal(t, 3.0, w.Role.ScoreMultiplier)
	assert.Equal(t, w.ProfilePicture, wallies.wallies[w.ID].ProfilePicture)
}

func TestWallyCreateUnknownRole(t *testing.T) {
	svc := newWallyService(&fakeWallies{wallies: map[string]*entity.Wally{}})

	_, err := svc.Create(context.Background(), CreateWallyInput{
		Name: "Waldo", Email: "waldo@example.com", Role: "ghost",
	}, testPicture)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestWallyGet(t *testing.T) {
	wallies := &fakeWallies{wallies: map[string]*entity.Wally{
		"wally-1": {ID: "wally-1", Name: "Waldo"},
	}}
	svc := newWallyService(wallies)

	w, err := svc.Get(context.Background(), "wally-1")
	require.NoError(t, err)
	assert.Equal(t, "Waldo", w.Name)

	_, err = svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrWallyNotFound)
}

func TestWallySearchWithoutES(t *testing.T) {
	svc := newWallyService(&fakeWallies{wallies: map[string]*entity.Wally{}})

	hits, err := svc.Search(context.Background(), "waldo", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestWallyGetStoreFailure(t *testing.T) {
	svc := newWallyService(&fakeWallies{wallies: map[string]*entity.Wally{}, getErr: errors.New("connection reset")})

	_, err := svc.Get(context.Background(), "wally-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrWallyNotFound, "a failing store is not a missing wally")
}
