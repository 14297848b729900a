package repository_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atan0707/lepakmasjid/internal/models"
	"github.com/Atan0707/lepakmasjid/internal/pbtest"
	"github.com/Atan0707/lepakmasjid/internal/repository"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

func TestMosqueListStatusValidation(t *testing.T) {
	s := pbtest.New(t)
	s.SeedRecord(t, "mosques", map[string]any{"name": "Masjid Jamek", "status": "approved"})
	s.SeedRecord(t, "mosques", map[string]any{"name": "Masjid Baru", "status": "pending"})
	repo := repository.NewMosqueRepo(pocketbase.New(s.URL))
	ctx := context.Background()

	mosques, total, err := repo.List(ctx, "approved", 1, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, mosques, 1)
	assert.Equal(t, "Masjid Jamek", mosques[0].Name)

	s.ResetRequests()
	_, _, err = repo.List(ctx, `approved" || status != "`, 1, 30)
	assert.ErrorIs(t, err, models.ErrInvalidStatus)
	assert.Zero(t, s.RequestCount())
}

func TestMosqueListEmptyStatusListsAll(t *testing.T) {
	s := pbtest.New(t)
	s.SeedRecord(t, "mosques", map[string]any{"name": "Masjid Jamek", "status": "approved"})
	s.SeedRecord(t, "mosques", map[string]any{"name": "Masjid Baru", "status": "pending"})
	repo := repository.NewMosqueRepo(pocketbase.New(s.URL))

	mosques, total, err := repo.List(context.Background(), "", 1, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, mosques, 2)

	reqs := s.Requests()
	require.Len(t, reqs, 1)
	_, filtered := reqs[0].Query["filter"]
	assert.False(t, filtered, "empty status must not produce a filter")
}

func TestMosqueCreateWithImage(t *testing.T) {
	s := pbtest.New(t)
	repo := repository.NewMosqueRepo(pocketbase.New(s.URL))

	mosque, err := repo.Create(context.Background(), map[string]any{
		"name":      "Masjid Al-Hidayah",
		"address":   "Jalan Damai 3",
		"latitude":  3.1486,
		"longitude": 101.6988,
		"status":    "approved",
	}, &pocketbase.File{Field: "image", Name: "front.jpg", Reader: strings.NewReader("jpeg-bytes")})
	require.NoError(t, err)
	assert.Equal(t, "Masjid Al-Hidayah", mosque.Name)
	assert.Equal(t, 3.1486, mosque.Latitude)
	assert.Equal(t, "front.jpg", mosque.Image)
}

func TestMosqueUpdateValidatesID(t *testing.T) {
	s := pbtest.New(t)
	repo := repository.NewMosqueRepo(pocketbase.New(s.URL))

	_, err := repo.Update(context.Background(), "../collections", map[string]any{"name": "x"}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidRecordID)
	assert.Zero(t, s.RequestCount())
}
