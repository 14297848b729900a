package pocketbase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atan0707/lepakmasjid/internal/pbtest"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

func TestRecordCRUD(t *testing.T) {
	s := pbtest.New(t)
	c := pocketbase.New(s.URL)
	ctx := context.Background()

	created, err := c.Create(ctx, "mosques", map[string]any{
		"name":    "Masjid Al-Hidayah",
		"address": "Jalan Damai 3",
		"status":  "approved",
	})
	require.NoError(t, err)
	id, _ := created["id"].(string)
	require.Len(t, id, 15)
	assert.NotEmpty(t, created["created"])

	got, err := c.GetOne(ctx, "mosques", id, "")
	require.NoError(t, err)
	assert.Equal(t, "Masjid Al-Hidayah", got["name"])

	updated, err := c.Update(ctx, "mosques", id, map[string]any{"address": "Jalan Damai 5"})
	require.NoError(t, err)
	assert.Equal(t, "Jalan Damai 5", updated["address"])
	assert.Equal(t, "Masjid Al-Hidayah", updated["name"])

	require.NoError(t, c.Delete(ctx, "mosques", id))
	_, err = c.GetOne(ctx, "mosques", id, "")
	assert.True(t, pocketbase.IsNotFound(err))
}

func TestListPassesQueryOptions(t *testing.T) {
	s := pbtest.New(t)
	s.SeedRecord(t, "submissions", map[string]any{"status": "pending", "created": "2026-01-02 10:00:00.000Z"})
	s.SeedRecord(t, "submissions", map[string]any{"status": "approved", "created": "2026-01-03 10:00:00.000Z"})
	s.SeedRecord(t, "submissions", map[string]any{"status": "pending", "created": "2026-01-04 10:00:00.000Z"})
	c := pocketbase.New(s.URL)

	result, err := c.List(context.Background(), "submissions", &pocketbase.ListOptions{
		Page:    1,
		PerPage: 10,
		Filter:  `status = "pending"`,
		Sort:    "-created",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalItems)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "2026-01-04 10:00:00.000Z", result.Items[0]["created"])
	assert.Equal(t, "2026-01-02 10:00:00.000Z", result.Items[1]["created"])

	reqs := s.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, `status = "pending"`, last.Query.Get("filter"))
	assert.Equal(t, "-created", last.Query.Get("sort"))
	assert.Equal(t, "10", last.Query.Get("perPage"))
}

func TestListPagination(t *testing.T) {
	s := pbtest.New(t)
	for i := 0; i < 5; i++ {
		s.SeedRecord(t, "mosques", map[string]any{"status": "approved"})
	}
	c := pocketbase.New(s.URL)

	page2, err := c.List(context.Background(), "mosques", &pocketbase.ListOptions{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page2.Page)
	assert.Equal(t, 5, page2.TotalItems)
	assert.Equal(t, 3, page2.TotalPages)
	assert.Len(t, page2.Items, 2)
}

func TestCreateWithFiles(t *testing.T) {
	s := pbtest.New(t)
	c := pocketbase.New(s.URL)
	ctx := context.Background()

	created, err := c.CreateWithFiles(ctx, "mosques",
		map[string]any{"name": "Masjid Jamek", "latitude": 3.1486},
		[]pocketbase.File{{Field: "image", Name: "front.jpg", Reader: strings.NewReader("jpeg-bytes")}},
	)
	require.NoError(t, err)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "front.jpg", created["image"])
	// numbers survive the multipart encoding
	assert.Equal(t, 3.1486, created["latitude"])

	data, contentType, err := c.DownloadFile(ctx, "mosques", id, "front.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, "application/octet-stream", contentType)
}

func TestUpdateWithFiles(t *testing.T) {
	s := pbtest.New(t)
	mosque := s.SeedRecord(t, "mosques", map[string]any{"name": "Masjid Jamek"})
	c := pocketbase.New(s.URL)

	updated, err := c.UpdateWithFiles(context.Background(), "mosques", mosque["id"].(string),
		map[string]any{"name": "Masjid Jamek Sultan Abdul Samad"},
		[]pocketbase.File{{Field: "image", Name: "new.png", Reader: strings.NewReader("png-bytes")}},
	)
	require.NoError(t, err)
	assert.Equal(t, "Masjid Jamek Sultan Abdul Samad", updated["name"])
	assert.Equal(t, "new.png", updated["image"])
}

func TestFileURL(t *testing.T) {
	c := pocketbase.New("http://127.0.0.1:8090")

	url := c.FileURL("submissions", "abc123def456ghi", "photo 1.jpg", "")
	assert.Equal(t, "http://127.0.0.1:8090/api/files/submissions/abc123def456ghi/photo%201.jpg", url)

	withThumb := c.FileURL("submissions", "abc123def456ghi", "photo.jpg", "100x100")
	assert.Equal(t, "http://127.0.0.1:8090/api/files/submissions/abc123def456ghi/photo.jpg?thumb=100x100", withThumb)
}

func TestDownloadFileMissing(t *testing.T) {
	s := pbtest.New(t)
	c := pocketbase.New(s.URL)

	_, _, err := c.DownloadFile(context.Background(), "submissions", "aaaaaaaaaaaaaaa", "nope.jpg")
	require.Error(t, err)
	assert.True(t, pocketbase.IsNotFound(err))
}

func TestCollectionRules(t *testing.T) {
	s := pbtest.New(t)
	s.SeedAdmin(t, "admin@example.com", "admin-secret")
	c := pocketbase.New(s.URL)
	ctx := context.Background()

	_, err := c.AdminAuthWithPassword(ctx, "admin@example.com", "admin-secret")
	require.NoError(t, err)

	before, err := c.GetCollection(ctx, "submissions")
	require.NoError(t, err)
	assert.Equal(t, "submissions", before.Name)
	assert.Nil(t, before.CreateRule, "fresh collection should be admin only")

	rule := `@request.auth.id != ""`
	after, err := c.UpdateCollection(ctx, "submissions", map[string]any{"createRule": rule})
	require.NoError(t, err)
	require.NotNil(t, after.CreateRule)
	assert.Equal(t, rule, *after.CreateRule)
	// untouched rules stay as they were
	assert.Nil(t, after.ListRule)

	meta, ok := s.Collection("submissions")
	require.True(t, ok)
	require.NotNil(t, meta.CreateRule)
	assert.Equal(t, rule, *meta.CreateRule)
}
