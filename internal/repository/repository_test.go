package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/avtorres/shortlink/internal"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, NewLinks(db).Migrate(context.Background()))
	return db
}

func TestCreateAndGetLink(t *testing.T) {
	db := newTestDB(t)
	repo := NewLinks(db)
	ctx := context.Background()

	link := &internal.Link{
		ID:          42,
		OriginalURL: "https://example.com/a",
		ShortCode:   "g",
		IsActive:    true,
	}
	require.NoError(t, repo.CreateLink(ctx, link))

	got, err := repo.GetLinkByShortCode(ctx, "g")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "https://example.com/a", got.OriginalURL)
	assert.False(t, got.IsCustom)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetLinkByShortCodeMissing(t *testing.T) {
	repo := NewLinks(newTestDB(t))

	got, err := repo.GetLinkByShortCode(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateLinkDuplicateShortCode(t *testing.T) {
	repo := NewLinks(newTestDB(t))
	ctx := context.Background()

	first := &internal.Link{ID: 1, OriginalURL: "https://example.com/a", ShortCode: "promo", IsCustom: true, IsActive: true}
	require.NoError(t, repo.CreateLink(ctx, first))

	second := &internal.Link{ID: 2, OriginalURL: "https://example.com/b", ShortCode: "promo", IsCustom: true, IsActive: true}
	err := repo.CreateLink(ctx, second)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestShortCodeExists(t *testing.T) {
	repo := NewLinks(newTestDB(t))
	ctx := context.Background()

	exists, err := repo.ShortCodeExists(ctx, "promo")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.CreateLink(ctx, &internal.Link{ID: 1, OriginalURL: "https://example.com", ShortCode: "promo", IsActive: true}))

	exists, err = repo.ShortCodeExists(ctx, "promo")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClicks(t *testing.T) {
	db := newTestDB(t)
	links := NewLinks(db)
	clicks := NewClicks(db)
	ctx := context.Background()

	link := &internal.Link{ID: 7, OriginalURL: "https://example.com", ShortCode: "7", IsActive: true}
	require.NoError(t, links.CreateLink(ctx, link))

	referer := "https://referrer.example"
	require.NoError(t, clicks.CreateClick(ctx, &internal.Click{
		LinkID:    link.ID,
		IPAddress: "203.0.113.9",
		UserAgent: "curl/8.0",
		Referer:   &referer,
		CreatedAt: time.Now(),
	}))
	require.NoError(t, clicks.CreateClick(ctx, &internal.Click{
		LinkID:    link.ID,
		IPAddress: "203.0.113.10",
		UserAgent: "curl/8.0",
		CreatedAt: time.Now(),
	}))

	count, err := clicks.CountClicksByLinkID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCreateClickAssignsID(t *testing.T) {
	db := newTestDB(t)
	links := NewLinks(db)
	clicks := NewClicks(db)
	ctx := context.Background()

	require.NoError(t, links.CreateLink(ctx, &internal.Link{ID: 3, OriginalURL: "https://example.com", ShortCode: "3", IsActive: true}))

	// The clicks table owns its primary key; the recorder never sets one.
	a := &internal.Click{LinkID: 3, IPAddress: "203.0.113.9", UserAgent: "curl/8.0", CreatedAt: time.Now()}
	b := &internal.Click{LinkID: 3, IPAddress: "203.0.113.10", UserAgent: "curl/8.0", CreatedAt: time.Now()}
	require.NoError(t, clicks.CreateClick(ctx, a))
	require.NoError(t, clicks.CreateClick(ctx, b))

	require.NotZero(t, a.ID)
	require.NotZero(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID)

	var ids []int64
	require.NoError(t, db.Model(&internal.Click{}).Where("id IS NOT NULL").Pluck("id", &ids).Error)
	assert.Len(t, ids, 2)
}

func TestAddClickCounts(t *testing.T) {
	db := newTestDB(t)
	links := NewLinks(db)
	clicks := NewClicks(db)
	ctx := context.Background()

	require.NoError(t, links.CreateLink(ctx, &internal.Link{ID: 1, OriginalURL: "https://example.com/a", ShortCode: "1", IsActive: true}))
	require.NoError(t, links.CreateLink(ctx, &internal.Link{ID: 2, OriginalURL: "https://example.com/b", ShortCode: "2", IsActive: true}))

	require.NoError(t, clicks.AddClickCounts(ctx, map[string]int64{"1": 3, "2": 1}))
	require.NoError(t, clicks.AddClickCounts(ctx, map[string]int64{"1": 2}))
	require.NoError(t, clicks.AddClickCounts(ctx, nil))

	got, err := links.GetLinkByShortCode(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ClickCount)

	got, err = links.GetLinkByShortCode(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ClickCount)
}
