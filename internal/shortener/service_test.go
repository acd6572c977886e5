package shortener

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avtorres/shortlink/internal"
	"github.com/avtorres/shortlink/internal/codec"
)

type fakeRepo struct {
	seq       int64
	seqErr    error
	links     map[string]*internal.Link
	createErr error
	existsErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{links: map[string]*internal.Link{}}
}

func (f *fakeRepo) NextSequenceID(ctx context.Context) (int64, error) {
	if f.seqErr != nil {
		return 0, f.seqErr
	}
	f.seq++
	return f.seq, nil
}

func (f *fakeRepo) CreateLink(ctx context.Context, link *internal.Link) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, taken := f.links[link.ShortCode]; taken {
		return gorm.ErrDuplicatedKey
	}
	link.CreatedAt = time.Now()
	f.links[link.ShortCode] = link
	return nil
}

func (f *fakeRepo) ShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.links[shortCode]
	return ok, nil
}

type fakeCache struct {
	populated []*internal.Link
}

func (f *fakeCache) Populate(ctx context.Context, link *internal.Link) {
	f.populated = append(f.populated, link)
}

func TestCreateLinkGeneratedCode(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	svc := NewService(repo, cache)

	link, err := svc.CreateLink(context.Background(), CreateParams{OriginalURL: "https://example.com/a"})
	require.NoError(t, err)

	assert.False(t, link.IsCustom)
	assert.True(t, link.IsActive)
	assert.Equal(t, "https://example.com/a", link.OriginalURL)

	// The code must decode back to the sequence value that was consumed.
	decoded, err := codec.Decode(link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, repo.seq, decoded)
	assert.Equal(t, link.ID, decoded)

	require.Len(t, cache.populated, 1)
	assert.Equal(t, link.ShortCode, cache.populated[0].ShortCode)
}

func TestCreateLinkGeneratedCodesAreDistinct(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeCache{})

	a, err := svc.CreateLink(context.Background(), CreateParams{OriginalURL: "https://example.com/a"})
	require.NoError(t, err)
	b, err := svc.CreateLink(context.Background(), CreateParams{OriginalURL: "https://example.com/b"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ShortCode, b.ShortCode)
}

func TestCreateLinkCustomBackHalf(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeCache{})

	link, err := svc.CreateLink(context.Background(), CreateParams{
		OriginalURL:    "https://example.com/promo",
		CustomBackHalf: "promo",
	})
	require.NoError(t, err)
	assert.Equal(t, "promo", link.ShortCode)
	assert.True(t, link.IsCustom)

	_, err = svc.CreateLink(context.Background(), CreateParams{
		OriginalURL:    "https://example.com/other",
		CustomBackHalf: "promo",
	})
	assert.ErrorIs(t, err, ErrAliasUnavailable)
}

func TestCreateLinkUnavailableAliasDoesNotConsumeSequence(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeCache{})

	_, err := svc.CreateLink(context.Background(), CreateParams{
		OriginalURL:    "https://example.com",
		CustomBackHalf: "promo",
	})
	require.NoError(t, err)
	before := repo.seq

	_, err = svc.CreateLink(context.Background(), CreateParams{
		OriginalURL:    "https://example.com",
		CustomBackHalf: "promo",
	})
	require.ErrorIs(t, err, ErrAliasUnavailable)
	assert.Equal(t, before, repo.seq)
}

func TestCreateLinkMalformedAlias(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeCache{})

	for _, alias := range []string{"ab", strings.Repeat("x", 51), "has space", "dot.dot", "emoji✨", "slash/"} {
		_, err := svc.CreateLink(context.Background(), CreateParams{
			OriginalURL:    "https://example.com",
			CustomBackHalf: alias,
		})
		assert.ErrorIs(t, err, ErrAliasUnavailable, "alias %q", alias)
	}

	// Underscore and hyphen are allowed.
	link, err := svc.CreateLink(context.Background(), CreateParams{
		OriginalURL:    "https://example.com",
		CustomBackHalf: "my_promo-2024",
	})
	require.NoError(t, err)
	assert.Equal(t, "my_promo-2024", link.ShortCode)
}

func TestCreateLinkInvalidURL(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeCache{})

	for _, raw := range []string{"not-a-url", "", "ftp://example.com/file", "http://", "example.com/no-scheme"} {
		_, err := svc.CreateLink(context.Background(), CreateParams{OriginalURL: raw})
		assert.ErrorIs(t, err, ErrInvalidURL, "url %q", raw)
	}
	assert.Empty(t, repo.links, "no insert may happen for invalid input")
	assert.Zero(t, repo.seq)
}

func TestCreateLinkCollisionOnInsert(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = gorm.ErrDuplicatedKey
	svc := NewService(repo, &fakeCache{})

	_, err := svc.CreateLink(context.Background(), CreateParams{OriginalURL: "https://example.com"})
	assert.ErrorIs(t, err, ErrCodeCollision)
}

func TestCreateLinkAllocationFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.seqErr = errors.New("connection refused")
	cache := &fakeCache{}
	svc := NewService(repo, cache)

	_, err := svc.CreateLink(context.Background(), CreateParams{OriginalURL: "https://example.com"})
	assert.ErrorIs(t, err, ErrAllocationUnavailable)
	assert.Empty(t, cache.populated)
}

func TestCreateLinkKeepsExpiry(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	svc := NewService(repo, cache)

	expiry := time.Now().Add(time.Hour).UTC()
	link, err := svc.CreateLink(context.Background(), CreateParams{
		OriginalURL: "https://example.com",
		ExpiresAt:   &expiry,
	})
	require.NoError(t, err)
	require.NotNil(t, link.ExpiresAt)
	assert.Equal(t, expiry, *link.ExpiresAt)
	require.Len(t, cache.populated, 1)
	assert.Equal(t, &expiry, cache.populated[0].ExpiresAt)
}
