package shortener

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"gorm.io/gorm"

	"github.com/avtorres/shortlink/internal"
	"github.com/avtorres/shortlink/internal/codec"
)

const (
	aliasMinLen = 3
	aliasMaxLen = 50
)

// Repository is the durable-store surface the creation path needs.
type Repository interface {
	NextSequenceID(ctx context.Context) (int64, error)
	CreateLink(ctx context.Context, link *internal.Link) error
	ShortCodeExists(ctx context.Context, shortCode string) (bool, error)
}

// CachePopulator pre-warms the resolution cache after a successful insert.
type CachePopulator interface {
	Populate(ctx context.Context, link *internal.Link)
}

// Service orchestrates link creation: URL validation, code acquisition,
// durable insert, cache population.
type Service struct {
	repo  Repository
	cache CachePopulator
}

func NewService(repo Repository, cache CachePopulator) *Service {
	return &Service{repo: repo, cache: cache}
}

// CreateParams is one creation request. CustomBackHalf empty means a code is
// derived from the sequence.
type CreateParams struct {
	OriginalURL    string
	CustomBackHalf string
	ExpiresAt      *time.Time
}

// CreateLink runs the creation state machine. The availability check for a
// custom back-half is advisory; the unique index on links.short_code decides
// races, surfacing as ErrCodeCollision.
func (s *Service) CreateLink(ctx context.Context, p CreateParams) (*internal.Link, error) {
	if err := validateOriginalURL(p.OriginalURL); err != nil {
		return nil, err
	}

	shortCode := ""
	isCustom := false
	if p.CustomBackHalf != "" {
		available, err := s.aliasAvailable(ctx, p.CustomBackHalf)
		if err != nil {
			return nil, fmt.Errorf("check back-half availability: %w", err)
		}
		if !available {
			return nil, fmt.Errorf("%w: %q", ErrAliasUnavailable, p.CustomBackHalf)
		}
		shortCode = p.CustomBackHalf
		isCustom = true
	}

	id, err := s.repo.NextSequenceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocationUnavailable, err)
	}
	if !isCustom {
		shortCode = codec.Encode(id)
	}

	link := &internal.Link{
		ID:          id,
		OriginalURL: p.OriginalURL,
		ShortCode:   shortCode,
		IsCustom:    isCustom,
		IsActive:    true,
		ExpiresAt:   p.ExpiresAt,
	}

	if err := s.repo.CreateLink(ctx, link); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %q", ErrCodeCollision, shortCode)
		}
		return nil, fmt.Errorf("insert link: %w", err)
	}

	// Best effort: Populate logs its own failures, the row is durable.
	s.cache.Populate(ctx, link)

	return link, nil
}

// aliasAvailable applies the format rule, then probes the store. Malformed
// candidates report unavailable rather than a distinct error.
func (s *Service) aliasAvailable(ctx context.Context, candidate string) (bool, error) {
	if !validAliasFormat(candidate) {
		return false, nil
	}
	exists, err := s.repo.ShortCodeExists(ctx, candidate)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func validAliasFormat(candidate string) bool {
	if len(candidate) < aliasMinLen || len(candidate) > aliasMaxLen {
		return false
	}
	for _, c := range candidate {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

func validateOriginalURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}
