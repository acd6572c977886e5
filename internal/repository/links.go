package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/avtorres/shortlink/internal"
)

// Links is the gorm-backed durable store for link records. Uniqueness of
// short_code is enforced here by the unique index, not by callers; the gorm
// config must have TranslateError enabled so violations surface as
// gorm.ErrDuplicatedKey.
type Links struct {
	db *gorm.DB
}

func NewLinks(db *gorm.DB) *Links {
	return &Links{db: db}
}

// Migrate creates the tables and the sequence backing generated ids.
func (r *Links) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&internal.Link{}, &internal.Click{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if r.db.Dialector.Name() == "postgres" {
		if err := r.db.WithContext(ctx).Exec("CREATE SEQUENCE IF NOT EXISTS link_id_seq").Error; err != nil {
			return fmt.Errorf("create link_id_seq: %w", err)
		}
	}
	return nil
}

// NextSequenceID advances link_id_seq and returns the fresh value. The
// increment is atomic inside Postgres, so concurrent callers and separate
// processes never see duplicates.
func (r *Links) NextSequenceID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.WithContext(ctx).Raw("SELECT nextval('link_id_seq')").Scan(&id).Error
	if err != nil {
		return 0, fmt.Errorf("advance link_id_seq: %w", err)
	}
	return id, nil
}

func (r *Links) CreateLink(ctx context.Context, link *internal.Link) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// GetLinkByShortCode returns nil without an error when no row matches.
func (r *Links) GetLinkByShortCode(ctx context.Context, shortCode string) (*internal.Link, error) {
	var link internal.Link
	err := r.db.WithContext(ctx).Where("short_code = ?", shortCode).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query link by short code: %w", err)
	}
	return &link, nil
}

// ShortCodeExists is the advisory availability probe used before inserts.
func (r *Links) ShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&internal.Link{}).Where("short_code = ?", shortCode).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count short code: %w", err)
	}
	return count > 0, nil
}

func (r *Links) Ping(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("SELECT 1").Error
}
