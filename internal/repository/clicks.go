package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/avtorres/shortlink/internal"
)

// Clicks is the durable store for click records and the derived
// links.click_count counter.
type Clicks struct {
	db *gorm.DB
}

func NewClicks(db *gorm.DB) *Clicks {
	return &Clicks{db: db}
}

func (r *Clicks) CreateClick(ctx context.Context, click *internal.Click) error {
	if err := r.db.WithContext(ctx).Create(click).Error; err != nil {
		return fmt.Errorf("insert click: %w", err)
	}
	return nil
}

// AddClickCounts applies a batch of per-code increments inside one
// transaction. Used by the click-worker, never by the request path.
func (r *Clicks) AddClickCounts(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for shortCode, n := range counts {
			err := tx.Model(&internal.Link{}).
				Where("short_code = ?", shortCode).
				UpdateColumn("click_count", gorm.Expr("click_count + ?", n)).Error
			if err != nil {
				return fmt.Errorf("increment click_count for %s: %w", shortCode, err)
			}
		}
		return nil
	})
}

func (r *Clicks) CountClicksByLinkID(ctx context.Context, linkID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&internal.Click{}).Where("link_id = ?", linkID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count clicks: %w", err)
	}
	return count, nil
}
