package internal

import (
	"time"
)

// Link is the durable record behind a short code. ID comes from the
// link_id_seq sequence for generated codes; ShortCode is unique either way.
type Link struct {
	ID          int64      `gorm:"primaryKey;type:bigint" json:"id"`
	OriginalURL string     `gorm:"type:text;not null" json:"original_url"`
	ShortCode   string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"short_code"`
	IsCustom    bool       `gorm:"not null;default:false" json:"custom_back_half"`
	IsActive    bool       `gorm:"not null;default:true" json:"-"`
	ClickCount  int64      `gorm:"not null;default:0" json:"click_count"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Click is an append-only record of one resolution. Written only by the
// click logger; links.click_count is maintained separately by the
// click-worker, never by the request path.
type Click struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	LinkID      int64   `gorm:"index;not null"`
	IPAddress   string  `gorm:"type:varchar(45)"`
	UserAgent   string  `gorm:"type:varchar(255)"`
	Referer     *string `gorm:"type:text"`
	CountryCode *string `gorm:"type:varchar(2)"`
	CreatedAt   time.Time
}

// ClickCountEvent is the queue message the click logger publishes after a
// durable Click insert. The click-worker folds these into links.click_count.
type ClickCountEvent struct {
	ShortCode string    `json:"short_code"`
	Clicks    int64     `json:"clicks"`
	Timestamp time.Time `json:"timestamp"`
}
