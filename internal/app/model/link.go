package model

import "time"

// Link describes a quota-limited short link.
type Link struct {
	ID          int64  `db:"id" gorm:"primaryKey;autoIncrement"`
	Owner       string `db:"owner" gorm:"size:64;not null;index"`
	Code        string `db:"code" gorm:"size:32;not null;uniqueIndex"`
	Target      string `db:"target" gorm:"type:text;not null"`
	CreatedAtMs int64  `db:"created_at_ms" gorm:"column:created_at_ms;not null"`
	ExpiresAtMs int64  `db:"expires_at_ms" gorm:"column:expires_at_ms;not null;index"`
	ClickLimit  int    `db:"click_limit" gorm:"not null"`
	ClickCount  int    `db:"click_count" gorm:"not null"`
	Active      bool   `db:"active" gorm:"not null"`
}

// TableName pins the table name regardless of naming strategy.
func (Link) TableName() string {
	return "links"
}

func (l *Link) CreatedAt() time.Time {
	return time.UnixMilli(l.CreatedAtMs)
}

func (l *Link) ExpiresAt() time.Time {
	return time.UnixMilli(l.ExpiresAtMs)
}

// ExpiredAt reports whether the TTL has elapsed at now.
func (l *Link) ExpiredAt(now time.Time) bool {
	return l.ExpiresAtMs <= now.UnixMilli()
}

// QuotaExhausted covers both encodings of a spent link: the counter at
// its limit and the inactive flag.
func (l *Link) QuotaExhausted() bool {
	return l.ClickCount >= l.ClickLimit || !l.Active
}

// Remaining returns the number of clicks left before the link disables itself.
func (l *Link) Remaining() int {
	if l.QuotaExhausted() {
		return 0
	}
	return l.ClickLimit - l.ClickCount
}
