package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sifan077/QuotaLink/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that the requested short link does not exist.
	ErrLinkNotFound = errors.New("link not found")

	// ErrDuplicateCode signals that the unique constraint on code rejected an insert.
	ErrDuplicateCode = errors.New("duplicate link code")

	// ErrNotConsumed signals that a click could not be consumed: the link is
	// missing, expired, disabled or out of quota.
	ErrNotConsumed = errors.New("click not consumed")
)

const pgUniqueViolation = "23505"

// LinkRepository defines the data access contract for short links.
// It is the only writer of click counters and active flags.
type LinkRepository interface {
	Insert(ctx context.Context, link *model.Link) error
	FindByCode(ctx context.Context, code string) (*model.Link, error)
	ListByOwner(ctx context.Context, owner string) ([]model.Link, error)
	DeleteByCodeAndOwner(ctx context.Context, code, owner string) (bool, error)
	UpdateLimit(ctx context.Context, code, owner string, newLimit int) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	ConsumeClick(ctx context.Context, code string, now time.Time) (*model.Link, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Insert(ctx context.Context, link *model.Link) error {
	link.ID = 0
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *linkRepository) FindByCode(ctx context.Context, code string) (*model.Link, error) {
	return findByCode(r.db.WithContext(ctx), code)
}

func (r *linkRepository) ListByOwner(ctx context.Context, owner string) ([]model.Link, error) {
	var result []model.Link
	if err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at_ms DESC").
		Order("id DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *linkRepository) DeleteByCodeAndOwner(ctx context.Context, code, owner string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("code = ? AND owner = ?", code, owner).
		Delete(&model.Link{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateLimit never turns a disabled link back on. A limit at or below the
// used count disables the link in the same statement, and a limit below the
// used count is refused so click_count never exceeds click_limit.
func (r *linkRepository) UpdateLimit(ctx context.Context, code, owner string, newLimit int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("code = ? AND owner = ? AND click_count <= ?", code, owner, newLimit).
		Updates(map[string]interface{}{
			"click_limit": newLimit,
			"active":      gorm.Expr("CASE WHEN click_count >= ? THEN FALSE ELSE active END", newLimit),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *linkRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at_ms <= ?", now.UnixMilli()).
		Delete(&model.Link{})
	return result.RowsAffected, result.Error
}

// ConsumeClick increments the counter with a single conditional UPDATE. The
// affected row count decides whether this caller won a unit of quota, so
// concurrent callers (in any process) can never overspend it.
func (r *linkRepository) ConsumeClick(ctx context.Context, code string, now time.Time) (*model.Link, error) {
	var updated *model.Link
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Link{}).
			Where("code = ? AND active = ? AND expires_at_ms > ? AND click_count < click_limit",
				code, true, now.UnixMilli()).
			Updates(map[string]interface{}{
				"click_count": gorm.Expr("click_count + 1"),
				"active":      gorm.Expr("CASE WHEN click_count + 1 >= click_limit THEN FALSE ELSE TRUE END"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotConsumed
		}

		link, err := findByCode(tx, code)
		if err != nil {
			return err
		}
		updated = link
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func findByCode(db *gorm.DB, code string) (*model.Link, error) {
	var link model.Link
	if err := db.Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	// sqlite and libsql report constraint failures as plain text.
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
