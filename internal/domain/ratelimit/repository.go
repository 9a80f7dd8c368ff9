package ratelimit

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Store persists hits. Count sums the hits recorded at or after since.
type Store interface {
	Count(ctx context.Context, ip, endpoint string, since time.Time) (int, error)
	Record(ctx context.Context, ip, endpoint string, at time.Time) error
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

// expiringStore is implemented by stores that drop old entries themselves.
type expiringStore interface {
	expiresEntries()
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Count(ctx context.Context, ip, endpoint string, since time.Time) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&Entry{}).
		Select("COALESCE(SUM(request_count), 0)").
		Where("ip_address = ? AND endpoint = ? AND window_start >= ?", ip, endpoint, since).
		Scan(&total).Error
	return int(total), err
}

func (s *gormStore) Record(ctx context.Context, ip, endpoint string, at time.Time) error {
	return s.db.WithContext(ctx).Create(&Entry{
		IPAddress:    ip,
		Endpoint:     endpoint,
		RequestCount: 1,
		WindowStart:  at,
	}).Error
}

func (s *gormStore) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("window_start < ?", before).Delete(&Entry{})
	return res.RowsAffected, res.Error
}
