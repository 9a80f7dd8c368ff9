package upload

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, u *Upload) error
	GetByPath(ctx context.Context, path string) (*Upload, error)
	ListByLead(ctx context.Context, leadID string) ([]*Upload, error)
	DeleteByPath(ctx context.Context, path string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *Upload) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *repository) GetByPath(ctx context.Context, path string) (*Upload, error) {
	var u Upload
	err := r.db.WithContext(ctx).Where("path = ?", path).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUploadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) ListByLead(ctx context.Context, leadID string) ([]*Upload, error) {
	var uploads []*Upload
	err := r.db.WithContext(ctx).Where("lead_id = ?", leadID).Order("created_at ASC").Find(&uploads).Error
	return uploads, err
}

func (r *repository) DeleteByPath(ctx context.Context, path string) error {
	return r.db.WithContext(ctx).Where("path = ?", path).Delete(&Upload{}).Error
}
