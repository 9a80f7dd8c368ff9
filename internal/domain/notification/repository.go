package notification

import (
	"context"

	"gorm.io/gorm"
)

type DeliveryRepository interface {
	Create(ctx context.Context, d *Delivery) error
	ListByLead(ctx context.Context, leadID string) ([]Delivery, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, d *Delivery) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *deliveryRepository) ListByLead(ctx context.Context, leadID string) ([]Delivery, error) {
	var out []Delivery
	err := r.db.WithContext(ctx).Where("lead_id = ?", leadID).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}
