package reconcile

import (
	"time"

	"github.com/inkhub-io/inkhub/app/models"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a reconcile repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetPayoutByUUID(uuid string) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	err := r.db.Where("uuid = ?", uuid).First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *gormRepository) GetPayoutByGatewayID(gatewayID string) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	err := r.db.Where("gateway_payout_id = ?", gatewayID).First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *gormRepository) UpdatePayout(p *models.PayoutRequest) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) ListPayoutsByCreator(creatorID uint) ([]models.PayoutRequest, error) {
	var list []models.PayoutRequest
	err := r.db.Where("creator_id = ?", creatorID).Find(&list).Error
	return list, err
}

func (r *gormRepository) GetSubscriptionByGatewayID(gatewayID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("gateway_subscription_id = ?", gatewayID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpdateSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) ListPayoutsInStatusOlderThan(status string, cutoff time.Time) ([]models.PayoutRequest, error) {
	var list []models.PayoutRequest
	err := r.db.Where("status = ? AND updated_at < ?", status, cutoff).Find(&list).Error
	return list, err
}

func (r *gormRepository) ListSubscriptionsInStatusOlderThan(status string, cutoff time.Time) ([]models.Subscription, error) {
	var list []models.Subscription
	err := r.db.Where("status = ? AND created_at < ?", status, cutoff).Find(&list).Error
	return list, err
}
