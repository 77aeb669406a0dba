package payments

import (
	"time"

	"github.com/inkhub-io/inkhub/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkhub-io/inkhub/internal/pkg/ledger"
)

type gormRepository struct {
	ledger.Repository
	db *gorm.DB
}

// NewRepository creates a payment event repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Repository: ledger.NewRepository(db), db: db}
}

func (r *gormRepository) CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_event_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, nil, result.Error
	}
	if result.RowsAffected > 0 {
		return true, event, nil
	}

	var existing models.WebhookEvent
	if err := r.db.Where("external_event_id = ?", event.ExternalEventID).First(&existing).Error; err != nil {
		return false, nil, err
	}
	return false, &existing, nil
}

func (r *gormRepository) MarkEventProcessed(eventID uint, processingError string) error {
	now := time.Now()
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", eventID).Updates(map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}).Error
}

func (r *gormRepository) GetPurchaseByGatewayIntentID(intentID string) (*models.PurchaseRecord, error) {
	var purchase models.PurchaseRecord
	err := r.db.Where("gateway_payment_intent_id = ?", intentID).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *gormRepository) UpdatePurchase(purchase *models.PurchaseRecord) error {
	return r.db.Save(purchase).Error
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

func (r *gormRepository) InTransaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
