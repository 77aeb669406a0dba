package payouts

import (
	"time"

	"github.com/inkhub-io/inkhub/app/models"
	"github.com/inkhub-io/inkhub/internal/pkg/ledger"
	"gorm.io/gorm"
)

type gormRepository struct {
	ledger.Repository
	db *gorm.DB
}

// NewRepository creates a payout repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{Repository: ledger.NewRepository(db), db: db}
}

func (r *gormRepository) CreatePayout(p *models.PayoutRequest) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) GetPayoutByID(id uint) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	err := r.db.First(&payout, id).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
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

func (r *gormRepository) ListPayoutsInStatusOlderThan(status string, cutoff time.Time) ([]models.PayoutRequest, error) {
	var payouts []models.PayoutRequest
	err := r.db.Where("status = ? AND updated_at < ?", status, cutoff).Find(&payouts).Error
	return payouts, err
}
