package repository

import (
	"github.com/inkhub-io/inkhub/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// payoutAccountRepository implements the PayoutAccountRepository interface
type payoutAccountRepository struct {
	db *gorm.DB
}

// NewPayoutAccountRepository creates a new payout account repository instance
func NewPayoutAccountRepository(db *gorm.DB) PayoutAccountRepository {
	return &payoutAccountRepository{db: db}
}

// GetByUserID retrieves the Connect account linkage for a user
func (r *payoutAccountRepository) GetByUserID(userID uint) (*models.PayoutAccount, error) {
	var account models.PayoutAccount
	err := r.db.Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Upsert creates or updates the Connect account linkage for a user
func (r *payoutAccountRepository) Upsert(account *models.PayoutAccount) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gateway_account_id",
			"onboarding_complete",
			"payouts_enabled",
			"updated_at",
		}),
	}).Create(account).Error; err != nil {
		return err
	}

	return r.db.Where("user_id = ?", account.UserID).First(account).Error
}
