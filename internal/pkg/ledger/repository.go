package ledger

import (
	"github.com/inkhub-io/inkhub/app/models"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateEntry(entry *models.EarningEntry) error {
	return r.db.Create(entry).Error
}

func (r *gormRepository) GetEntryBySource(sourceType, sourceID string) (*models.EarningEntry, error) {
	var entry models.EarningEntry
	err := r.db.Where("source_type = ? AND source_id = ?", sourceType, sourceID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *gormRepository) ListEntriesByCreator(creatorID uint) ([]models.EarningEntry, error) {
	var entries []models.EarningEntry
	err := r.db.Where("creator_id = ?", creatorID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *gormRepository) ListRecentEntriesByCreator(creatorID uint, limit int) ([]models.EarningEntry, error) {
	var entries []models.EarningEntry
	err := r.db.Where("creator_id = ?", creatorID).Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *gormRepository) ListPayoutsByCreator(creatorID uint) ([]models.PayoutRequest, error) {
	var payouts []models.PayoutRequest
	err := r.db.Where("creator_id = ?", creatorID).Find(&payouts).Error
	return payouts, err
}
