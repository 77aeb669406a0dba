package repository

import (
	"github.com/inkhub-io/inkhub/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pricingRepository implements the PricingRepository interface
type pricingRepository struct {
	db *gorm.DB
}

// NewPricingRepository creates a new pricing repository instance
func NewPricingRepository(db *gorm.DB) PricingRepository {
	return &pricingRepository{db: db}
}

// GetByArticleID retrieves the pricing row for an article
func (r *pricingRepository) GetByArticleID(articleID uint) (*models.ArticlePricing, error) {
	var pricing models.ArticlePricing
	err := r.db.Where("article_id = ?", articleID).First(&pricing).Error
	if err != nil {
		return nil, err
	}
	return &pricing, nil
}

// Upsert creates or replaces the pricing row for an article
func (r *pricingRepository) Upsert(pricing *models.ArticlePricing) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "article_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price_cents",
			"subscription_required",
			"preview_percent",
			"paywall_message",
			"updated_at",
		}),
	}).Create(pricing).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("article_id = ?", pricing.ArticleID).First(pricing).Error
}
