package access

import (
	"github.com/inkhub-io/inkhub/app/models"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an access repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetArticleByID(id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.First(&article, id).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *gormRepository) GetPricingByArticleID(articleID uint) (*models.ArticlePricing, error) {
	var pricing models.ArticlePricing
	err := r.db.Where("article_id = ?", articleID).First(&pricing).Error
	if err != nil {
		return nil, err
	}
	return &pricing, nil
}

func (r *gormRepository) GetSubscriptionByPair(subscriberID, creatorID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("subscriber_id = ? AND creator_id = ?", subscriberID, creatorID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetCompletedPurchase(buyerID, articleID uint) (*models.PurchaseRecord, error) {
	var purchase models.PurchaseRecord
	err := r.db.Where("buyer_id = ? AND article_id = ? AND status = ?", buyerID, articleID, models.PurchaseStatusCompleted).First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}
