package repository

import (
	"github.com/inkhub-io/inkhub/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	Update(user *models.User) error
}

// ArticleRepository defines read access to articles owned by the content system
type ArticleRepository interface {
	GetByID(id uint) (*models.Article, error)
}

// PlanRepository defines the interface for subscription plan operations
type PlanRepository interface {
	Create(plan *models.SubscriptionPlan) error
	GetByID(id uint) (*models.SubscriptionPlan, error)
	ListByCreator(creatorID uint) ([]models.SubscriptionPlan, error)
	Update(plan *models.SubscriptionPlan) error
}

// PricingRepository defines the interface for article pricing operations
type PricingRepository interface {
	GetByArticleID(articleID uint) (*models.ArticlePricing, error)
	Upsert(pricing *models.ArticlePricing) error
}

// PayoutAccountRepository defines the interface for gateway Connect account linkage
type PayoutAccountRepository interface {
	GetByUserID(userID uint) (*models.PayoutAccount, error)
	Upsert(account *models.PayoutAccount) error
}

// Repositories holds all repository instances
type Repositories struct {
	User          UserRepository
	Article       ArticleRepository
	Plan          PlanRepository
	Pricing       PricingRepository
	PayoutAccount PayoutAccountRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Article:       NewArticleRepository(db),
		Plan:          NewPlanRepository(db),
		Pricing:       NewPricingRepository(db),
		PayoutAccount: NewPayoutAccountRepository(db),
	}
}
