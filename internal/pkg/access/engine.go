package access

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inkhub-io/inkhub/app/models"
)

// Access outcomes, ordered from most to least privileged.
const (
	AccessFree         = "free"
	AccessAuthor       = "author"
	AccessSubscription = "subscription"
	AccessOneTime      = "one_time"
	AccessPreview      = "preview"
	AccessDenied       = "denied"
)

var ErrArticleNotFound = errors.New("access: article not found")

// Decision is the answer to one access check. It is computed on demand and
// never persisted; the underlying records are the only source of truth.
type Decision struct {
	ArticleID      uint       `json:"article_id"`
	Access         string     `json:"access"`
	PreviewPercent int        `json:"preview_percent,omitempty"`
	PaywallMessage string     `json:"paywall_message,omitempty"`
	PriceCents     *int64     `json:"price_cents,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// Granted reports whether the decision allows reading the full article.
func (d *Decision) Granted() bool {
	switch d.Access {
	case AccessFree, AccessAuthor, AccessSubscription, AccessOneTime:
		return true
	}
	return false
}

// Repository is the read-only persistence surface of the engine.
type Repository interface {
	GetArticleByID(id uint) (*models.Article, error)
	GetPricingByArticleID(articleID uint) (*models.ArticlePricing, error)
	GetSubscriptionByPair(subscriberID, creatorID uint) (*models.Subscription, error)
	GetCompletedPurchase(buyerID, articleID uint) (*models.PurchaseRecord, error)
}

// Engine decides whether a reader may see an article. Checks run in a fixed
// order and short-circuit on the first grant.
type Engine struct {
	repo Repository
	now  func() time.Time
}

func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo, now: time.Now}
}

// Decide evaluates access for userID (0 for anonymous readers) on the given
// article. The order is fixed: free article, authorship, entitling
// subscription, completed purchase, then preview or denial.
func (e *Engine) Decide(ctx context.Context, userID, articleID uint) (*Decision, error) {
	article, err := e.repo.GetArticleByID(articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	pricing, err := e.repo.GetPricingByArticleID(article.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		pricing = nil
	}
	if pricing == nil {
		return &Decision{ArticleID: article.ID, Access: AccessFree}, nil
	}
	if !pricing.SubscriptionRequired && !pricing.AllowsOneTimePurchase() {
		return &Decision{ArticleID: article.ID, Access: AccessFree}, nil
	}

	if userID != 0 && userID == article.AuthorID {
		return &Decision{ArticleID: article.ID, Access: AccessAuthor}, nil
	}

	if userID != 0 {
		sub, err := e.repo.GetSubscriptionByPair(userID, article.AuthorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if sub != nil && sub.GrantsPaidAccess(e.now()) {
			return &Decision{
				ArticleID: article.ID,
				Access:    AccessSubscription,
				ExpiresAt: sub.CurrentPeriodEnd,
			}, nil
		}

		// A completed purchase is permanently valid even if the author has
		// since removed the one-time price.
		purchase, err := e.repo.GetCompletedPurchase(userID, article.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if purchase != nil {
			return &Decision{ArticleID: article.ID, Access: AccessOneTime}, nil
		}
	}

	denied := &Decision{
		ArticleID:      article.ID,
		Access:         AccessDenied,
		PaywallMessage: pricing.PaywallMessage,
		PriceCents:     pricing.PriceCents,
	}
	if pricing.AllowsPreview() {
		denied.Access = AccessPreview
		denied.PreviewPercent = pricing.PreviewPercent
	}
	return denied, nil
}
