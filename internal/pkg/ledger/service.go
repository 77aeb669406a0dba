package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/inkhub-io/inkhub/app/models"
	"gorm.io/gorm"
)

// HoldWindow is the delay after which an earning becomes eligible for payout.
const HoldWindow = 30 * 24 * time.Hour

var (
	// ErrDuplicateSource is returned when an earning for the same
	// (source_type, source_id) pair already exists.
	ErrDuplicateSource = errors.New("ledger: duplicate earning source")
	// ErrInvalidAmount is returned for a zero gross amount.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrInvalidCurrency is returned for a malformed currency code.
	ErrInvalidCurrency = errors.New("ledger: invalid currency")
)

// Repository provides DB operations used by the ledger service.
type Repository interface {
	CreateEntry(entry *models.EarningEntry) error
	GetEntryBySource(sourceType, sourceID string) (*models.EarningEntry, error)
	ListEntriesByCreator(creatorID uint) ([]models.EarningEntry, error)
	ListRecentEntriesByCreator(creatorID uint, limit int) ([]models.EarningEntry, error)
	ListPayoutsByCreator(creatorID uint) ([]models.PayoutRequest, error)
}

// Service is the append-only revenue ledger. Earnings are written once and
// never mutated; balances are always derived from the stored entries.
type Service struct {
	repo Repository
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordEarning appends one earning entry with the computed fee split.
// A replayed (sourceType, sourceID) pair fails with ErrDuplicateSource even
// if the webhook-level dedup was bypassed.
func (s *Service) RecordEarning(ctx context.Context, creatorID uint, sourceType, sourceID string, gross int64, currency string) (*models.EarningEntry, error) {
	_ = ctx
	if creatorID == 0 || strings.TrimSpace(sourceID) == "" {
		return nil, errors.New("ledger: creator_id and source_id are required")
	}
	// Corrections go through RecordOffset; the earning path takes only
	// positive amounts.
	if gross <= 0 {
		return nil, ErrInvalidAmount
	}
	cur := strings.ToLower(strings.TrimSpace(currency))
	if len(cur) != 3 {
		return nil, ErrInvalidCurrency
	}
	switch sourceType {
	case models.EarningSourceSubscription, models.EarningSourcePurchase, models.EarningSourceTip:
	default:
		return nil, errors.New("ledger: unknown source type")
	}

	if existing, err := s.repo.GetEntryBySource(sourceType, sourceID); err == nil && existing != nil {
		return existing, ErrDuplicateSource
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	platformFee, processingFee, net := SplitFees(gross)
	entry := &models.EarningEntry{
		CreatorID:          creatorID,
		SourceType:         sourceType,
		SourceID:           sourceID,
		GrossCents:         gross,
		PlatformFeeCents:   platformFee,
		ProcessingFeeCents: processingFee,
		NetCents:           net,
		Currency:           cur,
	}
	if err := s.repo.CreateEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordOffset appends a negative entry mirroring a prior earning, used for
// refunds and corrections. The original row is never touched.
func (s *Service) RecordOffset(ctx context.Context, original *models.EarningEntry, sourceID string) (*models.EarningEntry, error) {
	_ = ctx
	if original == nil || strings.TrimSpace(sourceID) == "" {
		return nil, errors.New("ledger: original entry and source_id are required")
	}

	if existing, err := s.repo.GetEntryBySource(original.SourceType, sourceID); err == nil && existing != nil {
		return existing, ErrDuplicateSource
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entry := &models.EarningEntry{
		CreatorID:          original.CreatorID,
		SourceType:         original.SourceType,
		SourceID:           sourceID,
		GrossCents:         -original.GrossCents,
		PlatformFeeCents:   -original.PlatformFeeCents,
		ProcessingFeeCents: -original.ProcessingFeeCents,
		NetCents:           -original.NetCents,
		Currency:           original.Currency,
	}
	if err := s.repo.CreateEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// RecentEntries returns the newest ledger rows for a creator dashboard.
func (s *Service) RecentEntries(ctx context.Context, creatorID uint, limit int) ([]models.EarningEntry, error) {
	_ = ctx
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListRecentEntriesByCreator(creatorID, limit)
}
