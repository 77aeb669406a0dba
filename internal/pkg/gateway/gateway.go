package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PaymentGateway abstracts the external payment provider. Every call accepts
// an idempotency key derived from the local entity id, so a retried call can
// never produce a duplicate side effect on the provider side.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntent, error)
	CreateSetupIntent(ctx context.Context, customerID, idempotencyKey string) (*SetupIntent, error)
	CreateRecurringPrice(ctx context.Context, in RecurringPriceInput) (string, error)
	CreateSubscription(ctx context.Context, in SubscriptionInput) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error
	CreateConnectAccount(ctx context.Context, email, idempotencyKey string) (*ConnectAccount, error)
	GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error)
	CreatePayout(ctx context.Context, in PayoutInput) (*Payout, error)
	GetPayout(ctx context.Context, accountID, payoutID string) (*Payout, error)
}

// PaymentIntentInput describes an immediate charge attempt.
type PaymentIntentInput struct {
	CustomerID     string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

// RecurringPriceInput describes a recurring price to register at the provider.
type RecurringPriceInput struct {
	ProductName    string
	AmountCents    int64
	Currency       string
	Interval       string
	IdempotencyKey string
}

// SubscriptionInput describes a recurring subscription to create.
type SubscriptionInput struct {
	CustomerID     string
	PriceID        string
	IdempotencyKey string
	Metadata       map[string]string
}

// PayoutInput describes a disbursement to a creator's Connect account.
type PayoutInput struct {
	AccountID      string
	AmountCents    int64
	Currency       string
	IdempotencyKey string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

type SetupIntent struct {
	ID           string
	ClientSecret string
}

type Subscription struct {
	ID               string
	Status           string
	CurrentPeriodEnd time.Time
	ClientSecret     string
}

type ConnectAccount struct {
	ID            string
	OnboardingURL string
}

type AccountStatus struct {
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

type Payout struct {
	ID             string
	Status         string
	FailureMessage string
}

// Error wraps a provider failure with a retry classification. Transient
// errors (timeouts, 5xx) may be retried with backoff; permanent errors
// (invalid destination, expired credential) must not be.
type Error struct {
	Op        string
	Code      string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s failed (%s): %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the error is worth retrying.
func IsTransient(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Transient
	}
	// Context timeouts on outbound calls are treated as transient.
	return errors.Is(err, context.DeadlineExceeded)
}
