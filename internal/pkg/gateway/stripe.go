package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/account"
	"github.com/stripe/stripe-go/v78/accountlink"
	"github.com/stripe/stripe-go/v78/customer"
	"github.com/stripe/stripe-go/v78/paymentintent"
	"github.com/stripe/stripe-go/v78/payout"
	"github.com/stripe/stripe-go/v78/price"
	"github.com/stripe/stripe-go/v78/setupintent"
	sub "github.com/stripe/stripe-go/v78/subscription"

	"github.com/inkhub-io/inkhub/internal/pkg/env"
)

// StripeGateway implements PaymentGateway against the Stripe API.
type StripeGateway struct {
	returnURL string
}

// NewStripeGatewayFromEnv configures the Stripe client from environment.
func NewStripeGatewayFromEnv() *StripeGateway {
	stripe.Key = env.GetEnv("STRIPE_SECRET_KEY", "")
	return &StripeGateway{
		returnURL: env.GetEnv("CONNECT_RETURN_URL", "https://inkhub.io/settings/payouts"),
	}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	_ = ctx
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", wrapStripeErr("create_customer", err)
	}
	return cust.ID, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntent, error) {
	_ = ctx
	params := &stripe.PaymentIntentParams{
		Customer: stripe.String(in.CustomerID),
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(in.Currency),
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(in.IdempotencyKey)

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, wrapStripeErr("create_payment_intent", err)
	}
	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

func (g *StripeGateway) CreateSetupIntent(ctx context.Context, customerID, idempotencyKey string) (*SetupIntent, error) {
	_ = ctx
	params := &stripe.SetupIntentParams{
		Customer: stripe.String(customerID),
	}
	params.SetIdempotencyKey(idempotencyKey)

	intent, err := setupintent.New(params)
	if err != nil {
		return nil, wrapStripeErr("create_setup_intent", err)
	}
	return &SetupIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (g *StripeGateway) CreateRecurringPrice(ctx context.Context, in RecurringPriceInput) (string, error) {
	_ = ctx
	interval := in.Interval
	if interval == "" {
		interval = "month"
	}
	params := &stripe.PriceParams{
		Currency:   stripe.String(in.Currency),
		UnitAmount: stripe.Int64(in.AmountCents),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(interval),
		},
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(in.ProductName),
		},
	}
	params.SetIdempotencyKey(in.IdempotencyKey)

	created, err := price.New(params)
	if err != nil {
		return "", wrapStripeErr("create_recurring_price", err)
	}
	return created.ID, nil
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, in SubscriptionInput) (*Subscription, error) {
	_ = ctx
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(in.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(in.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(in.IdempotencyKey)
	params.AddExpand("latest_invoice.payment_intent")

	created, err := sub.New(params)
	if err != nil {
		return nil, wrapStripeErr("create_subscription", err)
	}

	result := &Subscription{
		ID:               created.ID,
		Status:           string(created.Status),
		CurrentPeriodEnd: time.Unix(created.CurrentPeriodEnd, 0),
	}
	if created.LatestInvoice != nil && created.LatestInvoice.PaymentIntent != nil {
		result.ClientSecret = created.LatestInvoice.PaymentIntent.ClientSecret
	}
	return result, nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error {
	_ = ctx
	if atPeriodEnd {
		_, err := sub.Update(subscriptionID, &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		})
		if err != nil {
			return wrapStripeErr("cancel_subscription", err)
		}
		return nil
	}
	_, err := sub.Cancel(subscriptionID, &stripe.SubscriptionCancelParams{})
	if err != nil {
		return wrapStripeErr("cancel_subscription", err)
	}
	return nil
}

func (g *StripeGateway) CreateConnectAccount(ctx context.Context, email, idempotencyKey string) (*ConnectAccount, error) {
	_ = ctx
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
	}
	params.SetIdempotencyKey(idempotencyKey)

	acct, err := account.New(params)
	if err != nil {
		return nil, wrapStripeErr("create_connect_account", err)
	}

	link, err := accountlink.New(&stripe.AccountLinkParams{
		Account:    stripe.String(acct.ID),
		RefreshURL: stripe.String(g.returnURL),
		ReturnURL:  stripe.String(g.returnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return nil, wrapStripeErr("create_account_link", err)
	}

	return &ConnectAccount{ID: acct.ID, OnboardingURL: link.URL}, nil
}

func (g *StripeGateway) GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	_ = ctx
	acct, err := account.GetByID(accountID, nil)
	if err != nil {
		return nil, wrapStripeErr("get_account_status", err)
	}
	return &AccountStatus{
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}, nil
}

func (g *StripeGateway) CreatePayout(ctx context.Context, in PayoutInput) (*Payout, error) {
	_ = ctx
	params := &stripe.PayoutParams{
		Amount:   stripe.Int64(in.AmountCents),
		Currency: stripe.String(in.Currency),
	}
	params.StripeAccount = stripe.String(in.AccountID)
	params.SetIdempotencyKey(in.IdempotencyKey)

	created, err := payout.New(params)
	if err != nil {
		return nil, wrapStripeErr("create_payout", err)
	}
	return &Payout{
		ID:             created.ID,
		Status:         string(created.Status),
		FailureMessage: created.FailureMessage,
	}, nil
}

func (g *StripeGateway) GetPayout(ctx context.Context, accountID, payoutID string) (*Payout, error) {
	_ = ctx
	params := &stripe.PayoutParams{}
	params.StripeAccount = stripe.String(accountID)

	got, err := payout.Get(payoutID, params)
	if err != nil {
		return nil, wrapStripeErr("get_payout", err)
	}
	return &Payout{
		ID:             got.ID,
		Status:         string(got.Status),
		FailureMessage: got.FailureMessage,
	}, nil
}

// wrapStripeErr classifies a Stripe failure for the retry policy. 5xx and
// connection-level failures are transient; card and invalid-request errors
// are permanent.
func wrapStripeErr(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		transient := stripeErr.HTTPStatusCode >= 500 || stripeErr.Type == stripe.ErrorTypeAPI
		return &Error{Op: op, Code: string(stripeErr.Code), Transient: transient, Err: err}
	}
	// No structured error means we never got a response; treat as transient.
	return &Error{Op: op, Code: "network", Transient: true, Err: err}
}
