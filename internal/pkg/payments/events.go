package payments

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event types delivered by the payment gateway.
const (
	EventChargeSucceeded     = "charge.succeeded"
	EventChargeFailed        = "charge.failed"
	EventChargeRefunded      = "charge.refunded"
	EventSubscriptionUpdated = "subscription.updated"
	EventSubscriptionDeleted = "subscription.deleted"
	EventPayoutPaid          = "payout.paid"
	EventPayoutFailed        = "payout.failed"
)

// Charge purposes set via payment intent metadata when the intent is created.
const (
	PurposePurchase     = "purchase"
	PurposeSubscription = "subscription"
	PurposeTip          = "tip"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

// Envelope is the outer structure of every webhook delivery.
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// ChargeData carries the payload of charge.* events.
type ChargeData struct {
	ChargeID        string `json:"charge_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	SubscriptionID  string `json:"subscription_id"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	Purpose         string `json:"purpose"`
	CreatorID       uint   `json:"creator_id"`
	PayerID         uint   `json:"payer_id"`
	FailureCode     string `json:"failure_code"`
}

// RefundData carries the payload of charge.refunded events.
type RefundData struct {
	RefundID        string `json:"refund_id"`
	ChargeID        string `json:"charge_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// SubscriptionData carries the payload of subscription.* events.
type SubscriptionData struct {
	SubscriptionID    string `json:"subscription_id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
}

// PayoutData carries the payload of payout.* events.
type PayoutData struct {
	PayoutID       string `json:"payout_id"`
	IdempotencyKey string `json:"idempotency_key"`
	AmountCents    int64  `json:"amount_cents"`
	FailureCode    string `json:"failure_code"`
}

// Event is one of the typed event variants below.
type Event interface {
	eventType() string
}

type ChargeSucceeded struct{ ChargeData }
type ChargeFailed struct{ ChargeData }
type ChargeRefunded struct{ RefundData }
type SubscriptionUpdated struct{ SubscriptionData }
type SubscriptionDeleted struct{ SubscriptionData }
type PayoutPaid struct{ PayoutData }
type PayoutFailed struct{ PayoutData }

func (ChargeSucceeded) eventType() string     { return EventChargeSucceeded }
func (ChargeFailed) eventType() string        { return EventChargeFailed }
func (ChargeRefunded) eventType() string      { return EventChargeRefunded }
func (SubscriptionUpdated) eventType() string { return EventSubscriptionUpdated }
func (SubscriptionDeleted) eventType() string { return EventSubscriptionDeleted }
func (PayoutPaid) eventType() string          { return EventPayoutPaid }
func (PayoutFailed) eventType() string        { return EventPayoutFailed }

// ParseEvent decodes the envelope data into the typed variant for the
// event type. An unrecognized type returns (nil, nil) so the caller can
// acknowledge without dispatching.
func ParseEvent(env *Envelope) (Event, error) {
	switch env.EventType {
	case EventChargeSucceeded:
		var d ChargeData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
		}
		return ChargeSucceeded{d}, nil
	case EventChargeFailed:
		var d ChargeData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
		}
		return ChargeFailed{d}, nil
	case EventChargeRefunded:
		var d RefundData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
		}
		return ChargeRefunded{d}, nil
	case EventSubscriptionUpdated:
		var d SubscriptionData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
		}
		return SubscriptionUpdated{d}, nil
	case EventSubscriptionDeleted:
		var d SubscriptionData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
		}
		return SubscriptionDeleted{d}, nil
	case EventPayoutPaid:
		var d PayoutData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
		}
		return PayoutPaid{d}, nil
	case EventPayoutFailed:
		var d PayoutData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedEvent, err)
		}
		return PayoutFailed{d}, nil
	default:
		return nil, nil
	}
}
