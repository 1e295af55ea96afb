package services

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
)

type CheckoutLineItem struct {
	Name        string
	AmountCents int64
	Currency    string
	Quantity    int64
}

type CreateCheckoutSessionInput struct {
	AccountID  string
	CustomerID string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string

	// One-time payments.
	LineItems            []CheckoutLineItem
	ApplicationFeeAmount int64

	// Subscriptions.
	Subscription          bool
	PriceID               string
	ApplicationFeePercent float64
}

type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	Metadata      map[string]string
}

// PaymentService is the payment-processor surface the checkout flow needs:
// customer provisioning and checkout sessions on a connected sub-account.
type PaymentService interface {
	CreateCustomer(ctx context.Context, accountID string, email string, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, input CreateCheckoutSessionInput) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, accountID string, sessionID string) (*CheckoutSession, error)
}

type StripePaymentService struct{}

func NewStripePaymentService(apiKey string) *StripePaymentService {
	stripe.Key = apiKey
	return &StripePaymentService{}
}

func (s *StripePaymentService) CreateCustomer(ctx context.Context, accountID string, email string, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx
	params.SetStripeAccount(accountID)

	created, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return created.ID, nil
}

func (s *StripePaymentService) CreateCheckoutSession(ctx context.Context, input CreateCheckoutSessionInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(input.CustomerID),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
	}
	params.Context = ctx
	params.SetStripeAccount(input.AccountID)
	for key, value := range input.Metadata {
		params.AddMetadata(key, value)
	}

	if input.Subscription {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.LineItems = []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(input.PriceID),
				Quantity: stripe.Int64(1),
			},
		}
		if input.ApplicationFeePercent > 0 {
			params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
				ApplicationFeePercent: stripe.Float64(input.ApplicationFeePercent),
			}
		}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.LineItems))
		for _, item := range input.LineItems {
			lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(item.Currency),
					UnitAmount: stripe.Int64(item.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.Name),
					},
				},
				Quantity: stripe.Int64(item.Quantity),
			})
		}
		params.LineItems = lineItems
		if input.ApplicationFeeAmount > 0 {
			params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
				ApplicationFeeAmount: stripe.Int64(input.ApplicationFeeAmount),
			}
		}
	}

	created, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return newCheckoutSession(created), nil
}

func (s *StripePaymentService) GetCheckoutSession(ctx context.Context, accountID string, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.SetStripeAccount(accountID)

	fetched, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return newCheckoutSession(fetched), nil
}

func newCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
}
