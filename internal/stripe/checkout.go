// Package stripe wraps Stripe checkout and webhook verification for order
// payment.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v84"
)

// ErrNothingToCharge rejects a checkout whose discounted total is not a
// positive amount; Stripe refuses zero-amount line items.
var ErrNothingToCharge = errors.New("order total is zero, nothing to charge")

// Client handles Stripe checkout operations.
type Client struct {
	client *stripeapi.Client
}

// NewClient creates a Stripe client from the platform secret key.
func NewClient(secretKey string) *Client {
	return &Client{client: stripeapi.NewClient(secretKey)}
}

// LineItem is a single priced line on a checkout session. Amounts are in
// dollars; conversion to cents happens here.
type LineItem struct {
	Name      string
	UnitPrice float64
	Quantity  int
}

// CheckoutSessionParams holds parameters for creating a checkout session.
type CheckoutSessionParams struct {
	OrderID       uuid.UUID
	OrderNumber   string
	Items         []LineItem
	ShippingPrice float64
	TaxPrice      float64
	Discount      float64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CreateCheckoutSession creates a checkout session for an order. Line items
// carry the prices snapshotted at order creation; when a coupon discount
// applies, the order is collapsed into a single line so the charged amount
// matches the order total exactly.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*stripeapi.CheckoutSession, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if len(params.Items) == 0 {
		return nil, fmt.Errorf("at least one line item is required")
	}

	lineItems, err := buildLineItems(params)
	if err != nil {
		return nil, err
	}

	sessionParams := &stripeapi.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL:         stripeapi.String(params.SuccessURL),
		CancelURL:          stripeapi.String(params.CancelURL),
		LineItems:          lineItems,
		ShippingOptions: []*stripeapi.CheckoutSessionCreateShippingOptionParams{
			{
				ShippingRateData: &stripeapi.CheckoutSessionCreateShippingOptionShippingRateDataParams{
					DisplayName: stripeapi.String("Shipping"),
					Type:        stripeapi.String(string(stripeapi.ShippingRateTypeFixedAmount)),
					FixedAmount: &stripeapi.CheckoutSessionCreateShippingOptionShippingRateDataFixedAmountParams{
						Amount:   stripeapi.Int64(dollarsToCents(params.ShippingPrice)),
						Currency: stripeapi.String("usd"),
					},
				},
			},
		},
		Metadata: map[string]string{
			"order_id":     params.OrderID.String(),
			"order_number": params.OrderNumber,
		},
	}
	if params.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripeapi.String(params.CustomerEmail)
	}

	sess, err := c.client.V1CheckoutSessions.Create(ctx, sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess, nil
}

// buildLineItems translates an order into Stripe line items. Discounted
// orders collapse to a single line because Stripe rejects negative amounts;
// a collapse that leaves nothing to charge is ErrNothingToCharge.
func buildLineItems(params CheckoutSessionParams) ([]*stripeapi.CheckoutSessionCreateLineItemParams, error) {
	if params.Discount > 0 {
		var total float64
		for _, item := range params.Items {
			total += item.UnitPrice * float64(item.Quantity)
		}
		total += params.TaxPrice - params.Discount
		if dollarsToCents(total) <= 0 {
			return nil, ErrNothingToCharge
		}
		return []*stripeapi.CheckoutSessionCreateLineItemParams{
			checkoutLine(fmt.Sprintf("Order %s", params.OrderNumber), total, 1),
		}, nil
	}

	var lineItems []*stripeapi.CheckoutSessionCreateLineItemParams
	for _, item := range params.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		lineItems = append(lineItems, checkoutLine(item.Name, item.UnitPrice, qty))
	}
	if params.TaxPrice > 0 {
		lineItems = append(lineItems, checkoutLine("Sales tax", params.TaxPrice, 1))
	}
	return lineItems, nil
}

func checkoutLine(name string, unitPrice float64, quantity int) *stripeapi.CheckoutSessionCreateLineItemParams {
	return &stripeapi.CheckoutSessionCreateLineItemParams{
		PriceData: &stripeapi.CheckoutSessionCreateLineItemPriceDataParams{
			Currency: stripeapi.String("usd"),
			ProductData: &stripeapi.CheckoutSessionCreateLineItemPriceDataProductDataParams{
				Name: stripeapi.String(name),
			},
			UnitAmount: stripeapi.Int64(dollarsToCents(unitPrice)),
		},
		Quantity: stripeapi.Int64(int64(quantity)),
	}
}

func dollarsToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}
