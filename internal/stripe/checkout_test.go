package stripe

import (
	"errors"
	"testing"
)

func TestBuildLineItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		params      CheckoutSessionParams
		wantErr     error
		wantLines   int
		wantCents   int64
		wantLineQty int64
	}{
		{
			name: "itemized lines with tax",
			params: CheckoutSessionParams{
				Items: []LineItem{
					{Name: "Forge Tee / M / Black", UnitPrice: 24.99, Quantity: 2},
					{Name: "Forge Hoodie", UnitPrice: 49.99, Quantity: 1},
				},
				TaxPrice: 7.50,
			},
			wantLines:   3,
			wantCents:   2499,
			wantLineQty: 2,
		},
		{
			name: "discount collapses to a single line",
			params: CheckoutSessionParams{
				OrderNumber: "TF-20260830-000001",
				Items: []LineItem{
					{Name: "Forge Tee", UnitPrice: 24.99, Quantity: 2},
				},
				TaxPrice: 3.37,
				Discount: 10,
			},
			wantLines:   1,
			wantCents:   4335, // 49.98 + 3.37 - 10.00
			wantLineQty: 1,
		},
		{
			name: "fully discounted order has nothing to charge",
			params: CheckoutSessionParams{
				OrderNumber: "TF-20260830-000002",
				Items: []LineItem{
					{Name: "Forge Tee", UnitPrice: 30, Quantity: 1},
				},
				Discount: 30,
			},
			wantErr: ErrNothingToCharge,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			lines, err := buildLineItems(tc.params)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("buildLineItems() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildLineItems() error = %v", err)
			}
			if len(lines) != tc.wantLines {
				t.Fatalf("got %d lines, want %d", len(lines), tc.wantLines)
			}
			first := lines[0]
			if got := *first.PriceData.UnitAmount; got != tc.wantCents {
				t.Fatalf("first line amount = %d cents, want %d", got, tc.wantCents)
			}
			if got := *first.Quantity; got != tc.wantLineQty {
				t.Fatalf("first line quantity = %d, want %d", got, tc.wantLineQty)
			}
		})
	}
}
