package models

import (
	"testing"
	"time"
)

func TestCanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		from   OrderStatus
		target OrderStatus
		want   bool
	}{
		{name: "pending to processing", from: StatusPending, target: StatusProcessing, want: true},
		{name: "pending to cancelled", from: StatusPending, target: StatusCancelled, want: true},
		{name: "pending cannot skip to shipped", from: StatusPending, target: StatusShipped, want: false},
		{name: "processing to shipped", from: StatusProcessing, target: StatusShipped, want: true},
		{name: "processing to cancelled", from: StatusProcessing, target: StatusCancelled, want: true},
		{name: "shipped to delivered", from: StatusShipped, target: StatusDelivered, want: true},
		{name: "shipped cannot be cancelled", from: StatusShipped, target: StatusCancelled, want: false},
		{name: "delivered is terminal", from: StatusDelivered, target: StatusRefunded, want: false},
		{name: "cancelled is terminal", from: StatusCancelled, target: StatusProcessing, want: false},
		{name: "refunded is terminal", from: StatusRefunded, target: StatusPending, want: false},
		{name: "processing can be refunded", from: StatusProcessing, target: StatusRefunded, want: true},
		{name: "unknown status has no transitions", from: OrderStatus("bogus"), target: StatusPending, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			o := &Order{Status: tc.from}
			if got := o.CanTransitionTo(tc.target); got != tc.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.target, got, tc.want)
			}
		})
	}
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	t.Parallel()

	o := &Order{Status: StatusPending}
	o.UpdateStatus(StatusProcessing, "payment received")
	o.UpdateStatus(StatusShipped, "handed to carrier")

	if len(o.StatusHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(o.StatusHistory))
	}
	if o.StatusHistory[0].Status != StatusProcessing || o.StatusHistory[1].Status != StatusShipped {
		t.Fatalf("history out of order: %+v", o.StatusHistory)
	}
	if o.StatusHistory[1].Note != "handed to carrier" {
		t.Fatalf("note = %q, want %q", o.StatusHistory[1].Note, "handed to carrier")
	}
	if o.Status != StatusShipped {
		t.Fatalf("status = %s, want %s", o.Status, StatusShipped)
	}
}

func TestUpdateStatusDeliveredSetsFlags(t *testing.T) {
	t.Parallel()

	o := &Order{Status: StatusShipped}
	before := time.Now().UTC()
	o.UpdateStatus(StatusDelivered, "left at door")

	if !o.IsDelivered {
		t.Fatal("IsDelivered not set after delivered transition")
	}
	if o.DeliveredAt.Before(before) {
		t.Fatalf("DeliveredAt = %v, want >= %v", o.DeliveredAt, before)
	}
}

func TestUpdateStatusNonDeliveredLeavesFlags(t *testing.T) {
	t.Parallel()

	for _, status := range []OrderStatus{StatusProcessing, StatusShipped, StatusCancelled, StatusRefunded} {
		o := &Order{Status: StatusPending}
		o.UpdateStatus(status, "")
		if o.IsDelivered || !o.DeliveredAt.IsZero() {
			t.Fatalf("transition to %s touched delivery flags", status)
		}
	}
}
