package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		input string
		want  OrderStatus
		ok    bool
	}{
		{"pending", OrderStatusPending, true},
		{"Accepted", OrderStatusAccepted, true},
		{"IN_TRANSIT", OrderStatusInTransit, true},
		{"InTransit", OrderStatusInTransit, true},
		{" cleared ", OrderStatusCleared, true},
		{"delivered", OrderStatusDelivered, true},
		{"cancelled", OrderStatusCancelled, true},
		{"teleported", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseOrderStatus(tt.input)
		require.Equal(t, tt.ok, ok, "input %q", tt.input)
		require.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestTransitionPolicyStrict(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusAccepted},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusAccepted, OrderStatusInTransit},
		{OrderStatusAccepted, OrderStatusCancelled},
		{OrderStatusInTransit, OrderStatusCleared},
		{OrderStatusInTransit, OrderStatusCancelled},
		{OrderStatusCleared, OrderStatusDelivered},
	}

	for _, tt := range allowed {
		require.True(t, TransitionPolicyStrict.Allows(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to OrderStatus }{
		{OrderStatusPending, OrderStatusInTransit},
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusAccepted, OrderStatusDelivered},
		{OrderStatusCleared, OrderStatusCancelled},
		{OrderStatusDelivered, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusAccepted},
	}

	for _, tt := range denied {
		require.False(t, TransitionPolicyStrict.Allows(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestTransitionPolicy_SameStatusAlwaysAllowed(t *testing.T) {
	statuses := []OrderStatus{
		OrderStatusPending,
		OrderStatusAccepted,
		OrderStatusInTransit,
		OrderStatusCleared,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}

	for _, status := range statuses {
		require.True(t, TransitionPolicyStrict.Allows(status, status))
	}
}

func TestTransitionPolicyAnyToAny(t *testing.T) {
	require.True(t, TransitionPolicyAnyToAny.Allows(OrderStatusDelivered, OrderStatusPending))
	require.True(t, TransitionPolicyAnyToAny.Allows(OrderStatusCancelled, OrderStatusInTransit))
}

func TestOrderStatusHuman(t *testing.T) {
	require.Equal(t, "In Transit", OrderStatusInTransit.Human())
	require.Equal(t, "Delivered", OrderStatusDelivered.Human())
}

func TestOrderStatusIsActive(t *testing.T) {
	require.True(t, OrderStatusPending.IsActive())
	require.True(t, OrderStatusCleared.IsActive())
	require.False(t, OrderStatusDelivered.IsActive())
	require.False(t, OrderStatusCancelled.IsActive())
}
