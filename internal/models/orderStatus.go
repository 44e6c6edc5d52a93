package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusCleared   OrderStatus = "cleared"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ActiveOrderStatuses are the statuses of orders that still need attention.
// Delivered and cancelled orders are considered closed.
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusInTransit,
	OrderStatusCleared,
}

// orderTransitions is the allowed transition table. Re-entering the
// current status is always permitted and treated as a no-op, so the
// table only lists moves to a different status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:  {OrderStatusInTransit, OrderStatusCancelled},
	OrderStatusInTransit: {OrderStatusCleared, OrderStatusCancelled},
	OrderStatusCleared:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// TransitionPolicy decides which status moves the lifecycle accepts.
type TransitionPolicy int

const (
	// TransitionPolicyStrict enforces the orderTransitions table.
	TransitionPolicyStrict TransitionPolicy = iota

	// TransitionPolicyAnyToAny accepts every move between valid statuses.
	// Kept for product sign-off on legacy behaviour, not used by default.
	TransitionPolicyAnyToAny
)

func (p TransitionPolicy) Allows(from, to OrderStatus) bool {
	if from == to {
		return true
	}

	if p == TransitionPolicyAnyToAny {
		return true
	}

	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// ParseOrderStatus maps a client-supplied status name onto one of the
// six statuses. Matching is case-insensitive and tolerates both
// "InTransit" and "in_transit" spellings.
func ParseOrderStatus(name string) (OrderStatus, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	switch normalized {
	case "pending":
		return OrderStatusPending, true
	case "accepted":
		return OrderStatusAccepted, true
	case "intransit", "in_transit":
		return OrderStatusInTransit, true
	case "cleared":
		return OrderStatusCleared, true
	case "delivered":
		return OrderStatusDelivered, true
	case "cancelled":
		return OrderStatusCancelled, true
	}

	return "", false
}

func (s OrderStatus) Valid() bool {
	_, ok := ParseOrderStatus(string(s))
	return ok
}

// Human renders the status for user-facing copy, e.g. "in_transit"
// becomes "In Transit".
func (s OrderStatus) Human() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "_", " "))
}

func (s OrderStatus) IsActive() bool {
	for _, active := range ActiveOrderStatuses {
		if s == active {
			return true
		}
	}
	return false
}
