package orders

import "github.com/bazaarly/storefront-backend/pkg/enums"

// allowedTransitions is the order lifecycle. Terminal states (completed,
// rejected) have no outgoing edges, which also prevents releasing the same
// order's stock twice.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusInTransit, enums.OrderStatusRejected},
	enums.OrderStatusConfirmed: {enums.OrderStatusInTransit, enums.OrderStatusCompleted, enums.OrderStatusRejected},
	enums.OrderStatusInTransit: {enums.OrderStatusCompleted, enums.OrderStatusRejected},
}

func canTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
