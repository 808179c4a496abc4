package enums

import "fmt"

// OrderStatus tracks the lifecycle of a customer order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusRejected  OrderStatus = "rejected"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusInTransit,
	OrderStatusCompleted,
	OrderStatusRejected,
}

// Legacy admin clients still send these; they map onto the canonical set.
var orderStatusAliases = map[string]OrderStatus{
	"delivered": OrderStatusCompleted,
	"cancelled": OrderStatusRejected,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusCompleted || o == OrderStatusRejected
}

// ParseOrderStatus converts raw input into an OrderStatus, normalizing
// deprecated aliases onto the canonical five-state set.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	if canonical, ok := orderStatusAliases[value]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
