package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks where a pickup order is in the shop's workflow.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusReady     OrderStatus = "Ready"
	OrderStatusDelivered OrderStatus = "Delivered"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusReady,
	OrderStatusDelivered,
}

// Documents written by the original storefront and the admin panel use Spanish labels.
var legacyOrderStatuses = map[string]OrderStatus{
	"pendiente": OrderStatusPending,
	"preparado": OrderStatusReady,
	"listo":     OrderStatusReady,
	"entregado": OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Legacy returns the Spanish label used by documents shared with the admin panel.
func (s OrderStatus) Legacy() string {
	switch s {
	case OrderStatusPending:
		return "Pendiente"
	case OrderStatusReady:
		return "Preparado"
	case OrderStatusDelivered:
		return "Entregado"
	}
	return string(s)
}

// ParseOrderStatus converts raw input into an OrderStatus. Matching is case-insensitive
// and accepts the legacy Spanish labels.
func ParseOrderStatus(value string) (OrderStatus, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validOrderStatuses {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	if status, ok := legacyOrderStatuses[strings.ToLower(trimmed)]; ok {
		return status, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// IsAllOrderStatuses reports whether a filter value means "no status filter".
func IsAllOrderStatuses(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all", "todos":
		return true
	}
	return false
}
