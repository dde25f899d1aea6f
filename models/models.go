package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Transitions between
// statuses are owned exclusively by the order service.
type OrderStatus string

const (
	StatusPaymentPending        OrderStatus = "PAYMENT_PENDING"
	StatusPaymentConfirmed      OrderStatus = "PAYMENT_CONFIRMED"
	StatusFulfillmentInProgress OrderStatus = "FULFILLMENT_IN_PROGRESS"
	StatusFulfilled             OrderStatus = "FULFILLED"
	StatusPaymentFailed         OrderStatus = "PAYMENT_FAILED"
	StatusFulfillmentFailed     OrderStatus = "FULFILLMENT_FAILED"
)

// AllOrderStatuses enumerates every status. The repository relies on this
// to fan out status-partition queries instead of scanning the table.
var AllOrderStatuses = []OrderStatus{
	StatusPaymentPending,
	StatusPaymentConfirmed,
	StatusFulfillmentInProgress,
	StatusFulfilled,
	StatusPaymentFailed,
	StatusFulfillmentFailed,
}

// ParseOrderStatus validates a status string coming from the outside
// (path params, stored items).
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range AllOrderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// NotificationEventType identifies the lifecycle event carried by a
// published notification.
type NotificationEventType string

const (
	EventOrderCreated       NotificationEventType = "ORDER_CREATED"
	EventPaymentConfirmed   NotificationEventType = "PAYMENT_CONFIRMED"
	EventFulfillmentStarted NotificationEventType = "FULFILLMENT_STARTED"
	EventFulfilled          NotificationEventType = "FULFILLED"
	EventPaymentFailed      NotificationEventType = "PAYMENT_FAILED"
	// Single L is the wire constant the email notifier matches on.
	EventFulfillmentCancelled NotificationEventType = "FULFILLMENT_CANCELED"
)

const (
	PaymentStatusSuccess = "success"
	PaymentStatusFail    = "fail"
)

// Roles carried in JWT claims and user records.
const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// subtotalTolerance absorbs rounding drift in client-computed amounts.
var subtotalTolerance = decimal.NewFromFloat(0.01)

const maxItemQuantity = 1000

type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Validate checks the item math: positive bounded quantity, positive price
// and subtotal == quantity * unit_price within tolerance.
func (i OrderItem) Validate() error {
	if i.ProductID == "" || i.ProductName == "" {
		return fmt.Errorf("product_id and product_name are required")
	}
	if i.Quantity <= 0 || i.Quantity > maxItemQuantity {
		return fmt.Errorf("quantity must be between 1 and %d", maxItemQuantity)
	}
	if !i.UnitPrice.IsPositive() {
		return fmt.Errorf("unit_price must be positive")
	}
	expected := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
	if i.Subtotal.Sub(expected).Abs().GreaterThan(subtotalTolerance) {
		return fmt.Errorf("subtotal must equal quantity * unit_price")
	}
	return nil
}

type PaymentDetails struct {
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
	PaymentStatus string `json:"payment_status"`
	ProcessedAt   int64  `json:"processed_at"`
}

// StatusChange is one append-only audit record in an order's history.
type StatusChange struct {
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status"`
	ChangedAt  int64       `json:"changed_at"`
	ChangedBy  string      `json:"changed_by"`
}

type Order struct {
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	DeliveryAddress string          `json:"delivery_address"`
	Status          OrderStatus     `json:"status"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentDetails  *PaymentDetails `json:"payment_details,omitempty"`
	StatusHistory   []StatusChange  `json:"status_history"`
	CreatedAt       int64           `json:"created_at"`
	UpdatedAt       int64           `json:"updated_at"`
}

// Validate checks every item plus the order-level total invariant.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return fmt.Errorf("order must contain at least one item")
	}
	sum := decimal.Zero
	for idx, item := range o.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", idx, err)
		}
		sum = sum.Add(item.Subtotal)
	}
	if o.TotalAmount.Sub(sum).Abs().GreaterThan(subtotalTolerance) {
		return fmt.Errorf("total_amount must equal sum of item subtotals")
	}
	return nil
}

type User struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"-"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// NotificationEvent is the ephemeral envelope handed to the publisher.
// It is never persisted by this service.
type NotificationEvent struct {
	EventID    string                `json:"event_id"`
	EventType  NotificationEventType `json:"event_type"`
	OrderID    string                `json:"order_id"`
	UserID     string                `json:"user_id"`
	OccurredAt int64                 `json:"occurred_at"`
	Metadata   map[string]string     `json:"metadata,omitempty"`
}
