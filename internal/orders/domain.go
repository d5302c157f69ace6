package orders

import (
	"slices"
	"time"

	"github.com/bakeops/bakeops/internal/shared"
)

// Status is the lifecycle state of a customer order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReady     Status = "ready"
	StatusCollected Status = "collected"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCollected},
}

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusReady, StatusCollected, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the order still awaits pickup.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusReady
}

// predecessors lists the states from which next is reachable.
func predecessors(next Status) []Status {
	var out []Status
	for from, tos := range transitions {
		if slices.Contains(tos, next) {
			out = append(out, from)
		}
	}
	slices.Sort(out)
	return out
}

// Order is a storefront pickup order.
type Order struct {
	ID                 int64     `json:"id"`
	TenantID           int64     `json:"-"`
	Reference          string    `json:"reference"`
	CustomerName       string    `json:"customer_name"`
	CustomerEmail      string    `json:"customer_email"`
	CustomerPhone      string    `json:"customer_phone,omitempty"`
	PickupLocationID   int64     `json:"pickup_location_id"`
	PickupLocationName string    `json:"pickup_location_name"`
	PickupDate         string    `json:"pickup_date"`
	Status             Status    `json:"status"`
	TotalCents         int64     `json:"total_cents"`
	Currency           string    `json:"currency"`
	Notes              string    `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Lines              []Line    `json:"lines,omitempty"`
}

// Line is a product line with prices captured at order time.
type Line struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// Shop identifies the tenant an anonymous order is placed with.
type Shop struct {
	TenantID int64
	Name     string
	Currency string
}

// LineInput is one requested order line.
type LineInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=500"`
}

// PlaceOrderRequest is submitted by storefront customers.
type PlaceOrderRequest struct {
	CustomerName     string      `json:"customer_name" validate:"required,max=120"`
	CustomerEmail    string      `json:"customer_email" validate:"required,email,max=254"`
	CustomerPhone    string      `json:"customer_phone" validate:"max=40"`
	PickupLocationID int64       `json:"pickup_location_id" validate:"required,gt=0"`
	PickupDate       string      `json:"pickup_date" validate:"required,datetime=2006-01-02"`
	Notes            string      `json:"notes" validate:"max=1000"`
	Lines            []LineInput `json:"lines" validate:"required,min=1,max=50,unique=ProductID,dive"`
}

// TransitionRequest moves an order to another status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed ready collected cancelled"`
}

// ListFilters narrows the admin order list.
type ListFilters struct {
	shared.PageRequest
	Status     Status
	PickupDate string
	LocationID *int64
}
