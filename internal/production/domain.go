package production

import (
	"slices"
	"time"

	"github.com/bakeops/bakeops/internal/shared"
)

// Status is the lifecycle state of a production schedule.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:     {StatusPublished, StatusCancelled},
	StatusPublished: {StatusCompleted, StatusCancelled},
}

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanEdit reports whether items may still change.
func (s Status) CanEdit() bool {
	return s == StatusDraft
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// DateLayout is the wire and storage format of production dates.
const DateLayout = time.DateOnly

// Schedule is one location's bake plan for a single day.
type Schedule struct {
	ID             int64     `json:"id"`
	TenantID       int64     `json:"-"`
	LocationID     int64     `json:"location_id"`
	LocationName   string    `json:"location_name"`
	ProductionDate string    `json:"production_date"`
	Status         Status    `json:"status"`
	Notes          string    `json:"notes"`
	CreatedBy      *int64    `json:"created_by,omitempty"`
	ItemCount      int       `json:"item_count"`
	TotalQuantity  int       `json:"total_quantity"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Items          []Item    `json:"items,omitempty"`
}

// Item is a product line of a schedule.
type Item struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	ProductSKU  string `json:"product_sku"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	StartTime   string `json:"start_time,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// ItemInput is one requested schedule line.
type ItemInput struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0,lte=10000"`
	StartTime string `json:"start_time" validate:"omitempty,hhmm"`
	Notes     string `json:"notes" validate:"max=500"`
}

// CreateScheduleRequest creates a draft schedule.
type CreateScheduleRequest struct {
	LocationID     int64       `json:"location_id" validate:"required,gt=0"`
	ProductionDate string      `json:"production_date" validate:"required,datetime=2006-01-02"`
	Notes          string      `json:"notes" validate:"max=1000"`
	Items          []ItemInput `json:"items" validate:"required,min=1,max=200,unique=ProductID,dive"`
}

// ReplaceItemsRequest swaps every item of a draft schedule.
type ReplaceItemsRequest struct {
	Items []ItemInput `json:"items" validate:"required,min=1,max=200,unique=ProductID,dive"`
}

// TransitionRequest moves a schedule to another status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=published completed cancelled"`
}

// ListFilters narrows the schedule list. From and To are inclusive dates.
type ListFilters struct {
	shared.PageRequest
	LocationID *int64
	Status     Status
	From       string
	To         string
}
