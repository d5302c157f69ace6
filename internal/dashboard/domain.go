package dashboard

import "time"

// Stats feeds the dashboard stat cards.
type Stats struct {
	Date              string    `json:"date"`
	Currency          string    `json:"currency"`
	ActiveLocations   int       `json:"active_locations"`
	TeamMembers       int       `json:"team_members"`
	ActiveSuppliers   int       `json:"active_suppliers"`
	TodaysBatches     int       `json:"todays_batches"`
	OpenOrders        int       `json:"open_orders"`
	RevenueTodayCents int64     `json:"revenue_today_cents"`
	GeneratedAt       time.Time `json:"generated_at"`
}
