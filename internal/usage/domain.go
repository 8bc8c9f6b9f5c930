package usage

import "time"

// ResourceType names a counted resource.
type ResourceType string

const (
	ResourceProducts ResourceType = "products"
	ResourceUsers    ResourceType = "users"
	ResourceSales    ResourceType = "sales"
)

// Record is one usage counter row. Counters are scoped per tenant, resource
// and monthly period; a new month starts a fresh row at zero.
type Record struct {
	ID           int64        `json:"id"`
	CompanyID    int64        `json:"company_id"`
	ResourceType ResourceType `json:"resource_type"`
	UsagePeriod  time.Time    `json:"usage_period"`
	Quantity     int64        `json:"quantity"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CurrentPeriod truncates now to the first day of its month in UTC. All reads
// and writes of a month share this single period value, so the unique
// constraint on (company_id, resource_type, usage_period) makes the upsert
// race-free.
func CurrentPeriod(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
