package tenancy

import "time"

// Tenant represents an organisation with rooms and kiosk displays.
type Tenant struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Timezone      string        `json:"timezone"`
	DisplayConfig DisplayConfig `json:"display_config"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Room represents a bookable space belonging to a tenant.
type Room struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayConfig holds tenant-wide display settings as a JSON map
// (branding colours, logo URL, idle screen text).
type DisplayConfig map[string]any

// Location returns the tenant's timezone as a *time.Location,
// falling back to UTC if the stored name is invalid.
func (t *Tenant) Location() *time.Location {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
