package ratelimit

import (
	"time"

	"topglass/internal/domain"
)

const (
	// Window is the sliding period over which hits are counted.
	Window = 15 * time.Minute
	// Retention is how long entries are kept before cleanup drops them.
	Retention = time.Hour
	// SweepInterval spaces the cleanups Check runs between full sweeps.
	SweepInterval = 5 * time.Minute

	DefaultLimit = 5
)

var limits = map[string]int{
	domain.EndpointLeadsSubmit:     5,
	domain.EndpointUploadLeadPhoto: 10,
}

// LimitFor returns the number of hits allowed per Window for endpoint.
func LimitFor(endpoint string) int {
	if n, ok := limits[endpoint]; ok {
		return n
	}
	return DefaultLimit
}

// RetryAfterSeconds is advertised to denied callers.
func RetryAfterSeconds() int { return int(Window / time.Second) }

// Entry records one or more hits from an address on an endpoint.
type Entry struct {
	ID           uint      `gorm:"primaryKey"`
	IPAddress    string    `gorm:"type:varchar(64);not null;index:idx_rate_limits_lookup,priority:1"`
	Endpoint     string    `gorm:"type:varchar(100);not null;index:idx_rate_limits_lookup,priority:2"`
	RequestCount int       `gorm:"not null;default:1"`
	WindowStart  time.Time `gorm:"not null;index:idx_rate_limits_lookup,priority:3;index"`
	CreatedAt    time.Time
}

func (Entry) TableName() string { return "rate_limits" }
