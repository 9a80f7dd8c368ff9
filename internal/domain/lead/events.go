package lead

type EventType string

const (
	EventCreated EventType = "lead_created"
	EventUpdated EventType = "lead_updated"
	EventDeleted EventType = "lead_deleted"
)

// Event is pushed to dashboard subscribers whenever a lead changes.
type Event struct {
	Type   EventType `json:"type"`
	LeadID string    `json:"lead_id"`
	Lead   *Lead     `json:"lead,omitempty"`
}

type Publisher interface {
	Publish(e Event)
}
