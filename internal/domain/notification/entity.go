package notification

import "time"

type DeliveryStatus string

const (
	StatusSent   DeliveryStatus = "sent"
	StatusFailed DeliveryStatus = "failed"
)

// Delivery records one attempt to notify the operators about a lead.
type Delivery struct {
	ID         int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LeadID     string         `gorm:"column:lead_id;type:varchar(36);index" json:"lead_id"`
	Provider   string         `gorm:"column:provider;type:varchar(16)" json:"provider"`
	Recipients string         `gorm:"column:recipients" json:"recipients"`
	Subject    string         `gorm:"column:subject" json:"subject"`
	MessageID  *string        `gorm:"column:message_id" json:"message_id,omitempty"`
	Status     DeliveryStatus `gorm:"column:status;type:varchar(16)" json:"status"`
	Error      *string        `gorm:"column:error" json:"error,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Delivery) TableName() string { return "notification_deliveries" }

// Email is a rendered message ready for a Sender.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}
