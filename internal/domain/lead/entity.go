package lead

import (
	"slices"
	"time"

	"topglass/internal/domain"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusContacted  Status = "contacted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var statusLabels = map[Status]string{
	StatusNew:        "Nouveau",
	StatusContacted:  "Contacté",
	StatusInProgress: "En cours",
	StatusCompleted:  "Terminé",
	StatusCancelled:  "Annulé",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the French wording shown on the dashboard and in exports.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Lead is a stored quote request.
type Lead struct {
	ID                string             `gorm:"type:varchar(36);primaryKey" json:"id"`
	VehicleType       string             `gorm:"type:varchar(255);not null" json:"vehicle_type"`
	GlassType         domain.ServiceType `gorm:"type:varchar(20);not null" json:"glass_type"`
	VehicleBrand      string             `gorm:"type:varchar(100);not null" json:"vehicle_brand"`
	Location          string             `gorm:"type:varchar(100);not null" json:"location"`
	Name              string             `gorm:"type:varchar(255);not null" json:"name"`
	Phone             string             `gorm:"type:varchar(20);not null" json:"phone"`
	Email             string             `gorm:"type:varchar(255);not null" json:"email"`
	Notes             *string            `gorm:"type:text" json:"notes,omitempty"`
	RegistrationPlate string             `gorm:"type:varchar(12)" json:"registration_plate"`
	Status            Status             `gorm:"type:varchar(20);not null;default:new;index" json:"status"`
	Attachments       []string           `gorm:"serializer:json;type:text" json:"attachments"`
	CreatedAt         time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func (Lead) TableName() string { return "leads" }

func newLead(f domain.LeadFields) *Lead {
	return &Lead{
		ID:                f.ID,
		VehicleType:       f.VehicleType,
		GlassType:         f.GlassType,
		VehicleBrand:      f.VehicleBrand,
		Location:          f.Location,
		Name:              f.Name,
		Phone:             f.Phone,
		Email:             f.Email,
		Notes:             f.Notes,
		RegistrationPlate: f.RegistrationPlate,
		Status:            StatusNew,
		Attachments:       []string{},
	}
}

func (l *Lead) HasAttachment(path string) bool {
	return slices.Contains(l.Attachments, path)
}
