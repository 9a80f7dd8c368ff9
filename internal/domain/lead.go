package domain

// ServiceType is the repair family requested in a quote, as stored on a lead.
type ServiceType string

const (
	ServiceGlazing  ServiceType = "vitrage"
	ServiceBodywork ServiceType = "carrosserie"
)

// Label returns the operator-facing name of the service.
func (s ServiceType) Label() string {
	if s == ServiceGlazing {
		return "Vitrage / Pare-brise"
	}
	return "Carrosserie"
}

func (s ServiceType) Valid() bool {
	return s == ServiceGlazing || s == ServiceBodywork
}

// Rate-limited endpoint identifiers.
const (
	EndpointLeadsSubmit     = "leads-submit"
	EndpointUploadLeadPhoto = "upload-lead-photo"
)

// LeadFields is the record inserted for a new lead. The id is chosen by the
// caller; the insert never reads the row back.
type LeadFields struct {
	ID                string      `json:"id" validate:"required,uuid"`
	VehicleType       string      `json:"vehicle_type" validate:"required"`
	GlassType         ServiceType `json:"glass_type" validate:"required,oneof=vitrage carrosserie"`
	VehicleBrand      string      `json:"vehicle_brand" validate:"required"`
	Location          string      `json:"location" validate:"required"`
	Name              string      `json:"name" validate:"required"`
	Phone             string      `json:"phone" validate:"required"`
	Email             string      `json:"email" validate:"required,email"`
	Notes             *string     `json:"notes"`
	RegistrationPlate string      `json:"registration_plate" validate:"required"`
}

// LeadSummary is the payload of the operator notification.
type LeadSummary struct {
	LeadID             string      `json:"leadId" validate:"required"`
	Name               string      `json:"name" validate:"required"`
	Email              string      `json:"email" validate:"required"`
	Phone              string      `json:"phone" validate:"required"`
	VehicleBrand       string      `json:"vehicleBrand"`
	VehicleModel       string      `json:"vehicleModel"`
	VehicleType        string      `json:"vehicleType"`
	RegistrationPlate  string      `json:"registrationPlate"`
	VIN                string      `json:"vin,omitempty"`
	Location           string      `json:"location"`
	ServiceType        ServiceType `json:"serviceType"`
	SelectedGlassZones []string    `json:"selectedGlassZones,omitempty"`
	Description        string      `json:"description,omitempty"`
}

// RateLimitDecision is the answer of a rate-limit check.
type RateLimitDecision struct {
	Allowed    bool   `json:"allowed"`
	Remaining  int    `json:"remaining"`
	Message    string `json:"message,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}
