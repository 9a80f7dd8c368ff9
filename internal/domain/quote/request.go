// Package quote implements the multi-step quote wizard: the form record,
// per-step validation, the step state machine and the submission pipeline.
package quote

import (
	"fmt"
	"slices"
	"strings"

	"topglass/internal/domain"
	"topglass/internal/domain/catalog"
)

// MaxPhotos is the number of damage photos a request can carry.
const MaxPhotos = 5

// BinaryFile is a file picked by the customer, held in memory until submission.
type BinaryFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f BinaryFile) Size() int { return len(f.Data) }

// IdentificationMethod tells which proof of vehicle identity was given.
type IdentificationMethod int

const (
	IdentNone IdentificationMethod = iota
	IdentVIN
	IdentDocument
)

// Identification holds at most one of a VIN or a registration document photo.
// The fields are unexported so only the setters can switch branches.
type Identification struct {
	vin      string
	document *BinaryFile
}

func (i Identification) Method() IdentificationMethod {
	switch {
	case i.vin != "":
		return IdentVIN
	case i.document != nil:
		return IdentDocument
	default:
		return IdentNone
	}
}

func (i Identification) VIN() string { return i.vin }

// Document returns the registration document photo, if that branch is selected.
func (i Identification) Document() (BinaryFile, bool) {
	if i.document == nil {
		return BinaryFile{}, false
	}
	return *i.document, true
}

// QuoteRequest is the accumulated wizard form.
type QuoteRequest struct {
	RegistrationPlateRaw        string
	RegistrationPlateNormalized string

	VehicleBrand    string
	VehicleModel    string
	VehicleBodyType string
	Identification  Identification

	ServiceType        domain.ServiceType
	SelectedGlassZones []string

	DamagePhotos  []BinaryFile
	Situation     string
	InsuranceName string
	Description   string

	Civility          string
	LastName          string
	FirstName         string
	Email             string
	PhoneRaw          string
	PhoneNormalized   string
	Location          string
	ContactPreference string
	ConsentGiven      bool
}

// NewQuoteRequest returns an empty request with glazing pre-selected.
func NewQuoteRequest() QuoteRequest {
	return QuoteRequest{ServiceType: domain.ServiceGlazing}
}

// Clone returns a deep copy.
func (r QuoteRequest) Clone() QuoteRequest {
	out := r
	out.SelectedGlassZones = slices.Clone(r.SelectedGlassZones)
	if r.DamagePhotos != nil {
		out.DamagePhotos = make([]BinaryFile, len(r.DamagePhotos))
		for i, p := range r.DamagePhotos {
			out.DamagePhotos[i] = cloneFile(p)
		}
	}
	if r.Identification.document != nil {
		doc := cloneFile(*r.Identification.document)
		out.Identification.document = &doc
	}
	return out
}

func cloneFile(f BinaryFile) BinaryFile {
	f.Data = slices.Clone(f.Data)
	return f
}

// ContactName is the "civility first last" form stored on the lead.
func (r QuoteRequest) ContactName() string {
	return fmt.Sprintf("%s %s %s", r.Civility, r.FirstName, r.LastName)
}

// VehicleDescription is the "brand model - body type" form stored on the lead.
func (r QuoteRequest) VehicleDescription() string {
	return fmt.Sprintf("%s %s - %s", r.VehicleBrand, r.VehicleModel, r.VehicleBodyType)
}

// GlassZoneLabels returns the labels of the selected zones when the request
// is for glazing work.
func (r QuoteRequest) GlassZoneLabels() []string {
	if r.ServiceType != domain.ServiceGlazing {
		return nil
	}
	return catalog.ZoneLabels(r.SelectedGlassZones)
}

// Notes joins the description, the zone list and the VIN, skipping empty
// parts. It returns nil when all parts are empty.
func (r QuoteRequest) Notes() *string {
	var parts []string
	if d := strings.TrimSpace(r.Description); d != "" {
		parts = append(parts, r.Description)
	}
	if labels := r.GlassZoneLabels(); len(labels) > 0 {
		parts = append(parts, "Zones de vitrage: "+strings.Join(labels, ", "))
	}
	if vin := r.Identification.VIN(); vin != "" {
		parts = append(parts, "VIN: "+vin)
	}
	if len(parts) == 0 {
		return nil
	}
	notes := strings.Join(parts, " | ")
	return &notes
}

// leadFields builds the record inserted for id. phone and plate are the
// normalized values validated by the caller.
func (r QuoteRequest) leadFields(id, phone, plate string) domain.LeadFields {
	return domain.LeadFields{
		ID:                id,
		VehicleType:       r.VehicleDescription(),
		GlassType:         r.ServiceType,
		VehicleBrand:      r.VehicleBrand,
		Location:          r.Location,
		Name:              r.ContactName(),
		Phone:             phone,
		Email:             r.Email,
		Notes:             r.Notes(),
		RegistrationPlate: plate,
	}
}

func (r QuoteRequest) leadSummary(id, phone, plate string) domain.LeadSummary {
	return domain.LeadSummary{
		LeadID:             id,
		Name:               r.ContactName(),
		Email:              r.Email,
		Phone:              phone,
		VehicleBrand:       r.VehicleBrand,
		VehicleModel:       r.VehicleModel,
		VehicleType:        r.VehicleBodyType,
		RegistrationPlate:  plate,
		VIN:                r.Identification.VIN(),
		Location:           r.Location,
		ServiceType:        r.ServiceType,
		SelectedGlassZones: r.GlassZoneLabels(),
		Description:        r.Description,
	}
}
