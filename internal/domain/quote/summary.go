package quote

import (
	"fmt"
	"strings"

	"topglass/internal/domain"
	"topglass/internal/domain/catalog"
	"topglass/internal/pkg/normalize"
)

// SummaryRow is one labelled value of the confirmation view.
type SummaryRow struct {
	Label string
	Value string
}

// SummarySection groups rows under a heading.
type SummarySection struct {
	Title string
	Rows  []SummaryRow
}

// Summary builds the read-only confirmation view from the request alone.
func Summary(r QuoteRequest) []SummarySection {
	phone := r.PhoneNormalized
	if phone == "" {
		phone = normalize.Phone(r.PhoneRaw)
	}
	plate := r.RegistrationPlateNormalized
	if plate == "" {
		plate = normalize.Registration(r.RegistrationPlateRaw)
	}

	vehicle := SummarySection{Title: "Véhicule", Rows: []SummaryRow{
		{"Immatriculation", plate},
		{"Marque", r.VehicleBrand},
		{"Modèle", r.VehicleModel},
		{"Type", r.VehicleBodyType},
	}}
	if vin := r.Identification.VIN(); vin != "" {
		vehicle.Rows = append(vehicle.Rows, SummaryRow{"VIN", vin})
	}
	if doc, ok := r.Identification.Document(); ok {
		vehicle.Rows = append(vehicle.Rows, SummaryRow{"Carte grise", doc.Name})
	}

	service := SummarySection{Title: "Service", Rows: []SummaryRow{{"Type", serviceLabel(r.ServiceType)}}}
	if r.Situation != "" {
		service.Rows = append(service.Rows, SummaryRow{"Situation", r.Situation})
	}
	if r.InsuranceName != "" {
		service.Rows = append(service.Rows, SummaryRow{"Assurance", r.InsuranceName})
	}
	if labels := r.GlassZoneLabels(); len(labels) > 0 {
		service.Rows = append(service.Rows, SummaryRow{"Zones", strings.Join(labels, ", ")})
	}

	sections := []SummarySection{vehicle, service}

	if r.Description != "" || len(r.DamagePhotos) > 0 {
		damage := SummarySection{Title: "Dégâts"}
		if r.Description != "" {
			damage.Rows = append(damage.Rows, SummaryRow{"Description", r.Description})
		}
		if n := len(r.DamagePhotos); n > 0 {
			damage.Rows = append(damage.Rows, SummaryRow{"Photos", fmt.Sprintf("%d photo(s) jointe(s)", n)})
		}
		sections = append(sections, damage)
	}

	sections = append(sections, SummarySection{Title: "Coordonnées", Rows: []SummaryRow{
		{"Nom", r.ContactName()},
		{"Téléphone", phone},
		{"Email", r.Email},
		{"Localisation", r.Location},
		{"Contact", contactLabel(r.ContactPreference)},
	}})
	return sections
}

// SummaryText renders Summary as plain text.
func SummaryText(r QuoteRequest) string {
	var b strings.Builder
	for i, s := range Summary(r) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.Title)
		b.WriteByte('\n')
		for _, row := range s.Rows {
			fmt.Fprintf(&b, "  %s: %s\n", row.Label, row.Value)
		}
	}
	return b.String()
}

func serviceLabel(t domain.ServiceType) string {
	if t == domain.ServiceGlazing {
		return "Vitrage"
	}
	return "Carrosserie"
}

func contactLabel(v string) string {
	for _, p := range catalog.ContactPreferences() {
		if p.Value == v {
			return p.Label
		}
	}
	return v
}
