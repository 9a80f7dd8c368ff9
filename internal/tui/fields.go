package tui

import (
	"fmt"
	"slices"
	"strconv"

	"topglass/internal/domain"
	"topglass/internal/domain/catalog"
	"topglass/internal/domain/quote"
)

type fieldKind int

const (
	kindText   fieldKind = iota // free text, applied on every keystroke
	kindChoice                  // one value out of options, cycled with left/right
	kindMulti                   // any number of options, toggled with space
	kindToggle                  // yes/no
	kindFile                    // a file path, read on enter
)

type option struct {
	value string
	label string
}

// field is one editable row of the current page. Options are computed when
// the page is built, so the list is rebuilt after every change.
type field struct {
	label    string
	errKey   string
	kind     fieldKind
	options  []option
	value    func(r quote.QuoteRequest) string
	selected func(r quote.QuoteRequest) []string
	apply    func(v string) error
	blur     func() error
	clear    func() error
	hint     string
}

func (f field) index(r quote.QuoteRequest) int {
	v := f.value(r)
	return slices.IndexFunc(f.options, func(o option) bool { return o.value == v })
}

func stringOptions(values []string) []option {
	out := make([]option, len(values))
	for i, v := range values {
		out[i] = option{value: v, label: v}
	}
	return out
}

// buildFields returns the rows offered in the current phase.
func (a *App) buildFields() []field {
	m := a.machine
	r := m.Snapshot()
	switch m.Phase() {
	case quote.PhaseStep1:
		return []field{{
			label:  "Immatriculation",
			errKey: quote.FieldRegistration,
			kind:   kindText,
			value:  func(r quote.QuoteRequest) string { return r.RegistrationPlateRaw },
			apply:  m.SetRegistration,
			blur:   m.BlurRegistration,
			hint:   fmt.Sprintf("AA-123-BB, entrée pour confirmer le véhicule (%d caractères min.)", quote.MinPlateLengthForConfirmation),
		}}
	case quote.PhaseVehicleConfirmation:
		return []field{
			{
				label:   "Marque",
				errKey:  quote.FieldBrand,
				kind:    kindChoice,
				options: stringOptions(catalog.Brands()),
				value:   func(r quote.QuoteRequest) string { return r.VehicleBrand },
				apply:   m.SelectBrand,
			},
			{
				label:   "Modèle",
				errKey:  quote.FieldModel,
				kind:    kindChoice,
				options: stringOptions(catalog.ModelsFor(r.VehicleBrand)),
				value:   func(r quote.QuoteRequest) string { return r.VehicleModel },
				apply:   m.SelectModel,
				hint:    "choisissez d'abord la marque",
			},
			{
				label:   "Type de véhicule",
				errKey:  quote.FieldBodyType,
				kind:    kindChoice,
				options: stringOptions(catalog.BodyTypes()),
				value:   func(r quote.QuoteRequest) string { return r.VehicleBodyType },
				apply:   m.SelectBodyType,
			},
			{
				label:  "Numéro VIN",
				errKey: quote.FieldIdentification,
				kind:   kindText,
				value:  func(r quote.QuoteRequest) string { return r.Identification.VIN() },
				apply:  m.SetVIN,
				hint:   "17 caractères, ou joignez la carte grise",
			},
			{
				label: "Carte grise",
				kind:  kindFile,
				value: func(r quote.QuoteRequest) string {
					if doc, ok := r.Identification.Document(); ok {
						return doc.Name
					}
					return ""
				},
				apply: func(p string) error {
					file, err := a.loadFile(p)
					if err != nil {
						return err
					}
					return m.AttachDocument(file)
				},
				clear: m.RemoveDocument,
				hint:  "chemin d'une photo, ctrl+d pour retirer",
			},
		}
	case quote.PhaseStep2:
		fields := []field{{
			label: "Service",
			kind:  kindChoice,
			options: []option{
				{value: string(domain.ServiceGlazing), label: domain.ServiceGlazing.Label()},
				{value: string(domain.ServiceBodywork), label: domain.ServiceBodywork.Label()},
			},
			value: func(r quote.QuoteRequest) string { return string(r.ServiceType) },
			apply: func(v string) error { return m.SetServiceType(domain.ServiceType(v)) },
		}}
		if r.ServiceType == domain.ServiceGlazing {
			zones := catalog.Zones()
			opts := make([]option, len(zones))
			for i, z := range zones {
				opts[i] = option{value: z.ID, label: z.ShortLabel}
			}
			fields = append(fields, field{
				label:    "Zones endommagées",
				kind:     kindMulti,
				options:  opts,
				selected: func(r quote.QuoteRequest) []string { return r.SelectedGlassZones },
				apply:    m.ToggleGlassZone,
				hint:     "gauche/droite pour parcourir, espace pour cocher",
			})
		}
		return fields
	case quote.PhaseStep3:
		fields := []field{
			{
				label: "Photos des dégâts",
				kind:  kindFile,
				value: func(r quote.QuoteRequest) string {
					return strconv.Itoa(len(r.DamagePhotos)) + "/" + strconv.Itoa(quote.MaxPhotos)
				},
				apply: func(p string) error {
					file, err := a.loadFile(p)
					if err != nil {
						return err
					}
					_, err = m.AddPhotos(file)
					return err
				},
				clear: func() error {
					n := len(m.Snapshot().DamagePhotos)
					if n == 0 {
						return nil
					}
					return m.RemovePhoto(n - 1)
				},
				hint: "chemin d'une image, ctrl+d retire la dernière",
			},
			{
				label:   "Situation",
				kind:    kindChoice,
				options: stringOptions(catalog.Situations()),
				value:   func(r quote.QuoteRequest) string { return r.Situation },
				apply:   m.SetSituation,
			},
		}
		if r.Situation == catalog.SituationInsurance {
			fields = append(fields, field{
				label: "Assurance",
				kind:  kindText,
				value: func(r quote.QuoteRequest) string { return r.InsuranceName },
				apply: m.SetInsuranceName,
			})
		}
		return append(fields, field{
			label: "Description",
			kind:  kindText,
			value: func(r quote.QuoteRequest) string { return r.Description },
			apply: m.SetDescription,
		})
	case quote.PhaseStep4:
		prefs := catalog.ContactPreferences()
		prefOpts := make([]option, len(prefs))
		for i, p := range prefs {
			prefOpts[i] = option{value: p.Value, label: p.Label}
		}
		fields := []field{
			{
				label:   "Civilité",
				errKey:  quote.FieldCivility,
				kind:    kindChoice,
				options: []option{{value: catalog.CivilityMrs, label: "Madame"}, {value: catalog.CivilityMr, label: "Monsieur"}},
				value:   func(r quote.QuoteRequest) string { return r.Civility },
				apply:   m.SetCivility,
			},
			{label: "Nom", errKey: quote.FieldLastName, kind: kindText, value: func(r quote.QuoteRequest) string { return r.LastName }, apply: m.SetLastName},
			{label: "Prénom", errKey: quote.FieldFirstName, kind: kindText, value: func(r quote.QuoteRequest) string { return r.FirstName }, apply: m.SetFirstName},
			{label: "Email", errKey: quote.FieldEmail, kind: kindText, value: func(r quote.QuoteRequest) string { return r.Email }, apply: m.SetEmail},
			{
				label:  "Téléphone",
				errKey: quote.FieldPhone,
				kind:   kindText,
				value:  func(r quote.QuoteRequest) string { return r.PhoneRaw },
				apply:  m.SetPhone,
				blur:   m.BlurPhone,
			},
			{
				label:   "Localisation",
				errKey:  quote.FieldLocation,
				kind:    kindChoice,
				options: stringOptions(catalog.Cities()),
				value: func(r quote.QuoteRequest) string {
					if a.otherLocation {
						return catalog.CityOther
					}
					return r.Location
				},
				apply: func(v string) error {
					a.otherLocation = v == catalog.CityOther
					if a.otherLocation {
						return m.SetLocation("")
					}
					return m.SetLocation(v)
				},
			},
		}
		if a.otherLocation {
			fields = append(fields, field{
				label:  "Précisez la ville",
				errKey: quote.FieldLocation,
				kind:   kindText,
				value:  func(r quote.QuoteRequest) string { return r.Location },
				apply:  m.SetLocation,
			})
		}
		return append(fields,
			field{
				label:   "Être recontacté par",
				errKey:  quote.FieldContactPreference,
				kind:    kindChoice,
				options: prefOpts,
				value:   func(r quote.QuoteRequest) string { return r.ContactPreference },
				apply:   m.SetContactPreference,
			},
			field{
				label:  "J'accepte d'être recontacté",
				errKey: quote.FieldConsent,
				kind:   kindToggle,
				value: func(r quote.QuoteRequest) string {
					return strconv.FormatBool(r.ConsentGiven)
				},
				apply: func(v string) error { return m.SetConsent(v == "true") },
			},
		)
	}
	return nil
}
