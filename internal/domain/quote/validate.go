package quote

import (
	"strings"

	"topglass/internal/domain/catalog"
	"topglass/internal/pkg/normalize"
	"topglass/internal/pkg/validator"
)

// FieldErrors maps a field key to an inline message.
type FieldErrors map[string]string

// Field keys used in FieldErrors.
const (
	FieldRegistration      = "registration"
	FieldBrand             = "brand"
	FieldModel             = "model"
	FieldBodyType          = "body_type"
	FieldIdentification    = "identification"
	FieldCivility          = "civility"
	FieldLastName          = "last_name"
	FieldFirstName         = "first_name"
	FieldEmail             = "email"
	FieldPhone             = "phone"
	FieldLocation          = "location"
	FieldContactPreference = "contact_preference"
	FieldConsent           = "consent"
)

// ValidateStep returns the fields that block leaving step. Steps 2 and 3
// never block; step 5 has nothing to validate.
func ValidateStep(step Step, r QuoteRequest) FieldErrors {
	errs := FieldErrors{}
	switch step {
	case Step1:
		validateVehicle(r, errs)
	case Step4:
		validateContact(r, errs)
	}
	return errs
}

// CanAdvance reports whether step may be left forward.
func CanAdvance(step Step, r QuoteRequest) bool {
	return len(ValidateStep(step, r)) == 0
}

func validateVehicle(r QuoteRequest, errs FieldErrors) {
	if !normalize.IsValidRegistration(normalize.Registration(r.RegistrationPlateRaw)) {
		errs[FieldRegistration] = "L'immatriculation doit être au format AA-123-BB"
	}
	if r.VehicleBrand == "" {
		errs[FieldBrand] = "Sélectionnez la marque"
	}
	switch {
	case r.VehicleModel == "":
		errs[FieldModel] = "Sélectionnez le modèle"
	case r.VehicleBrand != "" && !catalog.IsModel(r.VehicleBrand, r.VehicleModel):
		errs[FieldModel] = "Ce modèle ne correspond pas à la marque"
	}
	if r.VehicleBodyType == "" {
		errs[FieldBodyType] = "Sélectionnez le type de véhicule"
	}
	if r.Identification.Method() == IdentNone {
		errs[FieldIdentification] = "Renseignez le numéro VIN ou ajoutez une photo de la carte grise"
	}
}

func validateContact(r QuoteRequest, errs FieldErrors) {
	if r.Civility == "" {
		errs[FieldCivility] = "Sélectionnez votre civilité"
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs[FieldLastName] = "Le nom est requis"
	}
	if strings.TrimSpace(r.FirstName) == "" {
		errs[FieldFirstName] = "Le prénom est requis"
	}
	switch {
	case strings.TrimSpace(r.Email) == "":
		errs[FieldEmail] = "L'email est requis"
	case !validator.IsEmail(r.Email):
		errs[FieldEmail] = "L'email n'est pas valide"
	}
	if !normalize.IsValidPhone(normalize.Phone(r.PhoneRaw)) {
		errs[FieldPhone] = "Le numéro doit être au format français (10 chiffres commençant par 0)"
	}
	if strings.TrimSpace(r.Location) == "" {
		errs[FieldLocation] = "La localisation est requise"
	}
	if r.ContactPreference == "" {
		errs[FieldContactPreference] = "Choisissez comment être recontacté"
	}
	if !r.ConsentGiven {
		errs[FieldConsent] = "Vous devez accepter d'être recontacté"
	}
}
