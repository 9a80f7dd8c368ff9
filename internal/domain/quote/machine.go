package quote

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"topglass/internal/domain"
	"topglass/internal/domain/catalog"
	"topglass/internal/pkg/normalize"
)

// Step is the wizard page shown to the customer.
type Step int

const (
	Step1 Step = iota + 1 // registration plate and vehicle
	Step2                 // service type
	Step3                 // damage and situation
	Step4                 // contact details
	Step5                 // confirmation
)

// Phase is the machine state. The vehicle confirmation modal overlays
// Step1 and Submitting sits between Step4 and Step5.
type Phase int

const (
	PhaseStep1 Phase = iota
	PhaseVehicleConfirmation
	PhaseStep2
	PhaseStep3
	PhaseStep4
	PhaseSubmitting
	PhaseStep5
)

func (p Phase) String() string {
	switch p {
	case PhaseStep1:
		return "step1"
	case PhaseVehicleConfirmation:
		return "vehicle_confirmation"
	case PhaseStep2:
		return "step2"
	case PhaseStep3:
		return "step3"
	case PhaseStep4:
		return "step4"
	case PhaseSubmitting:
		return "submitting"
	case PhaseStep5:
		return "step5"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Step returns the page the phase belongs to.
func (p Phase) Step() Step {
	switch p {
	case PhaseStep1, PhaseVehicleConfirmation:
		return Step1
	case PhaseStep2:
		return Step2
	case PhaseStep3:
		return Step3
	case PhaseStep4, PhaseSubmitting:
		return Step4
	default:
		return Step5
	}
}

// MinPlateLengthForConfirmation is the typed length that unlocks the vehicle modal.
const MinPlateLengthForConfirmation = 7

// Machine owns a QuoteRequest and gates every change of step. It is safe
// for concurrent use: Submit releases the lock while the pipeline runs and
// every mutation is refused until it returns.
type Machine struct {
	mu      sync.Mutex
	phase   Phase
	req     QuoteRequest
	receipt *Receipt
	orch    *Orchestrator
	msgs    broadcaster
}

func NewMachine(orch *Orchestrator) *Machine {
	return &Machine{phase: PhaseStep1, req: NewQuoteRequest(), orch: orch}
}

// Subscribe registers fn for customer-facing messages and returns an
// unsubscribe function.
func (m *Machine) Subscribe(fn func(Message)) func() {
	return m.msgs.subscribe(fn)
}

func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Machine) Step() Step { return m.Phase().Step() }

// ModalOpen reports whether the vehicle confirmation modal is shown.
func (m *Machine) ModalOpen() bool { return m.Phase() == PhaseVehicleConfirmation }

// Snapshot returns a copy of the request.
func (m *Machine) Snapshot() QuoteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.req.Clone()
}

// Receipt returns the result of the last successful submission.
func (m *Machine) Receipt() (Receipt, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.receipt == nil {
		return Receipt{}, false
	}
	r := *m.receipt
	r.UploadedPaths = slices.Clone(r.UploadedPaths)
	return r, true
}

// Errors returns the inline errors of the current step.
func (m *Machine) Errors() FieldErrors {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ValidateStep(m.phase.Step(), m.req)
}

// OpenVehicleConfirmation shows the vehicle modal once enough of the plate is typed.
func (m *Machine) OpenVehicleConfirmation() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseStep1 {
		return m.transitionErr()
	}
	if len(m.req.RegistrationPlateRaw) < MinPlateLengthForConfirmation {
		return &ValidationError{Step: Step1, Fields: FieldErrors{
			FieldRegistration: "L'immatriculation doit être au format AA-123-BB",
		}}
	}
	m.phase = PhaseVehicleConfirmation
	return nil
}

// ConfirmVehicle closes the modal and moves to Step2 when the vehicle is complete.
func (m *Machine) ConfirmVehicle() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseVehicleConfirmation {
		return m.transitionErr()
	}
	if errs := ValidateStep(Step1, m.req); len(errs) > 0 {
		return &ValidationError{Step: Step1, Fields: errs}
	}
	m.req.RegistrationPlateNormalized = normalize.Registration(m.req.RegistrationPlateRaw)
	m.req.RegistrationPlateRaw = m.req.RegistrationPlateNormalized
	m.phase = PhaseStep2
	return nil
}

// DismissVehicleConfirmation closes the modal and keeps every field.
func (m *Machine) DismissVehicleConfirmation() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseVehicleConfirmation {
		return m.transitionErr()
	}
	m.phase = PhaseStep1
	return nil
}

// Next advances from Step2 or Step3.
func (m *Machine) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseStep2 && m.phase != PhaseStep3 {
		return m.transitionErr()
	}
	step := m.phase.Step()
	if errs := ValidateStep(step, m.req); len(errs) > 0 {
		return &ValidationError{Step: step, Fields: errs}
	}
	m.phase++
	return nil
}

// Back returns to the previous step from Step2, Step3 or Step4.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.phase {
	case PhaseStep2:
		m.phase = PhaseStep1
	case PhaseStep3:
		m.phase = PhaseStep2
	case PhaseStep4:
		m.phase = PhaseStep3
	default:
		return m.transitionErr()
	}
	return nil
}

// Submit runs the submission pipeline from Step4. On success the machine
// moves to Step5; on failure it returns to Step4 with the form untouched
// and emits an error message.
func (m *Machine) Submit(ctx context.Context) (*Receipt, error) {
	m.mu.Lock()
	if m.phase != PhaseStep4 {
		err := m.transitionErr()
		m.mu.Unlock()
		return nil, err
	}
	if errs := ValidateStep(Step4, m.req); len(errs) > 0 {
		m.mu.Unlock()
		return nil, &ValidationError{Step: Step4, Fields: errs}
	}
	m.phase = PhaseSubmitting
	snapshot := m.req.Clone()
	m.mu.Unlock()

	receipt, err := m.orch.Submit(ctx, snapshot)

	m.mu.Lock()
	if err != nil {
		m.phase = PhaseStep4
		m.mu.Unlock()
		m.msgs.emit(messageFor(err))
		return nil, err
	}
	m.req.PhoneNormalized = normalize.Phone(m.req.PhoneRaw)
	m.req.RegistrationPlateNormalized = normalize.Registration(m.req.RegistrationPlateRaw)
	m.receipt = receipt
	m.phase = PhaseStep5
	m.mu.Unlock()

	m.msgs.emit(Message{
		Level:  LevelSuccess,
		Title:  "Demande envoyée !",
		Detail: "Notre équipe vous recontacte rapidement avec votre devis.",
	})
	return receipt, nil
}

// Reset starts a fresh request after confirmation.
func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseStep5 {
		return m.transitionErr()
	}
	m.req = NewQuoteRequest()
	m.receipt = nil
	m.phase = PhaseStep1
	return nil
}

func (m *Machine) transitionErr() error {
	if m.phase == PhaseSubmitting {
		return ErrSubmitting
	}
	return fmt.Errorf("%w (%s)", ErrInvalidTransition, m.phase)
}

// edit applies fn to the request unless it is frozen.
func (m *Machine) edit(fn func(r *QuoteRequest) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.phase {
	case PhaseSubmitting:
		return ErrSubmitting
	case PhaseStep5:
		return ErrSubmitted
	}
	return fn(&m.req)
}

// SetRegistration stores the plate as typed, keeping A-Z, 0-9 and dashes.
func (m *Machine) SetRegistration(input string) error {
	return m.edit(func(r *QuoteRequest) error {
		r.RegistrationPlateRaw = normalize.RegistrationInput(input)
		return nil
	})
}

// BlurRegistration formats the typed plate.
func (m *Machine) BlurRegistration() error {
	return m.edit(func(r *QuoteRequest) error {
		r.RegistrationPlateNormalized = normalize.Registration(r.RegistrationPlateRaw)
		r.RegistrationPlateRaw = r.RegistrationPlateNormalized
		return nil
	})
}

// SelectBrand sets the brand and clears the dependent model.
func (m *Machine) SelectBrand(brand string) error {
	return m.edit(func(r *QuoteRequest) error {
		if brand != "" && !catalog.IsBrand(brand) {
			return fmt.Errorf("%w: brand %q", ErrUnknownOption, brand)
		}
		if r.VehicleBrand != brand {
			r.VehicleModel = ""
		}
		r.VehicleBrand = brand
		return nil
	})
}

func (m *Machine) SelectModel(model string) error {
	return m.edit(func(r *QuoteRequest) error {
		if model != "" && !catalog.IsModel(r.VehicleBrand, model) {
			return fmt.Errorf("%w: model %q for brand %q", ErrUnknownOption, model, r.VehicleBrand)
		}
		r.VehicleModel = model
		return nil
	})
}

func (m *Machine) SelectBodyType(bodyType string) error {
	return m.edit(func(r *QuoteRequest) error {
		if bodyType != "" && !catalog.IsBodyType(bodyType) {
			return fmt.Errorf("%w: body type %q", ErrUnknownOption, bodyType)
		}
		r.VehicleBodyType = bodyType
		return nil
	})
}

// SetVIN selects the VIN identification. A non-empty VIN drops the document photo.
func (m *Machine) SetVIN(input string) error {
	return m.edit(func(r *QuoteRequest) error {
		vin := normalize.VIN(input)
		r.Identification.vin = vin
		if vin != "" {
			r.Identification.document = nil
		}
		return nil
	})
}

// AttachDocument selects the registration document identification and clears the VIN.
func (m *Machine) AttachDocument(file BinaryFile) error {
	return m.edit(func(r *QuoteRequest) error {
		doc := cloneFile(file)
		r.Identification = Identification{document: &doc}
		return nil
	})
}

func (m *Machine) RemoveDocument() error {
	return m.edit(func(r *QuoteRequest) error {
		r.Identification.document = nil
		return nil
	})
}

func (m *Machine) SetServiceType(t domain.ServiceType) error {
	return m.edit(func(r *QuoteRequest) error {
		if !t.Valid() {
			return fmt.Errorf("%w: service type %q", ErrUnknownOption, t)
		}
		r.ServiceType = t
		return nil
	})
}

// ToggleGlassZone adds or removes a zone from the selection.
func (m *Machine) ToggleGlassZone(id string) error {
	return m.edit(func(r *QuoteRequest) error {
		if _, ok := catalog.ZoneByID(id); !ok {
			return fmt.Errorf("%w: zone %q", ErrUnknownOption, id)
		}
		if i := slices.Index(r.SelectedGlassZones, id); i >= 0 {
			r.SelectedGlassZones = slices.Delete(r.SelectedGlassZones, i, i+1)
			return nil
		}
		r.SelectedGlassZones = append(r.SelectedGlassZones, id)
		return nil
	})
}

// AddPhotos appends damage photos up to MaxPhotos. Extra files are dropped
// and reported with ErrPhotoLimit; the accepted ones are kept.
func (m *Machine) AddPhotos(files ...BinaryFile) (int, error) {
	added := 0
	err := m.edit(func(r *QuoteRequest) error {
		for _, f := range files {
			if len(r.DamagePhotos) >= MaxPhotos {
				return fmt.Errorf("%w: %d of %d files kept", ErrPhotoLimit, added, len(files))
			}
			r.DamagePhotos = append(r.DamagePhotos, cloneFile(f))
			added++
		}
		return nil
	})
	return added, err
}

func (m *Machine) RemovePhoto(index int) error {
	return m.edit(func(r *QuoteRequest) error {
		if index < 0 || index >= len(r.DamagePhotos) {
			return ErrPhotoIndex
		}
		r.DamagePhotos = slices.Delete(r.DamagePhotos, index, index+1)
		return nil
	})
}

// SetSituation records the funding situation. The insurer name is only
// kept while the customer uses their insurance.
func (m *Machine) SetSituation(situation string) error {
	return m.edit(func(r *QuoteRequest) error {
		if situation != "" && !catalog.IsSituation(situation) {
			return fmt.Errorf("%w: situation %q", ErrUnknownOption, situation)
		}
		r.Situation = situation
		if situation != catalog.SituationInsurance {
			r.InsuranceName = ""
		}
		return nil
	})
}

func (m *Machine) SetInsuranceName(name string) error {
	return m.edit(func(r *QuoteRequest) error {
		if r.Situation != catalog.SituationInsurance {
			return fmt.Errorf("%w: insurance name without insurance situation", ErrUnknownOption)
		}
		r.InsuranceName = name
		return nil
	})
}

func (m *Machine) SetDescription(text string) error {
	return m.edit(func(r *QuoteRequest) error {
		r.Description = text
		return nil
	})
}

func (m *Machine) SetCivility(civility string) error {
	return m.edit(func(r *QuoteRequest) error {
		if civility != "" && !catalog.IsCivility(civility) {
			return fmt.Errorf("%w: civility %q", ErrUnknownOption, civility)
		}
		r.Civility = civility
		return nil
	})
}

func (m *Machine) SetLastName(name string) error {
	return m.edit(func(r *QuoteRequest) error {
		r.LastName = name
		return nil
	})
}

func (m *Machine) SetFirstName(name string) error {
	return m.edit(func(r *QuoteRequest) error {
		r.FirstName = name
		return nil
	})
}

func (m *Machine) SetEmail(email string) error {
	return m.edit(func(r *QuoteRequest) error {
		r.Email = strings.TrimSpace(email)
		return nil
	})
}

func (m *Machine) SetPhone(phone string) error {
	return m.edit(func(r *QuoteRequest) error {
		r.PhoneRaw = phone
		return nil
	})
}

// BlurPhone rewrites the typed phone in its normalized form.
func (m *Machine) BlurPhone() error {
	return m.edit(func(r *QuoteRequest) error {
		r.PhoneNormalized = normalize.Phone(r.PhoneRaw)
		r.PhoneRaw = r.PhoneNormalized
		return nil
	})
}

func (m *Machine) SetLocation(location string) error {
	return m.edit(func(r *QuoteRequest) error {
		r.Location = location
		return nil
	})
}

func (m *Machine) SetContactPreference(pref string) error {
	return m.edit(func(r *QuoteRequest) error {
		if pref != "" && !catalog.IsContactPreference(pref) {
			return fmt.Errorf("%w: contact preference %q", ErrUnknownOption, pref)
		}
		r.ContactPreference = pref
		return nil
	})
}

func (m *Machine) SetConsent(given bool) error {
	return m.edit(func(r *QuoteRequest) error {
		r.ConsentGiven = given
		return nil
	})
}

// IsValidationError reports whether err is a step gate failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
