package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"topglass/internal/domain"
	"topglass/internal/pkg/normalize"
)

// RateLimiter checks whether the caller may hit endpoint.
type RateLimiter interface {
	Check(ctx context.Context, endpoint string) (domain.RateLimitDecision, error)
}

// RecordStore inserts a lead under a caller-chosen id without reading it back.
type RecordStore interface {
	Insert(ctx context.Context, fields domain.LeadFields) error
}

// Uploader stores one file under a lead and returns its storage path.
type Uploader interface {
	Upload(ctx context.Context, leadID string, file BinaryFile) (string, error)
}

// Notifier tells the operators about a new lead.
type Notifier interface {
	Notify(ctx context.Context, summary domain.LeadSummary) error
}

// Collaborators groups the external services used by a submission.
type Collaborators struct {
	RateLimiter RateLimiter
	Records     RecordStore
	Uploader    Uploader
	Notifier    Notifier
}

// Receipt describes what a successful submission achieved.
type Receipt struct {
	LeadID        string
	UploadedPaths []string
	FailedUploads int
	Notified      bool
}

const (
	defaultFailureMessage = "Une erreur est survenue. Veuillez réessayer."
	rateLimitedFallback   = "Veuillez réessayer dans quelques minutes."
)

// Orchestrator runs the submission pipeline.
type Orchestrator struct {
	collab  Collaborators
	log     *zap.Logger
	newID   func() string
	timeout time.Duration
}

type Option func(*Orchestrator)

func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithIDGenerator replaces the uuid generator used for lead ids.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithCallTimeout bounds every collaborator call. Zero leaves calls unbounded.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

func NewOrchestrator(c Collaborators, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		collab: c,
		log:    zap.NewNop(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type submission struct {
	req     QuoteRequest
	phone   string
	plate   string
	leadID  string
	receipt Receipt
}

type stage struct {
	name       string
	bestEffort bool
	run        func(ctx context.Context, s *submission) error
}

// Submit runs the fixed sequence: rate-limit check, final validation, id
// generation, record insert, uploads and notification. Only failures up to
// and including the insert abort the submission.
func (o *Orchestrator) Submit(ctx context.Context, req QuoteRequest) (*Receipt, error) {
	s := &submission{req: req}
	for _, st := range o.stages(req) {
		err := st.run(ctx, s)
		if err == nil {
			continue
		}
		if st.bestEffort {
			o.log.Warn("best-effort step failed",
				zap.String("stage", st.name),
				zap.String("lead_id", s.leadID),
				zap.Error(err),
			)
			continue
		}
		o.log.Error("submission aborted",
			zap.String("stage", st.name),
			zap.String("lead_id", s.leadID),
			zap.Error(err),
		)
		return nil, err
	}
	return &s.receipt, nil
}

func (o *Orchestrator) stages(req QuoteRequest) []stage {
	stages := []stage{
		{name: "rate_limit", run: o.checkRateLimit},
		{name: "validate", run: validateFinal},
		{name: "identify", run: o.assignID},
		{name: "insert", run: o.insert},
	}
	for i, photo := range req.DamagePhotos {
		stages = append(stages, stage{
			name:       fmt.Sprintf("upload_photo_%d", i+1),
			bestEffort: true,
			run:        o.upload(photo),
		})
	}
	if doc, ok := req.Identification.Document(); ok {
		stages = append(stages, stage{name: "upload_document", bestEffort: true, run: o.upload(doc)})
	}
	return append(stages, stage{name: "notify", bestEffort: true, run: o.notify})
}

func (o *Orchestrator) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.timeout)
}

// checkRateLimit fails open when the limiter itself errors.
func (o *Orchestrator) checkRateLimit(ctx context.Context, _ *submission) error {
	if o.collab.RateLimiter == nil {
		return nil
	}
	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	decision, err := o.collab.RateLimiter.Check(callCtx, domain.EndpointLeadsSubmit)
	if err != nil {
		o.log.Warn("rate limit check failed, continuing", zap.String("endpoint", domain.EndpointLeadsSubmit), zap.Error(err))
		return nil
	}
	if decision.Allowed {
		return nil
	}
	msg := decision.Message
	if msg == "" {
		msg = rateLimitedFallback
	}
	return &SubmitError{Kind: KindRateLimited, Title: "Trop de demandes", Message: msg}
}

func validateFinal(_ context.Context, s *submission) error {
	s.phone = normalize.Phone(s.req.PhoneRaw)
	s.plate = normalize.Registration(s.req.RegistrationPlateRaw)

	if !normalize.IsValidPhone(s.phone) {
		return &SubmitError{
			Kind:    KindValidation,
			Field:   FieldPhone,
			Title:   "Numéro de téléphone invalide",
			Message: "Le numéro doit être au format français (10 chiffres commençant par 0)",
		}
	}
	if !normalize.IsValidRegistration(s.plate) {
		return &SubmitError{
			Kind:    KindValidation,
			Field:   FieldRegistration,
			Title:   "Immatriculation invalide",
			Message: "L'immatriculation doit être au format AA-123-BB",
		}
	}
	return nil
}

func (o *Orchestrator) assignID(_ context.Context, s *submission) error {
	s.leadID = o.newID()
	s.receipt.LeadID = s.leadID
	return nil
}

func (o *Orchestrator) insert(ctx context.Context, s *submission) error {
	if o.collab.Records == nil {
		return &SubmitError{Kind: KindDependency, Title: "Erreur", Message: defaultFailureMessage, Err: errors.New("no record store configured")}
	}
	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	if err := o.collab.Records.Insert(callCtx, s.req.leadFields(s.leadID, s.phone, s.plate)); err != nil {
		return &SubmitError{Kind: KindDependency, Title: "Erreur", Message: failureMessage(err), Err: err}
	}
	return nil
}

func (o *Orchestrator) upload(file BinaryFile) func(context.Context, *submission) error {
	return func(ctx context.Context, s *submission) error {
		if o.collab.Uploader == nil {
			s.receipt.FailedUploads++
			return errors.New("no uploader configured")
		}
		callCtx, cancel := o.bounded(ctx)
		defer cancel()

		path, err := o.collab.Uploader.Upload(callCtx, s.leadID, file)
		if err != nil {
			s.receipt.FailedUploads++
			return fmt.Errorf("upload %s: %w", file.Name, err)
		}
		s.receipt.UploadedPaths = append(s.receipt.UploadedPaths, path)
		return nil
	}
}

func (o *Orchestrator) notify(ctx context.Context, s *submission) error {
	if o.collab.Notifier == nil {
		return nil
	}
	callCtx, cancel := o.bounded(ctx)
	defer cancel()

	if err := o.collab.Notifier.Notify(callCtx, s.req.leadSummary(s.leadID, s.phone, s.plate)); err != nil {
		return err
	}
	s.receipt.Notified = true
	return nil
}

// failureMessage renders an insert failure as "message - Code: x - Détails: y".
func failureMessage(err error) string {
	var ce codedError
	if !errors.As(err, &ce) {
		return defaultFailureMessage
	}
	parts := []string{ce.Error()}
	if code := ce.Code(); code != "" {
		parts = append(parts, "Code: "+code)
	}
	if details := ce.Details(); details != "" {
		parts = append(parts, "Détails: "+details)
	}
	return strings.Join(parts, " - ")
}
