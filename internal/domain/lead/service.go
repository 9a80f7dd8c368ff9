package lead

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"topglass/internal/domain"
	"topglass/internal/pkg/logger"
	"topglass/internal/pkg/metrics"
	"topglass/internal/pkg/normalize"
)

// BlobRemover deletes stored attachments.
type BlobRemover interface {
	Delete(ctx context.Context, path string) error
}

type Service struct {
	repo   Repository
	events Publisher
	blobs  BlobRemover
	log    *zap.Logger
	now    func() time.Time
}

type ServiceOption func(*Service)

func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.events = p }
}

func WithBlobRemover(b BlobRemover) ServiceOption {
	return func(s *Service) { s.blobs = b }
}

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.log = logger.OrNop(l) }
}

func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a lead under the caller-chosen id. Phone and plate must
// already be in their normalized forms.
func (s *Service) Create(ctx context.Context, f domain.LeadFields) (*Lead, error) {
	if !normalize.IsValidPhone(f.Phone) {
		return nil, ErrInvalidPhone
	}
	if !normalize.IsValidRegistration(f.RegistrationPlate) {
		return nil, ErrInvalidPlate
	}

	l := newLead(f)
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	metrics.LeadsCreated.Inc()
	s.log.Info("lead created", zap.String("lead_id", l.ID), zap.String("glass_type", string(l.GlassType)))
	s.publish(EventCreated, l.ID, l)
	return l, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Lead, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Lead, int64, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx, s.now().AddDate(0, 0, -7))
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	l, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.publish(EventUpdated, id, l)
	return l, nil
}

func (s *Service) UpdateNotes(ctx context.Context, id string, notes *string) (*Lead, error) {
	l, err := s.repo.UpdateNotes(ctx, id, notes)
	if err != nil {
		return nil, err
	}
	s.publish(EventUpdated, id, l)
	return l, nil
}

func (s *Service) AppendAttachment(ctx context.Context, id, path string) (*Lead, error) {
	l, err := s.repo.AppendAttachment(ctx, id, path)
	if err != nil {
		return nil, err
	}
	s.publish(EventUpdated, id, l)
	return l, nil
}

func (s *Service) RemoveAttachment(ctx context.Context, id, path string) (*Lead, error) {
	l, err := s.repo.RemoveAttachment(ctx, id, path)
	if err != nil {
		return nil, err
	}
	s.publish(EventUpdated, id, l)
	return l, nil
}

// Delete removes the lead, then its blobs. Blob failures are only logged.
func (s *Service) Delete(ctx context.Context, id string) error {
	l, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if s.blobs != nil {
		for _, path := range l.Attachments {
			if err := s.blobs.Delete(ctx, path); err != nil {
				s.log.Warn("attachment cleanup failed", zap.String("lead_id", id), zap.String("file", path), zap.Error(err))
			}
		}
	}
	s.publish(EventDeleted, id, nil)
	return nil
}

// Export writes the filtered leads as CSV and returns how many rows were written.
func (s *Service) Export(ctx context.Context, w io.Writer, f Filter) (int, error) {
	f.Limit, f.Offset = 0, 0
	leads, _, err := s.repo.List(ctx, f)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, leads, exportLocation); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return len(leads), nil
}

// ExportFilename is the download name of an export made at t.
func ExportFilename(t time.Time) string {
	return "leads_topglass_" + t.Format("2006-01-02") + ".csv"
}

// PeriodStart returns the lower created_at bound of a dashboard period:
// "today" (local midnight), "week" (7 days) or "month" (one calendar month).
// An empty period or "all" has no bound.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "", "all":
		return time.Time{}, nil
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	default:
		return time.Time{}, ErrInvalidPeriod
	}
}

func (s *Service) publish(t EventType, id string, l *Lead) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{Type: t, LeadID: id, Lead: l})
}
