package notification

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"topglass/internal/domain"
	"topglass/internal/pkg/logger"
	"topglass/internal/pkg/metrics"
)

type Config struct {
	From     string
	To       []string
	AdminURL string
}

type Service struct {
	sender Sender
	repo   DeliveryRepository
	cfg    Config
	log    *zap.Logger
	now    func() time.Time
}

// NewService builds the operator notifier. repo may be nil, in which case
// deliveries are not recorded.
func NewService(sender Sender, repo DeliveryRepository, cfg Config, log *zap.Logger) *Service {
	return &Service{sender: sender, repo: repo, cfg: cfg, log: logger.OrNop(log), now: time.Now}
}

// Notify emails the operators about a new lead and returns the message id.
// The summary is expected to be validated by the caller.
func (s *Service) Notify(ctx context.Context, summary domain.LeadSummary) (string, error) {
	if len(s.cfg.To) == 0 {
		return "", ErrNoRecipients
	}

	html, text, err := Render(summary, s.cfg.AdminURL)
	if err != nil {
		return "", err
	}
	email := Email{
		From:    s.cfg.From,
		To:      s.cfg.To,
		Subject: Subject(summary),
		HTML:    html,
		Text:    text,
	}

	id, err := s.sender.Send(ctx, email)
	metrics.Notifications.WithLabelValues(metrics.Outcome(err)).Inc()
	s.record(ctx, summary.LeadID, email, id, err)
	if err != nil {
		s.log.Error("lead notification failed", zap.String("lead_id", summary.LeadID), zap.String("provider", s.sender.Name()), zap.Error(err))
		return "", err
	}

	s.log.Info("lead notification sent", zap.String("lead_id", summary.LeadID), zap.String("message_id", id))
	return id, nil
}

// Deliveries returns the recorded attempts for a lead, newest first.
func (s *Service) Deliveries(ctx context.Context, leadID string) ([]Delivery, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListByLead(ctx, leadID)
}

func (s *Service) record(ctx context.Context, leadID string, e Email, id string, sendErr error) {
	if s.repo == nil {
		return
	}
	d := &Delivery{
		LeadID:     leadID,
		Provider:   s.sender.Name(),
		Recipients: strings.Join(e.To, ","),
		Subject:    e.Subject,
		Status:     StatusSent,
		CreatedAt:  s.now(),
	}
	if sendErr != nil {
		msg := sendErr.Error()
		d.Status, d.Error = StatusFailed, &msg
	} else {
		d.MessageID = &id
	}
	if err := s.repo.Create(ctx, d); err != nil {
		s.log.Warn("delivery record failed", zap.String("lead_id", leadID), zap.Error(err))
	}
}

