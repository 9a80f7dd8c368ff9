package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"topglass/internal/pkg/logger"
)

// Sender delivers a rendered email and returns the provider message id.
type Sender interface {
	Name() string
	Send(ctx context.Context, e Email) (string, error)
}

// SESService is the part of the SES client used here.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESSender struct {
	client SESService
}

func NewSESSender(client SESService) *SESSender {
	return &SESSender{client: client}
}

// NewSESSenderFromRegion loads the default AWS credential chain.
func NewSESSenderFromRegion(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESSender(ses.NewFromConfig(cfg)), nil
}

func (s *SESSender) Name() string { return "ses" }

func (s *SESSender) Send(ctx context.Context, e Email) (string, error) {
	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: e.To},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(e.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(e.HTML), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(e.Text), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(e.From),
	})
	if err != nil {
		return "", fmt.Errorf("ses send: %w", err)
	}
	if out == nil || out.MessageId == nil {
		return "", errors.New("ses send: empty message id")
	}
	return aws.ToString(out.MessageId), nil
}

// LogSender writes emails to the log instead of sending them. Used in
// development and when no provider is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: logger.OrNop(log)}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, e Email) (string, error) {
	id := "log-" + uuid.NewString()
	s.log.Info("email",
		zap.String("message_id", id),
		zap.String("from", e.From),
		zap.String("to", strings.Join(e.To, ",")),
		zap.String("subject", e.Subject),
		zap.String("text", e.Text),
	)
	return id, nil
}
