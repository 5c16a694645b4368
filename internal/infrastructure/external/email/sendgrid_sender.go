// Package email implements email delivery over SendGrid.
// Risk alerts, monthly absence reports and account emails all leave
// EduAlert through this package.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/edualert/edualert/internal/domain/notification"
	"github.com/edualert/edualert/pkg/circuitbreaker"
	"github.com/edualert/edualert/pkg/retry"
)

var (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// SendGridConfig contains configuration for the SendGrid sender.
type SendGridConfig struct {
	// APIKey is the SendGrid API key.
	APIKey string

	// FromEmail is the sender address shown to recipients.
	FromEmail string

	// FromName is the display name of the sender.
	FromName string

	// SubjectPrefix is prepended to every subject line.
	SubjectPrefix string

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultSendGridConfig returns sensible defaults.
func DefaultSendGridConfig(apiKey, fromEmail string) SendGridConfig {
	return SendGridConfig{
		APIKey:        apiKey,
		FromEmail:     fromEmail,
		FromName:      "EduAlert",
		SubjectPrefix: "[EduAlert] ",
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SENDER
// ══════════════════════════════════════════════════════════════════════════════

// SendGridSender delivers email notifications through the SendGrid v3 API.
// Transient failures are retried with backoff and the API is guarded by a
// circuit breaker so that a SendGrid outage does not stall the alert jobs.
type SendGridSender struct {
	config  SendGridConfig
	from    *sgmail.Email
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ notification.Sender = (*SendGridSender)(nil)

// NewSendGridSender creates a sender with the given configuration.
func NewSendGridSender(config SendGridConfig) *SendGridSender {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	logger := config.Logger
	return &SendGridSender{
		config:  config,
		from:    sgmail.NewEmail(config.FromName, config.FromEmail),
		retrier: retry.EmailRetrier(),
		breaker: circuitbreaker.EmailBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
		logger: logger,
	}
}

// Send delivers one notification. The notification's Address is used as
// the recipient; HTML content is only attached for channels that render it.
func (s *SendGridSender) Send(ctx context.Context, n *notification.Notification) notification.DeliveryResult {
	if n.Address == "" {
		return notification.NewFailureResult(notification.ChannelEmail, notification.ErrEmptyAddress, false)
	}

	message := s.prepare(n)

	var messageID string
	var permanent bool
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.breaker.Execute(ctx, func(ctx context.Context) error {
			id, sendErr := s.post(ctx, message)
			if sendErr != nil {
				if retry.IsPermanent(sendErr) {
					permanent = true
				}
				return sendErr
			}
			messageID = id
			return nil
		})
	})
	if err != nil {
		s.logger.Error("email delivery failed",
			"notification_id", n.ID.String(),
			"type", n.Type.String(),
			"error", err,
		)
		return notification.NewFailureResult(notification.ChannelEmail, err, !permanent)
	}

	s.logger.Debug("email delivered",
		"notification_id", n.ID.String(),
		"message_id", messageID,
	)
	return notification.NewSuccessResult(notification.ChannelEmail, messageID)
}

// prepare builds the SendGrid mail object from a notification.
func (s *SendGridSender) prepare(n *notification.Notification) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.config.SubjectPrefix + n.Subject
	p.AddTos(sgmail.NewEmail("", n.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", n.Body))
	if n.Channel.SupportsRichContent() {
		if html, ok := n.Metadata["html_body"]; ok && html != "" {
			m.AddContent(sgmail.NewContent("text/html", html))
		}
	}

	return m
}

// post performs one API call. Client errors are permanent; rate limits and
// server errors are retryable.
func (s *SendGridSender) post(ctx context.Context, m *sgmail.SGMailV3) (string, error) {
	req := sendgrid.GetRequest(s.config.APIKey, sendGridEndpoint, sendGridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return "", retry.Retryable(fmt.Errorf("sendgrid request: %w", err))
	}

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		return "", retry.Retryable(fmt.Errorf("sendgrid rate limited: status %d", res.StatusCode))
	case res.StatusCode >= http.StatusInternalServerError:
		return "", retry.Retryable(fmt.Errorf("sendgrid server error: status %d", res.StatusCode))
	case res.StatusCode >= http.StatusBadRequest:
		return "", retry.Permanent(fmt.Errorf("sendgrid rejected message: status %d: %s", res.StatusCode, res.Body))
	}

	messageID := res.Headers["X-Message-Id"]
	if len(messageID) > 0 {
		return messageID[0], nil
	}
	return "sg-" + strconv.FormatInt(time.Now().UnixNano(), 10), nil
}
