// Package sms implements SMS delivery through an HTTP gateway.
// Urgent risk alerts go out as text messages to parents who have a
// phone number but no verified email address.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/edualert/edualert/internal/domain/notification"
	"github.com/edualert/edualert/pkg/circuitbreaker"
	"github.com/edualert/edualert/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// GatewayConfig contains configuration for the SMS gateway client.
type GatewayConfig struct {
	// BaseURL is the gateway API base URL.
	BaseURL string

	// APIKey authenticates requests against the gateway.
	APIKey string

	// SenderID is the alphanumeric sender shown on the recipient's phone.
	SenderID string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultGatewayConfig returns sensible defaults.
func DefaultGatewayConfig(baseURL, apiKey string) GatewayConfig {
	return GatewayConfig{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		SenderID: "EduAlert",
		Timeout:  15 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SENDER
// ══════════════════════════════════════════════════════════════════════════════

// GatewaySender delivers SMS notifications through the configured gateway.
// Messages longer than the channel limit are truncated before sending.
type GatewaySender struct {
	config     GatewayConfig
	httpClient *http.Client
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

var _ notification.Sender = (*GatewaySender)(nil)

// NewGatewaySender creates a sender with the given configuration.
func NewGatewaySender(config GatewayConfig) *GatewaySender {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	logger := config.Logger
	return &GatewaySender{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		retrier: retry.EmailRetrier(),
		breaker: circuitbreaker.New("sms-gateway",
			circuitbreaker.WithFailureThreshold(5),
			circuitbreaker.WithTimeout(60*time.Second),
			circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
				logger.Warn("circuit breaker state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			}),
		),
		logger: logger,
	}
}

type sendRequest struct {
	To       string `json:"to"`
	From     string `json:"from"`
	Body     string `json:"body"`
	Priority string `json:"priority,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Send delivers one notification over the gateway.
func (s *GatewaySender) Send(ctx context.Context, n *notification.Notification) notification.DeliveryResult {
	if n.Address == "" {
		return notification.NewFailureResult(notification.ChannelSMS, notification.ErrEmptyAddress, false)
	}

	body := n.Body
	if limit := n.Channel.MaxBodyLength(); limit > 0 && len(body) > limit {
		body = body[:limit]
	}

	payload := sendRequest{
		To:       n.Address,
		From:     s.config.SenderID,
		Body:     body,
		Priority: n.Priority.String(),
	}

	var messageID string
	var permanent bool
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.breaker.Execute(ctx, func(ctx context.Context) error {
			id, sendErr := s.post(ctx, payload)
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
		s.logger.Error("sms delivery failed",
			"notification_id", n.ID.String(),
			"type", n.Type.String(),
			"error", err,
		)
		return notification.NewFailureResult(notification.ChannelSMS, err, !permanent)
	}

	s.logger.Debug("sms delivered",
		"notification_id", n.ID.String(),
		"message_id", messageID,
	)
	return notification.NewSuccessResult(notification.ChannelSMS, messageID)
}

// post performs one gateway call.
func (s *GatewaySender) post(ctx context.Context, payload sendRequest) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("marshal sms payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", retry.Retryable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retry.Retryable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", retry.Retryable(fmt.Errorf("gateway rate limited: status %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", retry.Retryable(fmt.Errorf("gateway server error: status %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		return "", retry.Permanent(fmt.Errorf("gateway rejected message: status %d: %s", resp.StatusCode, string(respBody)))
	}

	var result sendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", retry.Permanent(fmt.Errorf("parse gateway response: %w", err))
	}
	if result.Error != "" {
		return "", retry.Permanent(fmt.Errorf("gateway error: %s", result.Error))
	}

	return result.MessageID, nil
}
