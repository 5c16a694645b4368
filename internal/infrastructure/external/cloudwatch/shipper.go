// Package cloudwatch ships request and audit logs to AWS CloudWatch Logs.
// Entries are buffered in memory and flushed in batches; log streams are
// rotated monthly so retention policies can expire whole months at once.
package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/edualert/edualert/internal/domain/shared"
	"github.com/edualert/edualert/pkg/circuitbreaker"
	"github.com/edualert/edualert/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ShipperConfig contains configuration for the log shipper.
type ShipperConfig struct {
	// Region is the AWS region of the log group.
	Region string

	// LogGroup is the CloudWatch Logs group name.
	LogGroup string

	// StreamPrefix is prepended to the monthly stream name.
	StreamPrefix string

	// FlushInterval controls how often the buffer is flushed.
	FlushInterval time.Duration

	// MaxBatchSize caps the number of events per PutLogEvents call.
	MaxBatchSize int

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultShipperConfig returns sensible defaults.
func DefaultShipperConfig(region, logGroup string) ShipperConfig {
	return ShipperConfig{
		Region:        region,
		LogGroup:      logGroup,
		StreamPrefix:  "requests",
		FlushInterval: 30 * time.Second,
		MaxBatchSize:  500,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one shippable log record.
type Entry struct {
	Timestamp time.Time         `json:"timestamp"`
	Method    string            `json:"method,omitempty"`
	Path      string            `json:"path,omitempty"`
	Status    int               `json:"status,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Message   string            `json:"message,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// SHIPPER
// ══════════════════════════════════════════════════════════════════════════════

// Shipper buffers entries and ships them to CloudWatch Logs. It is safe
// for concurrent use. Lost batches are dropped after retries are
// exhausted; request logging must never block the application.
type Shipper struct {
	config  ShipperConfig
	client  *cloudwatchlogs.Client
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger

	mu      sync.Mutex
	buffer  []Entry
	streams map[string]bool
}

// NewShipper creates a shipper and resolves AWS credentials from the
// default chain.
func NewShipper(ctx context.Context, config ShipperConfig) (*Shipper, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 30 * time.Second
	}
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = 500
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logger := config.Logger
	return &Shipper{
		config:  config,
		client:  cloudwatchlogs.NewFromConfig(awsCfg),
		retrier: retry.CloudWatchRetrier(),
		breaker: circuitbreaker.CloudWatchBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
		logger:  logger,
		streams: make(map[string]bool),
	}, nil
}

// Log buffers one entry for the next flush.
func (s *Shipper) Log(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	s.buffer = append(s.buffer, entry)
	s.mu.Unlock()
}

// Run flushes the buffer on a ticker until the context is cancelled.
// A final flush drains whatever is left.
func (s *Shipper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.Flush(flushCtx); err != nil {
				s.logger.Warn("final log flush failed", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.Warn("log flush failed", "error", err)
			}
		}
	}
}

// Flush ships all buffered entries.
func (s *Shipper) Flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return nil
	}
	batch := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	for start := 0; start < len(batch); start += s.config.MaxBatchSize {
		end := start + s.config.MaxBatchSize
		if end > len(batch) {
			end = len(batch)
		}
		if err := s.ship(ctx, batch[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// ship sends one batch, grouped by monthly stream.
func (s *Shipper) ship(ctx context.Context, batch []Entry) error {
	byStream := make(map[string][]types.InputLogEvent)
	for _, entry := range batch {
		data, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		stream := s.streamName(entry.Timestamp)
		byStream[stream] = append(byStream[stream], types.InputLogEvent{
			Message:   aws.String(string(data)),
			Timestamp: aws.Int64(entry.Timestamp.UnixMilli()),
		})
	}

	for stream, events := range byStream {
		if err := s.putEvents(ctx, stream, events); err != nil {
			return err
		}
	}
	return nil
}

// streamName returns the monthly stream for a timestamp, for example
// "requests/09-2026".
func (s *Shipper) streamName(t time.Time) string {
	return fmt.Sprintf("%s/%s", s.config.StreamPrefix, t.UTC().Format("01-2006"))
}

func (s *Shipper) putEvents(ctx context.Context, stream string, events []types.InputLogEvent) error {
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.breaker.Execute(ctx, func(ctx context.Context) error {
			if err := s.ensureStream(ctx, stream); err != nil {
				return retry.Retryable(err)
			}
			_, err := s.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
				LogGroupName:  aws.String(s.config.LogGroup),
				LogStreamName: aws.String(stream),
				LogEvents:     events,
			})
			if err != nil {
				return retry.Retryable(fmt.Errorf("put log events: %w", err))
			}
			return nil
		})
	})
	if err != nil {
		s.logger.Error("dropping log batch",
			"stream", stream,
			"events", len(events),
			"error", err,
		)
		return fmt.Errorf("%w: %v", shared.ErrCloudWatchUnavailable, err)
	}
	return nil
}

// ensureStream creates the log group and stream once per process.
func (s *Shipper) ensureStream(ctx context.Context, stream string) error {
	s.mu.Lock()
	exists := s.streams[stream]
	s.mu.Unlock()
	if exists {
		return nil
	}

	_, err := s.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(s.config.LogGroup),
	})
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("create log group: %w", err)
	}

	_, err = s.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(s.config.LogGroup),
		LogStreamName: aws.String(stream),
	})
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("create log stream: %w", err)
	}

	s.mu.Lock()
	s.streams[stream] = true
	s.mu.Unlock()
	return nil
}

func isAlreadyExists(err error) bool {
	var alreadyExists *types.ResourceAlreadyExistsException
	return errors.As(err, &alreadyExists)
}
