// Package ocr turns an asynchronous read-job API into a blocking OCRService.
//
// A job is submitted once and then polled at a fixed interval until it
// reaches a terminal status or the poll budget runs out. Provider specifics
// live behind ReadClient; see the azure subpackage.
package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/homenet/internal/core/domain"
	"github.com/custodia-labs/homenet/internal/core/ports/driven"
)

var _ driven.OCRService = (*Service)(nil)

// Job statuses reported by the provider.
const (
	StatusNotStarted = "notStarted"
	StatusRunning    = "running"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

// Defaults applied by NewService for zero config values.
const (
	DefaultPollInterval = time.Second
	DefaultMaxPolls     = 120
)

// Page is the recognised text of one page or image, in reading order.
type Page struct {
	Number int
	Lines  []string
}

// ReadOperation is one poll of a read job.
type ReadOperation struct {
	Status string
	Pages  []Page

	// Raw is the decoded provider payload.
	Raw map[string]any
}

// ReadClient talks to a read-job OCR provider.
type ReadClient interface {
	// Submit uploads content and returns an opaque operation reference.
	Submit(ctx context.Context, content io.Reader) (string, error)

	// GetResult fetches the current state of an operation.
	GetResult(ctx context.Context, operation string) (*ReadOperation, error)
}

// Config tunes polling and throttling.
type Config struct {
	// PollInterval is the wait before each status check.
	PollInterval time.Duration

	// MaxPolls bounds the number of status checks per job.
	MaxPolls int

	// RequestsPerSecond throttles all provider calls. Zero disables throttling.
	RequestsPerSecond float64
}

// Service implements driven.OCRService over a ReadClient.
type Service struct {
	client       ReadClient
	limiter      *rate.Limiter
	pollInterval time.Duration
	maxPolls     int
}

// NewService creates an OCR service. A nil client yields a service whose
// Available reports false and whose Recognize always fails with
// domain.ErrOCRUnavailable.
func NewService(client ReadClient, cfg Config) *Service {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Service{
		client:       client,
		limiter:      rate.NewLimiter(limit, 1),
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
	}
}

// Available reports whether a provider is configured.
func (s *Service) Available() bool {
	return s != nil && s.client != nil
}

// Recognize submits content and blocks until the job finishes.
func (s *Service) Recognize(ctx context.Context, content io.Reader) (*domain.OCRResult, error) {
	if !s.Available() {
		return nil, domain.ErrOCRUnavailable
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	operation, err := s.client.Submit(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("submit read job: %w", err)
	}

	timer := time.NewTimer(s.pollInterval)
	defer timer.Stop()

	for poll := 1; poll <= s.maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		op, err := s.client.GetResult(ctx, operation)
		if err != nil {
			return nil, fmt.Errorf("poll read job: %w", err)
		}

		switch op.Status {
		case StatusNotStarted, StatusRunning:
			timer.Reset(s.pollInterval)
		case StatusSucceeded:
			return toResult(op), nil
		default:
			return nil, &domain.OCRJobFailedError{Status: op.Status}
		}
	}

	return nil, fmt.Errorf("%w after %d polls", domain.ErrOCRTimeout, s.maxPolls)
}

func toResult(op *ReadOperation) *domain.OCRResult {
	var lines []string
	for _, page := range op.Pages {
		lines = append(lines, page.Lines...)
	}
	return &domain.OCRResult{
		Text:  strings.Join(lines, "\n"),
		Units: len(op.Pages),
		Raw:   op.Raw,
	}
}
