package source

import (
	"context"
	"errors"

	"github.com/jomei/notionapi"

	"github.com/sells-group/enquiry-cli/internal/model"
	"github.com/sells-group/enquiry-cli/internal/resilience"
)

// ResilientSource retries transient load failures and stops calling a
// source that keeps failing until its breaker resets.
type ResilientSource struct {
	src     Source
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewResilientSource wraps src. Zero configs use the resilience defaults.
func NewResilientSource(src Source, retry resilience.RetryConfig, breaker resilience.BreakerConfig) *ResilientSource {
	if retry.ShouldRetry == nil {
		retry.ShouldRetry = Retryable
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(src.Name())
	}
	if breaker.Source == "" {
		breaker.Source = src.Name()
	}
	return &ResilientSource{
		src:     src,
		retry:   retry,
		breaker: resilience.NewCircuitBreaker(breaker),
	}
}

// Name returns the wrapped source's name.
func (s *ResilientSource) Name() string {
	return s.src.Name()
}

// Load loads the wrapped source through the breaker, retrying transient
// failures.
func (s *ResilientSource) Load(ctx context.Context) (*model.Table, error) {
	return resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (*model.Table, error) {
		return resilience.DoVal(ctx, s.retry, s.src.Load)
	})
}

// Retryable reports whether a load error is worth retrying: Notion API
// errors with a transient status, and anything resilience.IsTransient
// accepts.
func Retryable(err error) bool {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.Status)
	}
	return resilience.IsTransient(err)
}
