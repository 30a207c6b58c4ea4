// Package storage forwards uploaded file content to the Nextcloud WebDAV
// endpoint.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/metrics"
)

const breakerName = "webdav"

type PutRequest struct {
	Endpoint      string
	User          string
	Password      string
	Body          io.Reader
	ContentLength int64
}

type PutResult struct {
	StatusCode int
	// ETag is the entity tag of the stored file with the surrounding quotes
	// removed, empty when the backend sent none.
	ETag string
}

// StatusError is returned when the backend answered with a non 2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storage backend answered %d", e.StatusCode)
}

type Options struct {
	Timeout     time.Duration
	MaxFailures int
	// OpenTimeout is how long the breaker stays open before letting a
	// probe request through.
	OpenTimeout time.Duration
	Client      *http.Client
}

type WebDAV struct {
	client *http.Client
	cb     *gobreaker.CircuitBreaker[*PutResult]
}

func NewWebDAV(opts Options) *WebDAV {
	logger := common.GetLoggerWith(common.LoggerNameStorage)

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	maxFailures := opts.MaxFailures
	if maxFailures < 1 {
		maxFailures = 5
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*PutResult](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		// Only transport failures and 5xx answers say anything about the
		// backend health. A 4xx is the client's problem.
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.RecordBreakerTransition(name, from, to)
		},
	})

	return &WebDAV{client: client, cb: cb}
}

// Put streams req.Body to req.Endpoint with basic auth.
func (w *WebDAV) Put(ctx context.Context, req PutRequest) (*PutResult, error) {
	logger := common.GetLoggerWith(common.LoggerNameStorage)

	result, err := w.cb.Execute(func() (*PutResult, error) {
		return w.put(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.Warn("Storage request rejected by circuit breaker", zap.String("endpoint", req.Endpoint))
			return nil, apierr.NewUpstreamError("Storage backend unavailable", err)
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			logger.Warn("Storage backend refused file", zap.Int("status", statusErr.StatusCode))
			return result, apierr.NewUpstreamError(statusErr.Error(), err)
		}
		logger.Error("Storage request failed", zap.Error(err))
		return nil, apierr.NewUpstreamError("Storage backend unreachable", err)
	}

	logger.Info("Stored file", zap.String("endpoint", req.Endpoint), zap.Int("status", result.StatusCode))
	return result, nil
}

func (w *WebDAV) put(ctx context.Context, req PutRequest) (*PutResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, req.Endpoint, req.Body)
	if err != nil {
		return nil, err
	}
	if req.ContentLength > 0 {
		httpReq.ContentLength = req.ContentLength
	}
	httpReq.SetBasicAuth(req.User, req.Password)

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	result := &PutResult{
		StatusCode: resp.StatusCode,
		ETag:       strings.Trim(resp.Header.Get("ETag"), `"`),
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &StatusError{StatusCode: resp.StatusCode}
	}
	return result, nil
}

func (w *WebDAV) State() gobreaker.State {
	return w.cb.State()
}
