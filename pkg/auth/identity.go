package auth

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/metrics"
)

const (
	identityBreakerName = "identity"

	MsgUnauthorized = "Unauthorized Access"
)

// IdentityVerifier checks a username and password pair against the identity
// provider. It returns nil when the provider accepts the pair.
type IdentityVerifier interface {
	Verify(ctx context.Context, username, password string) error
}

// ocsResponse is the part of an OCS user lookup we look at.
//
//	<ocs><meta><status>ok</status>...</meta><data>...</data></ocs>
type ocsResponse struct {
	XMLName xml.Name `xml:"ocs"`
	Meta    struct {
		Status     string `xml:"status"`
		StatusCode int    `xml:"statuscode"`
	} `xml:"meta"`
}

type errUpstreamStatus struct {
	code int
}

func (e *errUpstreamStatus) Error() string {
	return fmt.Sprintf("identity provider answered %d", e.code)
}

type NextcloudVerifier struct {
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker[bool]
}

type VerifierOptions struct {
	Endpoint    string
	Timeout     time.Duration
	MaxFailures int
	OpenTimeout time.Duration
}

// VerifierOptionsFrom applies the upstream timeout and breaker settings of
// cfg, the same ones the storage backend uses.
func VerifierOptionsFrom(cfg *common.Config) VerifierOptions {
	return VerifierOptions{
		Endpoint:    cfg.UserEndpoint,
		Timeout:     cfg.UpstreamTimeout,
		MaxFailures: cfg.BreakerFailures,
	}
}

func NewNextcloudVerifier(opts VerifierOptions) *NextcloudVerifier {
	logger := common.GetLoggerWith(common.LoggerNameAuth)

	maxFailures := opts.MaxFailures
	if maxFailures < 1 {
		maxFailures = 5
	}
	openTimeout := opts.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        identityBreakerName,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
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

	return &NextcloudVerifier{
		endpoint: opts.Endpoint,
		client:   &http.Client{Timeout: opts.Timeout},
		cb:       cb,
	}
}

func (v *NextcloudVerifier) Verify(ctx context.Context, username, password string) error {
	logger := common.GetLoggerWith(common.LoggerNameAuth)

	if username == "" || password == "" {
		metrics.IdentityVerifications.WithLabelValues("refused").Inc()
		return apierr.NewAuthError(MsgUnauthorized, nil)
	}

	ok, err := v.cb.Execute(func() (bool, error) {
		return v.lookup(ctx, username, password)
	})
	if err != nil {
		metrics.IdentityVerifications.WithLabelValues("error").Inc()
		logger.Error("Identity provider lookup failed", zap.String("username", username), zap.Error(err))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return apierr.NewUpstreamError("Identity provider unavailable", err)
		}
		return apierr.NewUpstreamError("Identity provider unreachable", err)
	}
	if !ok {
		metrics.IdentityVerifications.WithLabelValues("refused").Inc()
		logger.Info("Identity refused", zap.String("username", username))
		return apierr.NewAuthError(MsgUnauthorized, nil)
	}

	metrics.IdentityVerifications.WithLabelValues("accepted").Inc()
	logger.Info("Identity verified", zap.String("username", username))
	return nil
}

// lookup only returns an error when the provider itself misbehaves, so a
// wrong password never trips the breaker.
func (v *NextcloudVerifier) lookup(ctx context.Context, username, password string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint+username, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("OCS-APIRequest", "true")
	req.SetBasicAuth(username, password)

	resp, err := v.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return false, &errUpstreamStatus{code: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, err
	}
	var parsed ocsResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return false, nil
	}
	return parsed.Meta.Status == "ok", nil
}
