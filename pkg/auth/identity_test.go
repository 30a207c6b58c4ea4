package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	_ "liyu1981.xyz/iot-gateway-service/pkg/testing"
)

const ocsOK = `<?xml version="1.0"?>
<ocs>
 <meta>
  <status>ok</status>
  <statuscode>100</statuscode>
  <message>OK</message>
 </meta>
 <data><id>alice</id></data>
</ocs>`

const ocsFailure = `<?xml version="1.0"?>
<ocs>
 <meta>
  <status>failure</status>
  <statuscode>997</statuscode>
 </meta>
 <data/>
</ocs>`

func newOCSServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "true", r.Header.Get("OCS-APIRequest"))
		user, pass, _ := r.BasicAuth()
		switch {
		case r.URL.Path == "/users/down":
			w.WriteHeader(http.StatusServiceUnavailable)
		case r.URL.Path == "/users/"+user && user == "alice" && pass == "secret":
			_, _ = w.Write([]byte(ocsOK))
		case user == "bob":
			_, _ = w.Write([]byte(ocsFailure))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
}

func TestVerify(t *testing.T) {
	common.SetTestLoggerNop()

	var calls atomic.Int32
	server := newOCSServer(t, &calls)
	defer server.Close()

	v := NewNextcloudVerifier(VerifierOptions{Endpoint: server.URL + "/users/", Timeout: time.Second})
	assert.NoError(t, v.Verify(context.Background(), "alice", "secret"))
}

func TestVerify_EdgeCases(t *testing.T) {
	common.SetTestLoggerNop()

	var calls atomic.Int32
	server := newOCSServer(t, &calls)
	defer server.Close()

	v := NewNextcloudVerifier(VerifierOptions{
		Endpoint:    server.URL + "/users/",
		Timeout:     time.Second,
		MaxFailures: 2,
		OpenTimeout: time.Minute,
	})

	{
		err := v.Verify(context.Background(), "alice", "wrong")
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, apierr.From(err).Code)
	}

	{
		// 200 but the OCS status is not ok
		err := v.Verify(context.Background(), "bob", "whatever")
		assert.Equal(t, http.StatusUnauthorized, apierr.From(err).Code)
	}

	{
		before := calls.Load()
		err := v.Verify(context.Background(), "", "secret")
		assert.Equal(t, http.StatusUnauthorized, apierr.From(err).Code)
		assert.Equal(t, before, calls.Load(), "empty credentials never reach the provider")
	}

	{
		// refused credentials must not trip the breaker
		for range 5 {
			_ = v.Verify(context.Background(), "alice", "wrong")
		}
		assert.NoError(t, v.Verify(context.Background(), "alice", "secret"))
	}

	{
		for range 2 {
			err := v.Verify(context.Background(), "down", "pw")
			assert.True(t, apierr.IsUpstream(err))
		}
		before := calls.Load()
		err := v.Verify(context.Background(), "alice", "secret")
		assert.True(t, apierr.IsUpstream(err), "open breaker fails fast")
		assert.Equal(t, before, calls.Load())
	}
}

func TestVerifierOptionsFrom(t *testing.T) {
	common.SetTestLoggerNop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			_, _ = w.Write([]byte(ocsOK))
		}
	}))
	defer server.Close()

	cfg := &common.Config{
		UserEndpoint:    server.URL + "/users/",
		UpstreamTimeout: 50 * time.Millisecond,
		BreakerFailures: 3,
	}
	opts := VerifierOptionsFrom(cfg)
	assert.Equal(t, VerifierOptions{Endpoint: server.URL + "/users/", Timeout: 50 * time.Millisecond, MaxFailures: 3}, opts)

	started := time.Now()
	err := NewNextcloudVerifier(opts).Verify(context.Background(), "alice", "secret")
	assert.True(t, apierr.IsUpstream(err))
	assert.Less(t, time.Since(started), time.Second)
}
