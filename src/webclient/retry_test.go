package webclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		attempts  int
		wantCalls int32
		wantCode  int
		wantErr   bool
	}{
		{name: "first success", statuses: []int{200}, attempts: 3, wantCalls: 1, wantCode: 200},
		{name: "server error then success", statuses: []int{502, 200}, attempts: 3, wantCalls: 2, wantCode: 200},
		{name: "rate limited then success", statuses: []int{429, 429, 200}, attempts: 3, wantCalls: 3, wantCode: 200},
		{name: "client error not retried", statuses: []int{400, 200}, attempts: 3, wantCalls: 1, wantCode: 400, wantErr: true},
		{name: "exhausted", statuses: []int{500, 500, 500}, attempts: 3, wantCalls: 3, wantCode: 500, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			status, _, err := DoWithRetry(context.Background(), tt.attempts, time.Millisecond, func() (int, []byte, error) {
				n := atomic.AddInt32(&calls, 1)
				code := tt.statuses[n-1]
				if code != http.StatusOK {
					return code, nil, errors.New(http.StatusText(code))
				}
				return code, []byte("ok"), nil
			})
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			assert.Equal(t, tt.wantCode, status)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDoWithRetryIfRateLimitedOnly(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int32
		wantCode  int
	}{
		{name: "rate limited then success", statuses: []int{429, 200}, wantCalls: 2, wantCode: 200},
		{name: "server error not retried", statuses: []int{502, 200}, wantCalls: 1, wantCode: 502},
		{name: "transport error not retried", statuses: []int{0, 200}, wantCalls: 1, wantCode: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			status, _, _ := DoWithRetryIf(context.Background(), 3, time.Millisecond, RateLimited, func() (int, []byte, error) {
				n := atomic.AddInt32(&calls, 1)
				code := tt.statuses[n-1]
				if code != http.StatusOK {
					return code, nil, errors.New("failed")
				}
				return code, []byte("ok"), nil
			})
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			assert.Equal(t, tt.wantCode, status)
		})
	}
}

func TestDoWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	_, _, err := DoWithRetry(ctx, 5, time.Hour, func() (int, []byte, error) {
		atomic.AddInt32(&calls, 1)
		cancel()
		return 503, nil, errors.New("unavailable")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls)
}

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"x":1}`))
	}))
	defer srv.Close()

	status, body, err := Send(context.Background(), NewDefault(0), http.MethodPost, srv.URL, map[string]string{"Authorization": "Bearer k"}, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, status)
	assert.JSONEq(t, `{"x":1}`, string(body))
}
