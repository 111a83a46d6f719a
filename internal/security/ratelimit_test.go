package security

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 3)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("1.2.3.4"))

	// Other clients have their own bucket
	assert.True(t, rl.Allow("5.6.7.8"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.2.3.4"), "one token refilled after a second")
	assert.False(t, rl.Allow("1.2.3.4"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10, 10)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(defaultIdleTTL / 2)
	rl.Allow("recent")
	assert.Equal(t, 2, rl.Size())

	now = now.Add(defaultIdleTTL/2 + time.Second)
	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 1, rl.Size())
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remote     string
		trustProxy bool
		want       string
	}{
		{
			name:       "trusted proxy uses the hop it appended",
			headers:    map[string]string{"X-Forwarded-For": "6.6.6.6, 10.0.0.1"},
			remote:     "192.168.1.1:5000",
			trustProxy: true,
			want:       "10.0.0.1",
		},
		{
			name:       "trusted proxy falls back to real ip header",
			headers:    map[string]string{"X-Real-IP": "10.0.0.9"},
			remote:     "192.168.1.1:5000",
			trustProxy: true,
			want:       "10.0.0.9",
		},
		{
			name:    "untrusted forwarding headers are ignored",
			headers: map[string]string{"X-Forwarded-For": "6.6.6.6", "X-Real-IP": "7.7.7.7"},
			remote:  "192.168.1.1:5000",
			want:    "192.168.1.1",
		},
		{
			name:   "remote addr that is not host:port",
			remote: "unix",
			want:   "unix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r, tt.trustProxy))
		})
	}
}

func TestRateLimiter_RotatingForwardedForDoesNotEscape(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	allowed := 0
	for i := 0; i < 5; i++ {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "192.168.1.1:5000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		if rl.Allow(rl.ClientKey(r)) {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)

	rl.TrustProxy = true
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "spoofed, 10.0.0.50")
	assert.Equal(t, "10.0.0.50", rl.ClientKey(r))
}
