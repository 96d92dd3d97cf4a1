package keepalive

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorHealth(t *testing.T) {
	m := NewMonitor()
	now := time.Now()
	m.now = func() time.Time { return now }
	m.Record()

	assert.True(t, m.Healthy())

	now = now.Add(HealthThreshold + time.Second)
	assert.False(t, m.Healthy())

	m.Record()
	assert.True(t, m.Healthy())
}

func TestRootGreeting(t *testing.T) {
	srv := httptest.NewServer(Router(NewMonitor()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestKeepAliveRecordsActivity(t *testing.T) {
	m := NewMonitor()
	srv := httptest.NewServer(Router(m))
	defer srv.Close()

	before := m.Last()
	time.Sleep(time.Millisecond)

	resp, err := http.Get(srv.URL + "/keep-alive")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, m.Last().After(before))
}

func TestHealthEndpoint(t *testing.T) {
	m := NewMonitor()
	now := time.Now()
	m.now = func() time.Time { return now }
	m.Record()

	srv := httptest.NewServer(Router(m))
	defer srv.Close()

	var body struct {
		Status       string `json:"status"`
		LastActivity int64  `json:"last_activity"`
	}

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "active", body.Status)
	assert.Equal(t, m.Last().Unix(), body.LastActivity)

	now = now.Add(HealthThreshold + time.Minute)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "sleeping", body.Status)
}
