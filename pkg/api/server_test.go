package api

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/smbwire/pkg/dissect"
	"github.com/marmos91/smbwire/pkg/metrics"
	_ "github.com/marmos91/smbwire/pkg/metrics/prometheus"
	"github.com/marmos91/smbwire/pkg/protocol/ntlm"
)

func negotiate(t *testing.T) []byte {
	t.Helper()
	m := ntlm.Negotiate.New()
	require.NoError(t, m.SetFlag(ntlm.FlagNTLM, true))
	require.NoError(t, m.Recompute())
	return m.Bytes()
}

func TestAPIConfig_ApplyDefaults(t *testing.T) {
	var c APIConfig
	c.ApplyDefaults()

	assert.True(t, c.IsEnabled())
	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.NotZero(t, c.MaxBodySize)

	off := false
	c.Enabled = &off
	assert.False(t, c.IsEnabled())
}

func TestRouter_Routes(t *testing.T) {
	metrics.ResetRegistry()
	t.Cleanup(metrics.ResetRegistry)

	srv := httptest.NewServer(NewRouter(APIConfig{}, dissect.New(dissect.DefaultConfig(), nil), nil))
	t.Cleanup(srv.Close)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/api/v1/layers", http.StatusOK},
		{http.MethodGet, "/api/v1/schemas", http.StatusOK},
		{http.MethodGet, "/api/v1/schemas/smb2", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusNotFound},
		{http.MethodGet, "/api/v1/dissect", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRouter_MetricsAndRequestCounting(t *testing.T) {
	metrics.ResetRegistry()
	metrics.InitRegistry()
	t.Cleanup(metrics.ResetRegistry)

	m := metrics.NewHTTPMetrics()
	require.NotNil(t, m)
	srv := httptest.NewServer(NewRouter(APIConfig{}, dissect.New(dissect.DefaultConfig(), nil), m))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/api/v1/dissect", "application/octet-stream", bytes.NewReader(negotiate(t)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `smbwire_api_requests_total{method="POST",route="/api/v1/dissect",status="200"} 1`)
}

func TestServer_ServeAndStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(APIConfig{}, dissect.New(dissect.DefaultConfig(), nil), nil)
	assert.Equal(t, 8080, s.Port())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.NoError(t, s.Stop(context.Background()))
}
