package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameup/gameup-web/config"
	"github.com/gameup/gameup-web/internal/testutil"
)

func TestNewHTTPServer_RequiresAuth(t *testing.T) {
	_, err := NewHTTPServer(HTTPServerConfig{})
	assert.Error(t, err)
}

func TestServe_GracefulShutdown(t *testing.T) {
	client, _ := testutil.SetupMiniRedis(t)
	comps, err := BuildAuth(context.Background(), AuthConfig{
		Auth:        mockAuthConfig(),
		RedisClient: client,
		Logger:      discardLogger(),
	})
	require.NoError(t, err)

	srv, err := NewHTTPServer(HTTPServerConfig{
		HTTP:       config.HTTPConfig{Addr: "127.0.0.1:0", ReadTimeout: time.Second, WriteTimeout: time.Second},
		Auth:       comps,
		TemplateFS: os.DirFS("../../web/templates"),
		Logger:     discardLogger(),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeConfig{Server: srv, Listener: ln, ShutdownTimeout: time.Second, Logger: discardLogger()})
	}()

	require.Eventually(t, func() bool {
		resp, getErr := http.Get("http://" + ln.Addr().String() + "/healthz")
		if getErr != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = Serve(context.Background(), ServeConfig{
		Server: &http.Server{Addr: ln.Addr().String()},
		Logger: discardLogger(),
	})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel(" Warning ").String())
	assert.Equal(t, "INFO", parseLevel("").String())
}

func TestBuildMetrics(t *testing.T) {
	assert.Nil(t, BuildMetrics(context.Background(), config.ObservabilityConfig{}, discardLogger()))
	assert.Nil(t, BuildMetrics(context.Background(), config.ObservabilityConfig{MetricsEnabled: true, StatsdAddress: "bad address"}, discardLogger()))

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client := BuildMetrics(context.Background(), config.ObservabilityConfig{
		MetricsEnabled: true,
		StatsdAddress:  pc.LocalAddr().String(),
		Prefix:         "gameup",
	}, discardLogger())
	require.NotNil(t, client)
	assert.NoError(t, client.Close())
}
