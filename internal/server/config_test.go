package server

import (
	"github.com/caarlos0/env/v6"
	"github.com/stretchr/testify/require"
	"net/http"
	"testing"
	"time"
)

func TestWithEnvConfig(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("MAX_BODY_BYTES", "512")

	var ec EnvConfig
	require.NoError(t, env.Parse(&ec))
	require.Equal(t, 10*time.Second, ec.HandlerTimeout)

	c := &config{httpServer: &http.Server{}}
	WithEnvConfig(ec).apply(c)
	require.Equal(t, "127.0.0.1:8080", c.httpServer.Addr)
	require.Equal(t, 2*time.Second, c.httpServer.ReadTimeout)
	require.Equal(t, int64(512), c.maxBodyBytes)
	require.Equal(t, 10*time.Second, c.handlerTimeout)
}

func TestOptions(t *testing.T) {
	c := &config{httpServer: &http.Server{}}
	called := 0
	for _, opt := range []Option{
		ReadTimeout(time.Second),
		MaxBodyBytes(64),
		TimeoutHandler(3 * time.Second),
		RegisterAfterShutdown(func() { called++ }),
	} {
		opt.apply(c)
	}

	require.Equal(t, time.Second, c.httpServer.ReadTimeout)
	require.Equal(t, int64(64), c.maxBodyBytes)
	require.Equal(t, 3*time.Second, c.handlerTimeout)
	require.Len(t, c.afterShutdown, 1)
	c.afterShutdown[0]()
	require.Equal(t, 1, called)
}

func TestNewServerRequiresProviders(t *testing.T) {
	_, err := NewServer(nil, nil, nil)
	require.Error(t, err)
}
