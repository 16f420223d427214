package server

import (
	"context"
	"direct-messages-api/internal/options"
	"direct-messages-api/internal/provider"
	"direct-messages-api/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"net/http"
	"testing"
	"time"
)

// blockingUsers holds List until the request context is done
type blockingUsers struct {
	provider.Users
}

func (blockingUsers) List(ctx context.Context, _ options.Options) ([]storage.User, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeoutHandler(t *testing.T) {
	logger := zap.NewNop().Sugar()
	srv, err := NewServer(logger, blockingUsers{}, provider.NewMessages(logger, nil, nil), TimeoutHandler(20*time.Millisecond))
	require.NoError(t, err)

	rr := do(t, srv.httpServer.Handler, "GET", "/api/v1/users", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	v := parse(t, rr)
	require.Equal(t, 503, v.GetInt("code"))
	require.Equal(t, "Request timed out", string(v.GetStringBytes("message")))
}

func TestTimeoutHandlerKeepsCompletedResponses(t *testing.T) {
	h := timeoutHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), time.Second)

	rr := do(t, h, "DELETE", "/api/v1/users/1", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, rr.Header().Get("Content-Type"))
}
