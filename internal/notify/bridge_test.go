package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimref/roster/internal/application"
	"github.com/swimref/roster/internal/logging"
	"github.com/swimref/roster/internal/notify"
	"github.com/swimref/roster/internal/persistence/redis"
)

func TestRedisBridgeFansOutToLocalHub(t *testing.T) {
	addr := os.Getenv("SWIMREF_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SWIMREF_TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	client, err := redis.NewClient(ctx, redis.Options{Addr: addr}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	hub := notify.NewHub(logging.Discard(), nil)
	bridge := notify.NewRedisBridge(client, "swimref-test:", "instance-a", hub, logging.Discard())
	go func() { _ = bridge.Run(ctx) }()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "u2")
	}))
	t.Cleanup(server.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.ConnectionCount("u2") == 1 }, time.Second, 10*time.Millisecond)

	// The subscription is established asynchronously; publish until a frame arrives.
	received := make(chan notify.Envelope, 1)
	go func() {
		var env notify.Envelope
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&env); err == nil {
			received <- env
		}
	}()

	d := delivery("n1", "u2", application.CategoryRSVPChange, application.DefaultPreferences())
	deadline := time.After(5 * time.Second)
	for {
		require.NoError(t, bridge.Deliver(ctx, []application.Delivery{d}))
		select {
		case env := <-received:
			assert.Equal(t, "notification", env.Event)
			return
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			t.Fatal("no fan-out message received")
		}
	}
}
