package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/mmwave.go/pkg/radar"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	reading := &radar.Reading{
		Target:           radar.MovingTarget,
		MovingDistanceMM: 300,
		MovingPower:      55,
		Mode:             radar.ModeNormal,
		Time:             time.Now(),
	}
	require.NoError(t, hub.Broadcast(reading))

	var msg string
	require.NoError(t, websocket.Message.Receive(conn, &msg))
	var got radar.Reading
	require.NoError(t, json.Unmarshal([]byte(msg), &got))
	require.Equal(t, radar.MovingTarget, got.Target)
	require.Equal(t, uint16(300), got.MovingDistanceMM)
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Close())
	require.Zero(t, hub.ClientCount())
	// Broadcasting into an empty hub is harmless.
	require.NoError(t, hub.Broadcast(&radar.Reading{}))
}
