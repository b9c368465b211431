package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/chainlink-oracle-go/pkg/events"
	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/symbol"
)

func newStream(t *testing.T) (*events.Bus, *WebSocketServer, *websocket.Conn) {
	t.Helper()
	bus := events.NewBus(logging.NewNoopLogger())
	ws := NewWebSocketServer(":0", bus, logging.NewNoopLogger())
	ws.run()
	t.Cleanup(ws.Stop)

	srv := httptest.NewServer(ws.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return bus, ws, conn
}

// waitPong waits for a pong, which guarantees earlier client messages were handled.
func waitPong(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "ping"}))
	var msg map[string]interface{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "pong", msg["type"])
}

func readEvent(t *testing.T, conn *websocket.Conn) EventMessage {
	t.Helper()
	var msg EventMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_StreamsEvents(t *testing.T) {
	bus, ws, conn := newStream(t)
	waitPong(t, conn)
	assert.Equal(t, 1, ws.ClientCount())

	bus.Emit(events.FactoryToggled("usdc", true))

	msg := readEvent(t, conn)
	assert.Equal(t, "event", msg.Type)
	assert.Equal(t, events.KindFactoryPaused, msg.Event.Kind)
	assert.Equal(t, "usdc", msg.Event.Factory)
}

func TestWebSocket_SubscribeKinds(t *testing.T) {
	bus, _, conn := newStream(t)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "subscribe", Kinds: []string{string(events.KindOracleCreated)}}))
	waitPong(t, conn)

	bus.Emit(events.FactoryToggled("usdc", true))
	bus.Emit(events.OracleCreated("usdc", "RCN", symbol.MustPath("USDC", "ETH", "BTC", "RCN"), 18))

	msg := readEvent(t, conn)
	assert.Equal(t, events.KindOracleCreated, msg.Event.Kind)
	assert.Equal(t, []string{"USDC", "ETH", "BTC", "RCN"}, msg.Event.Path)

	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "unsubscribe", Kinds: []string{"*"}}))
	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: "subscribe", Kinds: []string{"*"}}))
	waitPong(t, conn)

	bus.Emit(events.FactoryToggled("usdc", false))
	msg = readEvent(t, conn)
	assert.Equal(t, events.KindFactoryStarted, msg.Event.Kind)
}
