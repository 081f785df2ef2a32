package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameport/arena/store"
)

func newHubServer(t *testing.T, path string) (*store.Store, *httptest.Server) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dataStore := store.New(store.NewMemoryStore(), logger)
	hub := NewHub(dataStore, logger)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		assert.NoError(t, hub.Join(r.Context(), path, conn))
	}))
	t.Cleanup(server.Close)
	return dataStore, server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestJoinReplaysCurrentSnapshot(t *testing.T) {
	dataStore, server := newHubServer(t, "tournaments/t1")
	require.NoError(t, dataStore.Ref("tournaments/t1").Write(context.Background(), map[string]int{"v": 1}))

	conn := dial(t, server)
	msg := readMessage(t, conn)

	assert.Equal(t, TypeValue, msg.Type)
	assert.Equal(t, "tournaments/t1", msg.Path)
	assert.JSONEq(t, `{"v":1}`, string(msg.Payload))
}

func TestJoinAbsentPathReplaysNull(t *testing.T) {
	_, server := newHubServer(t, "tournaments/ghost")

	conn := dial(t, server)
	msg := readMessage(t, conn)

	assert.Equal(t, "null", string(msg.Payload))
}

func TestWritesBroadcastToAllClients(t *testing.T) {
	dataStore, server := newHubServer(t, "tournaments/t1")
	require.NoError(t, dataStore.Ref("tournaments/t1").Write(context.Background(), map[string]int{"v": 1}))

	first := dial(t, server)
	second := dial(t, server)
	readMessage(t, first)
	readMessage(t, second)

	require.NoError(t, dataStore.Ref("tournaments/t1").Write(context.Background(), map[string]int{"v": 2}))

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.JSONEq(t, `{"v":2}`, string(msg.Payload))
	}
}

func TestSecondClientGetsSnapshotWithoutNewSubscription(t *testing.T) {
	dataStore, server := newHubServer(t, "tournaments/t1")
	require.NoError(t, dataStore.Ref("tournaments/t1").Write(context.Background(), map[string]int{"v": 7}))

	first := dial(t, server)
	readMessage(t, first)

	// A later client must see the current value immediately, not wait for
	// the next write.
	second := dial(t, server)
	msg := readMessage(t, second)
	assert.JSONEq(t, `{"v":7}`, string(msg.Payload))
}
