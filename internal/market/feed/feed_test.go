package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

func wsServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestFeedParsesTradeMessages(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"p":"61234.50","T":1700000000000}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"p":"61235.00","T":1700000001000}`))
		time.Sleep(100 * time.Millisecond)
	})

	cfg := DefaultConfig()
	cfg.URL = wsURL(srv)
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	tick := <-c.Ticks()
	assert.Equal(t, 61234.5, tick.Price)
	assert.EqualValues(t, 1700000000, tick.Time)

	tick = <-c.Ticks()
	assert.Equal(t, 61235.0, tick.Price)
}

func TestFeedReconnectsAfterDrop(t *testing.T) {
	var serves int
	srv := wsServer(t, func(conn *websocket.Conn) {
		serves++
		conn.WriteMessage(websocket.TextMessage, []byte(`{"p":"100","T":1000}`))
		// drop the connection immediately to force a reconnect
	})

	cfg := DefaultConfig()
	cfg.URL = wsURL(srv)
	cfg.ReconnectBase = 5 * time.Millisecond
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	// ticks from at least two distinct connections
	for i := 0; i < 2; i++ {
		select {
		case tick := <-c.Ticks():
			assert.Equal(t, 100.0, tick.Price)
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d never arrived", i)
		}
	}
}

func TestCloseClosesTickChannel(t *testing.T) {
	srv := wsServer(t, func(conn *websocket.Conn) {
		time.Sleep(time.Second)
	})

	cfg := DefaultConfig()
	cfg.URL = wsURL(srv)
	c, err := New(cfg)
	require.NoError(t, err)

	c.Close()
	select {
	case _, ok := <-c.Ticks():
		assert.False(t, ok, "tick channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("tick channel never closed")
	}
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
