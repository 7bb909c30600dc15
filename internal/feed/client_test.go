package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bundle-console/internal/models"

	"github.com/gorilla/websocket"
)

func TestSubscribeAndDispatch(t *testing.T) {
	c := NewClient(models.FeedConfig{URL: "ws://unused"})

	var got []string
	unsub := c.Subscribe(models.EventNewOrder, func(event string, payload json.RawMessage) {
		got = append(got, event+":"+string(payload))
	})

	c.dispatch(models.EventNewOrder, json.RawMessage(`{"id":"o1"}`))
	c.dispatch(models.EventNewTopup, json.RawMessage(`{}`)) // no subscriber

	if len(got) != 1 || got[0] != `new-order:{"id":"o1"}` {
		t.Errorf("got = %v", got)
	}

	unsub()
	c.dispatch(models.EventNewOrder, json.RawMessage(`{}`))
	if len(got) != 1 {
		t.Error("unsubscribed handler was still invoked")
	}
}

func TestSubscribeAllCoversEveryEvent(t *testing.T) {
	c := NewClient(models.FeedConfig{URL: "ws://unused"})

	var got []string
	unsub := c.SubscribeAll(func(event string, _ json.RawMessage) {
		got = append(got, event)
	})

	for _, event := range models.FeedEvents() {
		c.dispatch(event, nil)
	}
	if len(got) != len(models.FeedEvents()) {
		t.Errorf("dispatched to %d handlers, want %d", len(got), len(models.FeedEvents()))
	}

	unsub()
	got = nil
	c.dispatch(models.EventNewOrder, nil)
	if len(got) != 0 {
		t.Error("handlers still registered after SubscribeAll unsubscribe")
	}
}

func TestDispatchSurvivesPanickingHandler(t *testing.T) {
	c := NewClient(models.FeedConfig{URL: "ws://unused"})

	called := false
	c.Subscribe(models.EventNewOrder, func(string, json.RawMessage) {
		panic("boom")
	})
	c.Subscribe(models.EventNewOrder, func(string, json.RawMessage) {
		called = true
	})

	c.dispatch(models.EventNewOrder, nil)
	if !called {
		t.Error("a panicking handler must not stop the others")
	}
}

func TestCloseAfterFailedConnect(t *testing.T) {
	c := NewClient(models.FeedConfig{
		URL:              "ws://127.0.0.1:1", // nothing listens here
		HandshakeTimeout: 100 * time.Millisecond,
	})

	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("Connect to a dead endpoint should fail")
	}

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked after a failed Connect")
	}
}

func TestConnectRegistersAndReceives(t *testing.T) {
	upgrader := websocket.Upgrader{}
	registered := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var reg map[string]string
		if err := conn.ReadJSON(&reg); err != nil {
			t.Errorf("read register: %v", err)
			return
		}
		registered <- reg["userId"]

		_ = conn.WriteJSON(models.FeedEnvelope{
			Event: models.EventNewOrder,
			Data:  json.RawMessage(`{"id":"o1"}`),
		})

		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	c := NewClient(models.FeedConfig{
		URL:              wsURL,
		UserID:           "admin-1",
		HandshakeTimeout: 5 * time.Second,
	})

	received := make(chan string, 1)
	c.Subscribe(models.EventNewOrder, func(_ string, payload json.RawMessage) {
		received <- string(payload)
	})

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	select {
	case userID := <-registered:
		if userID != "admin-1" {
			t.Errorf("registered userId = %s", userID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the register message")
	}

	select {
	case payload := <-received:
		if payload != `{"id":"o1"}` {
			t.Errorf("payload = %s", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received the pushed event")
	}

	// A second Close must be a harmless no-op.
	c.Close()
	c.Close()
}
