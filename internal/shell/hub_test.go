package shell

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var _ Notifier = (*Hub)(nil)
var _ Notifier = NopNotifier{}

func startTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()

	lg := zerolog.Nop()
	hub := NewHub(&lg)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", hub.HandleWebSocket)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	wsURL := strings.Replace(server.URL, "http://", "ws://", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal message %s: %v", data, err)
	}
	return msg
}

func TestStatusEventReachesClient(t *testing.T) {
	hub, conn := startTestHub(t)

	hub.Status("Checking for updates...", "")

	msg := readMessage(t, conn)
	if msg.Type != EventStatus {
		t.Errorf("Type = %q, want %q", msg.Type, EventStatus)
	}
	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("Payload is %T, want object", msg.Payload)
	}
	if payload["text"] != "Checking for updates..." {
		t.Errorf("payload text = %v", payload["text"])
	}
	if msg.Timestamp == "" {
		t.Error("Timestamp is empty")
	}
}

func TestProgressClamped(t *testing.T) {
	hub, conn := startTestHub(t)

	hub.Progress(150)
	hub.Progress(-5)

	first := readMessage(t, conn)
	if got := first.Payload.(map[string]interface{})["percent"]; got != float64(100) {
		t.Errorf("percent = %v, want 100", got)
	}
	second := readMessage(t, conn)
	if got := second.Payload.(map[string]interface{})["percent"]; got != float64(0) {
		t.Errorf("percent = %v, want 0", got)
	}
}

func TestActionDispatch(t *testing.T) {
	hub, conn := startTestHub(t)

	ready := make(chan struct{})
	hub.SetActionHandler(ActionReady, func() { close(ready) })

	if err := conn.WriteJSON(Message{Type: ActionReady}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("ready handler never ran")
	}
}

func TestUnknownActionIgnored(t *testing.T) {
	hub, conn := startTestHub(t)

	ready := make(chan struct{})
	hub.SetActionHandler(ActionReady, func() { close(ready) })

	// An unregistered action and garbage input must not wedge the hub.
	if err := conn.WriteJSON(Message{Type: "action:reboot"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(Message{Type: ActionReady}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("hub stopped dispatching after unknown input")
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	lg := zerolog.Nop()
	hub := NewHub(&lg)
	go hub.Run()

	// Fire-and-forget with zero subscribers must not block or panic.
	hub.Status("Welcome to ZOCO POS", "")
	hub.HideWindow()

	if n := hub.ClientCount(); n != 0 {
		t.Errorf("ClientCount() = %d, want 0", n)
	}
}
