package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient, hub testleri için conn'suz bir Client oluşturur.
// Register/unregister/broadcast yolları send channel'ı üzerinden çalışır,
// gerçek socket gerekmez.
func newTestClient(hub *Hub, userID, roomID string) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		roomID: roomID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, "u1", "room1")
	hub.register <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount("room1") == 1
	}, time.Second, 5*time.Millisecond)

	hub.unregister <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount("room1") == 0
	}, time.Second, 5*time.Millisecond)

	// Send channel kapatıldı — writePump bunun üzerinden sonlanır.
	_, ok := <-client.send
	assert.False(t, ok)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(hub, "u1", "room1")
	hub.register <- client
	hub.unregister <- client

	// İkinci unregister no-op olmalı — panic (double close) olmamalı.
	hub.unregister <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount("room1") == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastIsRoomScoped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := newTestClient(hub, "u1", "room1")
	c2 := newTestClient(hub, "u2", "room1")
	c3 := newTestClient(hub, "u3", "room2")

	hub.register <- c1
	hub.register <- c2
	hub.register <- c3

	require.Eventually(t, func() bool {
		return hub.ClientCount("room1") == 2 && hub.ClientCount("room2") == 1
	}, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom("room1", Event{Op: OpSystem, Data: "hello"})

	for _, c := range []*Client{c1, c2} {
		select {
		case raw := <-c.send:
			var event Event
			require.NoError(t, json.Unmarshal(raw, &event))
			assert.Equal(t, OpSystem, event.Op)
		case <-time.After(time.Second):
			t.Fatal("expected broadcast frame")
		}
	}

	// room2'deki client frame almaz.
	select {
	case <-c3.send:
		t.Fatal("broadcast leaked into another room")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SlowClientIsEvicted(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &Client{
		hub:    hub,
		userID: "u1",
		roomID: "room1",
		send:   make(chan []byte, 1), // küçük buffer — hemen dolar
	}
	hub.register <- slow

	require.Eventually(t, func() bool {
		return hub.ClientCount("room1") == 1
	}, time.Second, 5*time.Millisecond)

	// Buffer'ı doldur, sonraki broadcast eviction tetikler.
	hub.BroadcastToRoom("room1", Event{Op: OpSystem, Data: "1"})
	hub.BroadcastToRoom("room1", Event{Op: OpSystem, Data: "2"})

	require.Eventually(t, func() bool {
		return hub.ClientCount("room1") == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_ShutdownClosesAllSendChannels(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := newTestClient(hub, "u1", "room1")
	c2 := newTestClient(hub, "u2", "room2")

	hub.register <- c1
	hub.register <- c2

	require.Eventually(t, func() bool {
		return hub.ClientCount("room1") == 1 && hub.ClientCount("room2") == 1
	}, time.Second, 5*time.Millisecond)

	hub.Shutdown()

	assert.Equal(t, 0, hub.ClientCount("room1"))
	assert.Equal(t, 0, hub.ClientCount("room2"))

	for _, c := range []*Client{c1, c2} {
		_, ok := <-c.send
		assert.False(t, ok)
	}
}
