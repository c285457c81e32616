package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Broadcaster, moderasyon admin endpoint'lerinin odaya bildirim göndermek
// için kullandığı interface. Handler'lar Hub'ın concrete struct'ına değil
// buna bağımlıdır — testlerde mock kullanılabilir.
type Broadcaster interface {
	BroadcastToRoom(roomID string, event Event)
}

// Hub, oda bazlı canlı bağlantı registry'sidir.
//
// rooms: roomID → Client set. Bir client tam olarak bir odaya kayıtlıdır;
// aynı kullanıcının birden fazla bağlantısı (birden fazla cihaz) olabilir.
//
// Register/unregister channel üzerinden Run() goroutine'ine akar, mutation
// kritik bölgeleri minimaldir. Broadcast RLock altında snapshot üzerinde
// çalışır ve ASLA network I/O beklemez — client'a gönderim buffer'lı send
// channel'ına non-blocking push'tur; dolu buffer (ölü/yavaş bağlantı)
// client'ın registry'den çıkarılmasını tetikler. Böylece ölü bağlantıyı
// broadcaster değil registry çözer — aynı ölü bağlantıyı iki broadcaster'ın
// aynı anda keşfetmesi yarışa yol açmaz.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
}

// NewHub, boş bir Hub oluşturur. Başlangıçta hiçbir bağlantı yoktur;
// teardown'da (Shutdown) tüm bağlantılar düşürülür, kalıcı state tutulmaz.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run, Hub'ın ana event loop'udur. main'de `go hub.Run()` ile başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// addClient, client'ı odasının canlı set'ine ekler.
// Map semantiği duplicate girişi imkansız kılar.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.roomID]; !ok {
		h.rooms[client.roomID] = make(map[*Client]bool)
	}
	h.rooms[client.roomID][client] = true

	log.Printf("[ws] client connected: user=%s room=%s (room size: %d)",
		client.userID, client.roomID, len(h.rooms[client.roomID]))
}

// removeClient, client'ı odasından çıkarır ve send channel'ını kapatır.
// Idempotent — kayıtlı olmayan client için no-op.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.roomID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.rooms, client.roomID)
	}

	log.Printf("[ws] client disconnected: user=%s room=%s", client.userID, client.roomID)
}

// BroadcastToRoom, event'i çağrı anında odada kayıtlı olan her bağlantıya
// iletir. Best-effort: bir bağlantıya gönderim başarısız olursa (buffer dolu)
// diğerlerine teslimat devam eder; başarısız client registry'den çıkarılır.
func (h *Hub) BroadcastToRoom(roomID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal broadcast event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		select {
		case client.send <- data:
		default:
			// Buffer dolu — bağlantı ölü veya donmuş, registry temizler.
			// RLock altında Lock alınamaz; unregister channel'a ayrı
			// goroutine'den gönderilir.
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// CloseUser, bir kullanıcının TÜM bağlantılarını verilen close code'u ile
// kapatır. Mid-session ban'de kullanılır: kullanıcının diğer cihazlardaki
// oturumları da sonlanır. Conn kapanınca her client'ın kendi ReadPump'ı
// hata alır ve normal cleanup yolu (unregister) çalışır.
func (h *Hub) CloseUser(userID string, code int, reason string) {
	h.mu.RLock()
	var targets []*Client
	for _, clients := range h.rooms {
		for client := range clients {
			if client.userID == userID {
				targets = append(targets, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		go client.disconnect(code, reason)
	}
}

// ClientCount, bir odadaki kayıtlı bağlantı sayısını döner.
func (h *Hub) ClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.rooms {
		for client := range clients {
			close(client.send)
		}
	}
	h.rooms = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
