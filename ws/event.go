// Package ws, WebSocket bağlantı yönetimi ve oda bazlı gerçek zamanlı mesaj
// dağıtımını sağlar.
//
// Mimari:
// - Hub: Oda bazlı canlı bağlantı registry'si ve fanout broadcast
// - Client: Tek bir bağlantının session state machine'i
// - Event: Client-server arası iletilen frame formatı
//
// Mesaj akışı:
// 1. Client content frame gönderir → ReadPump
// 2. Classifier içeriği etiketler (ihlal → warning/ban pipeline'ı)
// 3. Temiz içerik DB'ye yazılır
// 4. Hub, chat frame'ini odadaki tüm bağlantılara iletir
// 5. Her client'ın WritePump'ı frame'i WebSocket'e yazar
package ws

import (
	"time"

	"github.com/akinalp/hanek/models"
)

// Event, WebSocket üzerinden iletilen bir frame'i temsil eder.
//
// Op: frame türü discriminator'ı — "message", "heartbeat", "chat" vb.
// Data: frame'e özgü payload.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
}

// Client → Server operasyonları
const (
	OpMessage   = "message"   // Content frame — moderasyon pipeline'ından geçer
	OpHeartbeat = "heartbeat" // Keep-alive — read deadline'ı yeniler
)

// Server → Client operasyonları
const (
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt
	OpChat         = "chat"          // Odaya broadcast edilen chat mesajı
	OpSystem       = "system"        // Sistem bildirimi (warning/ban duyurusu)
	OpError        = "error"         // Sadece gönderene giden lokal hata
	OpHistory      = "history"       // Bağlantı kurulunca gönderilen son mesajlar
)

// SenderSystem, sistem bildirimlerinin sender alanında kullanılan sabit isim.
const SenderSystem = "System"

// MessageData, message frame'inin Client → Server payload'ı.
type MessageData struct {
	Content string `json:"content"`
}

// ChatData, chat ve system frame'lerinin Server → Client payload'ı.
type ChatData struct {
	Sender    string    `json:"sender"`
	UserID    string    `json:"user_id,omitempty"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	RoomID    string    `json:"room_id"`
}

// ErrorData, error frame'inin payload'ı — sadece ilgili client'a gider,
// odaya broadcast edilmez.
type ErrorData struct {
	Error string `json:"error"`
}

// HistoryData, history frame'inin payload'ı. Mesajlar kronolojik sıradadır.
type HistoryData struct {
	Messages []models.Message `json:"messages"`
}

// systemNotice, odaya gönderilecek bir sistem bildirimi oluşturur.
func systemNotice(roomID, content string) Event {
	return Event{
		Op: OpSystem,
		Data: ChatData{
			Sender:    SenderSystem,
			Content:   content,
			Timestamp: time.Now().UTC(),
			RoomID:    roomID,
		},
	}
}
