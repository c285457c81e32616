package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/akinalp/hanek/models"
	"github.com/akinalp/hanek/moderation"
)

// ws paketinin harici kontratları. Concrete tipler (auth service, moderation
// gate, sqlite repo'lar) yerine küçük, odaklı interface'ler tanımlanır —
// hem circular dependency önlenir hem testlerde fake kullanılabilir.

// TokenVerifier, bağlantı açılışındaki kimlik doğrulama kontratı.
// Stateless'tır, yan etkisi yoktur. Pratikte auth service'tir.
type TokenVerifier interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// ModerationGate, ban kontrolü ve ihlal kaydı kontratı.
type ModerationGate interface {
	CheckBan(ctx context.Context, userID string) (bool, error)
	RecordViolation(ctx context.Context, userID string) (count int, banned bool)
	Threshold() int
}

// ContentClassifier, içerik etiketleme kontratı.
type ContentClassifier interface {
	Classify(ctx context.Context, contents []string) ([]moderation.Label, error)
}

// MessageStore, session loop'un durable store kontratı.
type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	ListRecentByRoom(ctx context.Context, roomID string, limit int) ([]models.Message, error)
}

// RoomStore, bağlantı açılışındaki oda varlık kontrolü.
type RoomStore interface {
	GetByID(ctx context.Context, id string) (*models.Room, error)
}

// RateLimiter, kullanıcı bazlı mesaj spam koruması. nil olabilir (devre dışı).
type RateLimiter interface {
	Allow(userID string) bool
}

// BanNotifier, ban sonrası bildirim (ör. email). nil olabilir (devre dışı).
// Session loop'u bloklamamak için implementasyonlar asenkron çağrılır.
type BanNotifier interface {
	NotifyBan(userID, username string, warnings int)
}

// sessionDeps, her client'ın session loop'unda kullandığı harici bağımlılıklar.
// Handler oluşturulurken bir kez kurulur, tüm client'lar paylaşır.
type sessionDeps struct {
	verifier   TokenVerifier
	gate       ModerationGate
	classifier ContentClassifier
	messages   MessageStore
	rooms      RoomStore
	limiter    RateLimiter
	notifier   BanNotifier
}

// upgrader, HTTP bağlantısını WebSocket bağlantısına yükseltir.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin: Production'da domain kontrolü yapılmalı.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub  *Hub
	deps *sessionDeps
}

// NewHandler, yeni bir WebSocket handler oluşturur.
// limiter ve notifier nil olabilir — ilgili özellik devre dışı kalır.
func NewHandler(
	hub *Hub,
	verifier TokenVerifier,
	gate ModerationGate,
	classifier ContentClassifier,
	messages MessageStore,
	rooms RoomStore,
	limiter RateLimiter,
	notifier BanNotifier,
) *Handler {
	return &Handler{
		hub: hub,
		deps: &sessionDeps{
			verifier:   verifier,
			gate:       gate,
			classifier: classifier,
			messages:   messages,
			rooms:      rooms,
			limiter:    limiter,
			notifier:   notifier,
		},
	}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve session
// state machine'ini başlatır.
//
// Bağlantı noktası oda ID'si ve bearer token ile parametrelidir:
//
//	ws://server/ws/{room}?token=JWT_TOKEN
//
// Token URL query parameter olarak gelir — WebSocket upgrade sırasında
// tarayıcılar custom HTTP header gönderemez.
//
// Kimlik doğrulama, oda kontrolü ve ban kontrolü upgrade'den SONRA session
// state machine'i içinde yapılır; başarısızlık HTTP hatası değil, kategorisi
// korunmuş bir WebSocket close'udur (policy-violation vs internal-error).
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	if roomID == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for room %s: %v", roomID, err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		deps:   h.deps,
		token:  token,
		roomID: roomID,
		send:   make(chan []byte, sendBufferSize),
		state:  stateConnecting,
	}

	// run bağlantı kapanana kadar bloklar — HTTP handler goroutine'i
	// session'ın read tarafıdır, write tarafı run içinde başlatılır.
	client.run()
}
