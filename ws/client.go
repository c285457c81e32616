package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/akinalp/hanek/models"
	"github.com/akinalp/hanek/pkg"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// Bu sürede heartbeat gelmezse bağlantı kopmuş sayılır.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum frame boyutu (byte).
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa client ölü/yavaş sayılır ve registry'den çıkarılır.
	sendBufferSize = 256

	// opTimeout: Session loop içindeki tek bir harici çağrının (classifier,
	// store, ban check) üst sınırı. Yavaş bir bağımlılık bağlantıyı süresiz
	// açık tutamaz veya registry'de sızdıramaz.
	opTimeout = 10 * time.Second

	// historyLimit: Bağlantı kurulduğunda replay edilen mesaj sayısı.
	historyLimit = 50
)

// sessionState, bir bağlantının session lifecycle'ındaki konumudur.
//
// Connecting → Authenticating → BanChecking → Active → Closing → Closed
//
// Her harici çağrı başarı/başarısızlık sonucu döner ve state machine bu
// sonuca göre dallanır — failure handling yakalanan bir fault değil,
// veri güdümlü bir geçiştir.
type sessionState int

const (
	stateConnecting sessionState = iota
	stateAuthenticating
	stateBanChecking
	stateActive
	stateClosing
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateAuthenticating:
		return "authenticating"
	case stateBanChecking:
		return "ban_checking"
	case stateActive:
		return "active"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client, tek bir WebSocket bağlantısını ve onun session loop'unu temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - readPump: frame okur ve moderasyon pipeline'ını işletir (HTTP handler goroutine'i)
// - writePump: send channel'ından gelen frame'leri socket'e yazar
//
// Frame'ler sıkı sırayla işlenir: readPump bir frame'in classify→store→
// broadcast pipeline'ı bitmeden sonraki frame'i okumaz — gönderen bazlı
// sıralama böyle korunur.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	deps *sessionDeps

	token    string
	userID   string
	username string
	roomID   string

	send  chan []byte
	state sessionState

	registered bool

	mu        sync.Mutex // conn.WriteMessage çağrılarını korur
	closeOnce sync.Once
}

// run, session state machine'ini baştan sona işletir ve bağlantı kapanana
// kadar bloklar. Hangi yoldan çıkılırsa çıkılsın (policy close, internal
// error, client disconnect, fault) shutdown cleanup'ı defer ile garantidir.
func (c *Client) run() {
	defer c.shutdown()

	// ─── Connecting → Authenticating ───
	c.state = stateAuthenticating

	claims, err := c.deps.verifier.ValidateAccessToken(c.token)
	if err != nil {
		log.Printf("[ws] auth failed for room %s: %v", c.roomID, err)
		c.disconnect(websocket.ClosePolicyViolation, "invalid token")
		return
	}
	c.userID = claims.UserID
	c.username = claims.Username

	// ─── Authenticating → BanChecking ───
	c.state = stateBanChecking

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := c.deps.rooms.GetByID(ctx, c.roomID); err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			c.disconnect(websocket.ClosePolicyViolation, "unknown room")
		} else {
			log.Printf("[ws] room lookup failed for user %s: %v", c.userID, err)
			c.disconnect(websocket.CloseInternalServerErr, "room lookup failed")
		}
		return
	}

	banned, err := c.deps.gate.CheckBan(ctx, c.userID)
	if err != nil {
		// Cache VE store erişilemez — bilinmeyen durum temiz sayılmaz,
		// banlı da sayılmaz; operasyon başarısız olur.
		log.Printf("[ws] ban check failed for user %s: %v", c.userID, err)
		c.disconnect(websocket.CloseInternalServerErr, "ban check failed")
		return
	}
	if banned {
		log.Printf("[ws] banned user %s refused for room %s", c.userID, c.roomID)
		c.disconnect(websocket.ClosePolicyViolation, "user is banned")
		return
	}

	// ─── BanChecking → Active ───
	// Registration sadece ban kontrolü geçildikten sonra yapılır:
	// banlı kullanıcı odanın registry'sinde asla görünmez.
	c.hub.register <- c
	c.registered = true
	c.state = stateActive

	go c.writePump()
	c.replayHistory()
	c.readPump()
}

// shutdown, Closing → Closed geçişidir. run hangi noktada sonlanırsa
// sonlansın çalışır: registry'den çıkar (idempotent), socket'i kapat.
func (c *Client) shutdown() {
	c.state = stateClosing

	if c.registered {
		c.hub.unregister <- c
	}
	c.conn.Close()

	c.state = stateClosed
}

// readPump, bağlantıdan frame okur ve türüne göre işler.
// Bağlantı kapanana veya bir close kararı verilene kadar döngüde kalır.
func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			// Client-initiated disconnect veya transport hatası — Active → Closing.
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			// Malformed frame = protocol fault → internal-error close.
			log.Printf("[ws] malformed frame from user %s: %v", c.userID, err)
			c.disconnect(websocket.CloseInternalServerErr, "malformed frame")
			return
		}

		if !c.handleEvent(event) {
			return
		}
	}
}

// handleEvent, tek bir inbound frame'i işler.
// false dönerse session kapanıyor demektir — readPump sonlanır.
func (c *Client) handleEvent(event Event) bool {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to refresh read deadline for user %s: %v", c.userID, err)
			return false
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})
		return true

	case OpMessage:
		dataBytes, err := json.Marshal(event.Data)
		if err != nil {
			return true
		}
		var data MessageData
		if err := json.Unmarshal(dataBytes, &data); err != nil {
			c.sendError("invalid message payload")
			return true
		}
		return c.handleContent(data.Content)

	default:
		// Bilinmeyen op'lar kontrol frame'i gibi yoksayılır.
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
		return true
	}
}

// handleContent, bir content frame'ini moderasyon pipeline'ından geçirir:
// validate → rate limit → classify → (ihlal: warn/ban | temiz: persist + broadcast).
//
// false dönerse bağlantı kapanıyor demektir.
func (c *Client) handleContent(raw string) bool {
	content, err := models.ValidateContent(raw)
	if err != nil {
		c.sendError(err.Error())
		return true
	}
	if content == "" {
		// Boş içerik sadece gönderene lokal hata üretir, session Active kalır.
		c.sendError("message content is empty")
		return true
	}

	if c.deps.limiter != nil && !c.deps.limiter.Allow(c.userID) {
		c.sendError("you are sending messages too fast, slow down")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	labels, err := c.deps.classifier.Classify(ctx, []string{content})
	if err != nil || len(labels) != 1 {
		// Classifier erişilemez: bilinmeyen içerik ne temiz ne ihlal sayılır —
		// operasyon başarısız olur, bağlantı internal-error ile kapanır.
		log.Printf("[ws] classification failed for user %s: %v", c.userID, err)
		c.disconnect(websocket.CloseInternalServerErr, "content classification unavailable")
		return false
	}

	if labels[0].IsViolation() {
		return c.handleViolation()
	}

	// Temiz içerik: önce durable store'a yaz, sonra odaya broadcast et.
	// Oda içi gönderenler-arası sıralama store'un append sırasıdır.
	message := &models.Message{
		ID:        uuid.NewString(),
		RoomID:    c.roomID,
		UserID:    c.userID,
		Username:  c.username,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := c.deps.messages.Create(ctx, message); err != nil {
		log.Printf("[ws] failed to store message for user %s: %v", c.userID, err)
		c.disconnect(websocket.CloseInternalServerErr, "failed to store message")
		return false
	}

	c.hub.BroadcastToRoom(c.roomID, Event{
		Op: OpChat,
		Data: ChatData{
			Sender:    c.username,
			UserID:    c.userID,
			Content:   message.Content,
			Timestamp: message.CreatedAt,
			RoomID:    c.roomID,
		},
	})

	return true
}

// handleViolation, classifier'ın işaretlediği bir içerik için warning/ban
// akışını işletir. İhlal eden içerik hiçbir zaman persist edilmez.
func (c *Client) handleViolation() bool {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	count, banned := c.deps.gate.RecordViolation(ctx, c.userID)

	if !banned {
		// Warning bildirimi odaya broadcast edilir — moderasyonun
		// herkese görünür olması caydırıcılığın parçası.
		c.hub.BroadcastToRoom(c.roomID, systemNotice(c.roomID,
			fmt.Sprintf("%s received a warning (%d/%d): message blocked by moderation",
				c.username, count, c.deps.gate.Threshold())))
		return true
	}

	log.Printf("[ws] user %s banned in room %s after %d violations", c.userID, c.roomID, count)

	c.hub.BroadcastToRoom(c.roomID, systemNotice(c.roomID,
		fmt.Sprintf("%s has been banned for repeated violations", c.username)))

	if c.deps.notifier != nil {
		go c.deps.notifier.NotifyBan(c.userID, c.username, count)
	}

	// Kullanıcının diğer cihazlardaki oturumları da kapanır —
	// ban bağlantıya değil kullanıcıya uygulanır.
	c.hub.CloseUser(c.userID, websocket.ClosePolicyViolation, "violation threshold reached")

	return false
}

// replayHistory, odanın son mesajlarını yeni bağlanan client'a gönderir.
// Başarısızlık fatal değildir — canlı akış replay olmadan da çalışır.
func (c *Client) replayHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	messages, err := c.deps.messages.ListRecentByRoom(ctx, c.roomID, historyLimit)
	if err != nil {
		log.Printf("[ws] failed to load history for room %s: %v", c.roomID, err)
		return
	}
	if len(messages) == 0 {
		return
	}

	c.sendEvent(Event{Op: OpHistory, Data: HistoryData{Messages: messages}})
}

// sendEvent, client'a tek bir frame gönderir (buffer'a non-blocking push).
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		go func() { c.hub.unregister <- c }()
	}
}

// sendError, sadece bu client'a giden lokal bir hata frame'i gönderir.
func (c *Client) sendError(message string) {
	c.sendEvent(Event{Op: OpError, Data: ErrorData{Error: message}})
}

// disconnect, bağlantıyı verilen close code'u ile kapatır.
// Birden fazla yoldan çağrılabilir (kendi pipeline'ı, CloseUser, fault) —
// close frame bir kez yazılır, sonrası no-op.
func (c *Client) disconnect(code int, reason string) {
	c.closeOnce.Do(func() {
		payload := websocket.FormatCloseMessage(code, reason)
		if err := c.writeMessage(websocket.CloseMessage, payload); err != nil {
			log.Printf("[ws] failed to write close frame for user %s: %v", c.userID, err)
		}
		c.conn.Close()
	})
}

// writePump, send channel'ından gelen frame'leri WebSocket'e yazar.
// Hub client'ı çıkarıp channel'ı kapattığında sonlanır.
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — Hub client'ı çıkardı.
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
// gorilla/websocket aynı anda birden fazla yazıcıyı desteklemez —
// readPump'ın close frame'i ile writePump'ın data frame'leri çakışabilir.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
