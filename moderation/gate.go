// Package moderation, içerik moderasyonunun iki yapı taşını barındırır:
//
//   - Gate: kullanıcı başına warning counter + ban flag cache'i ve bunların
//     durable store senkronizasyonu. Her bağlantı denemesi (ban kontrolü) ve
//     her ihlal (counter artışı) buradan geçer.
//   - Classifier: mesaj içeriğini etiketleyen uzak servisin client'ı.
//
// İki katmanlı tasarım: hot-path kararları için in-process cache otoriterdir,
// SQLite eventually-consistent yedektir. Senkronizasyon sadece ban threshold
// anında tetiklenir ve idempotent'tir — aynı final değerlerle birden fazla
// kez çalışması güvenlidir.
package moderation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/akinalp/hanek/models"
)

// BanStore, Gate'in durable store kontratıdır.
//
// repository.UserRepository bu interface'i karşılar ama Gate'in repository
// paketine bağımlı olması gerekmez — sadece ihtiyacı olan iki metodu tanımlar
// (Interface Segregation). Testlerde fake implementasyon kullanılır.
type BanStore interface {
	ReadBanState(ctx context.Context, userID string) (models.BanState, error)
	WriteBanState(ctx context.Context, userID string, state models.BanState) error
}

// warningEntry, bir kullanıcının cache'teki warning sayacıdır.
//
// expiresAt sayaç 0'dan 1'e geçtiği anda BİR KEZ kurulur; süresi dolmadan
// gelen artışlar expiry'yi değiştirmez. Süresi dolan entry okuma anında
// sıfır sayılır (lazy expiry) — sonraki ihlal yeni bir sayaç başlatır.
type warningEntry struct {
	count     int
	expiresAt time.Time
}

// Sync retry parametreleri: store geçici olarak erişilemezse ban verisi
// kaybedilmez, sınırlı sayıda yeniden denenir.
const (
	syncMaxAttempts = 3
	syncRetryDelay  = 2 * time.Second
	syncTimeout     = 5 * time.Second
)

// Gate, warning counter'ları ve ban flag'lerini yöneten moderasyon kapısıdır.
//
// Concurrency: tüm sayaç ve flag erişimi tek mutex altındadır.
// RecordViolation'daki artır-ve-karşılaştır tek atomik operasyondur —
// aynı kullanıcının iki eşzamanlı ihlali asla ikisi birden threshold
// altı görüp ban'ı kaçıramaz.
type Gate struct {
	mu       sync.Mutex
	warnings map[string]*warningEntry
	bans     map[string]bool // bilinen ban durumu; yokluk = henüz store'dan okunmadı

	store     BanStore
	threshold int
	ttl       time.Duration
}

// NewGate, boş cache ile yeni bir Gate oluşturur.
// threshold: ban için gereken ihlal sayısı. ttl: warning counter yaşam süresi.
func NewGate(store BanStore, threshold int, ttl time.Duration) *Gate {
	return &Gate{
		warnings:  make(map[string]*warningEntry),
		bans:      make(map[string]bool),
		store:     store,
		threshold: threshold,
		ttl:       ttl,
	}
}

// CheckBan, kullanıcının banlı olup olmadığını döner.
//
// Her bağlantı denemesinin hot-path'indedir: cache hit'te store'a gidilmez.
// Cache miss'te durable store okunur, sonuç cache'e yazılır. Store hatası
// caller'a döner — caller bağlantıyı internal-error ile kapatır, bilinmeyen
// durum asla "banlı değil" sayılmaz.
func (g *Gate) CheckBan(ctx context.Context, userID string) (bool, error) {
	g.mu.Lock()
	banned, known := g.bans[userID]
	g.mu.Unlock()

	if known {
		return banned, nil
	}

	// Store çağrısı lock DIŞINDA yapılır — yavaş bir DB okuması diğer
	// kullanıcıların ban kontrolünü bloklamamalı.
	state, err := g.store.ReadBanState(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to read ban state for user %s: %w", userID, err)
	}

	g.mu.Lock()
	// Eşzamanlı bir RecordViolation bu arada ban koymuş olabilir —
	// cache'teki true değeri store'dan gelen false ile ezilmez.
	if cached, ok := g.bans[userID]; ok && cached {
		g.mu.Unlock()
		return true, nil
	}
	g.bans[userID] = state.Blocked
	g.mu.Unlock()

	return state.Blocked, nil
}

// RecordViolation, kullanıcının warning sayacını atomik olarak artırır.
//
// Dönen değerler: artış sonrası sayaç ve threshold'a ulaşılıp ulaşılmadığı.
// Threshold'a ulaşıldığında ban flag cache'e yazılır ve warning + ban verisi
// arka planda durable store'a senkronize edilir (bounded retry).
func (g *Gate) RecordViolation(ctx context.Context, userID string) (int, bool) {
	g.mu.Lock()

	entry, ok := g.warnings[userID]
	now := time.Now()
	if !ok || now.After(entry.expiresAt) {
		// İlk ihlal (veya süresi dolmuş sayaç) — expiry burada bir kez kurulur.
		entry = &warningEntry{expiresAt: now.Add(g.ttl)}
		g.warnings[userID] = entry
	}
	entry.count++
	count := entry.count

	if count < g.threshold {
		g.mu.Unlock()
		return count, false
	}

	g.bans[userID] = true
	g.mu.Unlock()

	log.Printf("[gate] user %s reached violation threshold (%d/%d), banning", userID, count, g.threshold)

	// Durable store senkronizasyonu asenkron — session loop'u bloklamaz.
	// Retry'lar bittiğinde bile cache otoriterdir; process yaşadığı sürece
	// CheckBan true dönmeye devam eder.
	go g.syncBanState(userID, models.BanState{Warnings: count, Blocked: true})

	return count, true
}

// Threshold, ban için gereken ihlal sayısını döner.
func (g *Gate) Threshold() int {
	return g.threshold
}

// Count, kullanıcının mevcut warning sayısını döner (yoksa/süresi dolmuşsa 0).
func (g *Gate) Count(userID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.warnings[userID]
	if !ok || time.Now().After(entry.expiresAt) {
		return 0
	}
	return entry.count
}

// Reset, kullanıcının warning sayacını temizler.
// Session loop bunu çağırmaz — dışarıdan gelen moderasyon/itiraz aksiyonudur.
func (g *Gate) Reset(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.warnings, userID)
}

// Unban, kullanıcının ban'ını kaldırır: cache ve durable store birlikte
// temizlenir, warning sayacı sıfırlanır. Store yazımı başarısız olursa
// cache DEĞİŞTİRİLMEZ — yarım unban olmaz.
func (g *Gate) Unban(ctx context.Context, userID string) error {
	if err := g.store.WriteBanState(ctx, userID, models.BanState{}); err != nil {
		return fmt.Errorf("failed to clear ban state for user %s: %w", userID, err)
	}

	g.mu.Lock()
	g.bans[userID] = false
	delete(g.warnings, userID)
	g.mu.Unlock()

	log.Printf("[gate] user %s unbanned", userID)
	return nil
}

// syncBanState, ban verisini durable store'a yazar; geçici hatalarda
// sınırlı sayıda yeniden dener. Idempotent — her deneme aynı final
// değerleri yazar.
func (g *Gate) syncBanState(userID string, state models.BanState) {
	var lastErr error

	for attempt := 1; attempt <= syncMaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		err := g.store.WriteBanState(ctx, userID, state)
		cancel()

		if err == nil {
			log.Printf("[gate] ban state synced for user %s (warnings=%d, blocked=%t)",
				userID, state.Warnings, state.Blocked)
			return
		}

		lastErr = err
		log.Printf("[gate] ban state sync attempt %d/%d failed for user %s: %v",
			attempt, syncMaxAttempts, userID, err)
		time.Sleep(syncRetryDelay)
	}

	// Cache hâlâ otoriter — process yaşadığı sürece ban geçerli.
	// Kalıcı store hatası operasyonel bir sorundur, log'da görünür olmalı.
	log.Printf("[gate] GIVING UP ban state sync for user %s: %v", userID, lastErr)
}
