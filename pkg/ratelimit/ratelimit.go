// Package ratelimit — WS frame spam koruması için kullanıcı bazlı rate limiting.
//
// Tasarım:
// - window içinde maxMessages frame → izin verilir.
// - Limit aşıldığında cooldown başlar → cooldown boyunca tüm frame'ler reddedilir.
// - Cooldown bitince pencere sıfırlanır, kullanıcı tekrar mesaj atabilir.
//
// Reddedilen frame bir moderasyon ihlali DEĞİLDİR — sadece gönderene lokal
// bir hata frame'i üretir, warning counter'a dokunmaz.
package ratelimit

import (
	"sync"
	"time"
)

// bucket, bir kullanıcı için frame sayacı ve cooldown bilgisi tutar.
type bucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// Limiter, kullanıcı bazlı frame spam koruması.
//
// Kullanım:
//
//	limiter := ratelimit.New(5, 5*time.Second, 15*time.Second)
//	if !limiter.Allow(userID) { /* reject */ }
type Limiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
	stopCleanup chan struct{}
}

// New, yeni bir Limiter oluşturur ve arka plan temizleme goroutine'ini başlatır.
//
// maxMessages: Pencere başına izin verilen frame sayısı.
// window: Sayaç pencere süresi. cooldown: Limit aşıldığında ceza süresi.
func New(maxMessages int, window, cooldown time.Duration) *Limiter {
	rl := &Limiter{
		buckets:     make(map[string]*bucket),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		stopCleanup: make(chan struct{}),
	}

	// Bucket'lar kısa ömürlüdür ama çok sayıda kullanıcıda bellek
	// birikmesini önlemek için periyodik temizleme gerekir.
	go rl.cleanupLoop()

	return rl
}

// Allow, kullanıcının frame göndermesine izin verilip verilmediğini döner.
//
// 1. Cooldown'daysa → reject.
// 2. Cooldown bittiyse veya window dolmuşsa → yeni pencere başlat.
// 3. Window içindeyse → count artır, limit aşıldıysa cooldown başlat.
func (rl *Limiter) Allow(userID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &bucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() && now.Before(b.cooldownUntil) {
		return false
	}

	if !b.cooldownUntil.IsZero() || now.Sub(b.windowStart) > rl.window {
		// Cooldown bitti veya pencere doldu — yeni pencere başlat.
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	b.count++
	if b.count > rl.maxMessages {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}

	return true
}

// Close, temizleme goroutine'ini durdurur.
func (rl *Limiter) Close() {
	close(rl.stopCleanup)
}

// cleanupLoop, artık aktif olmayan bucket'ları periyodik olarak siler.
func (rl *Limiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictStale()
		case <-rl.stopCleanup:
			return
		}
	}
}

// evictStale, hem penceresi hem cooldown'u geçmiş bucket'ları siler.
func (rl *Limiter) evictStale() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		idle := now.Sub(b.windowStart) > rl.window+rl.cooldown
		cooled := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)
		if idle && cooled {
			delete(rl.buckets, userID)
		}
	}
}
