// Package main, hanek chat server'ının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (embedded migration'lar ile)
//  3. Repository'leri oluştur
//  4. Moderation Gate + Classifier'ı kur
//  5. WebSocket Hub'ı başlat
//  6. Service'leri oluştur
//  7. Handler'ları ve middleware'ı bağla
//  8. HTTP router + CORS
//  9. Graceful shutdown
//
// Global değişken YOK — her şey burada oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/hanek/config"
	"github.com/akinalp/hanek/database"
	"github.com/akinalp/hanek/handlers"
	"github.com/akinalp/hanek/middleware"
	"github.com/akinalp/hanek/moderation"
	"github.com/akinalp/hanek/pkg/email"
	"github.com/akinalp/hanek/pkg/ratelimit"
	"github.com/akinalp/hanek/repository"
	"github.com/akinalp/hanek/services"
	"github.com/akinalp/hanek/ws"
)

// Classifier sonuçları kısa süre cache'lenir — aynı içerik art arda
// gönderildiğinde uzak servise tekrar gidilmez.
const classifierCacheTTL = 5 * time.Minute

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] hanek server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to access embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	roomRepo := repository.NewSQLiteRoomRepo(db.Conn)
	messageRepo := repository.NewSQLiteMessageRepo(db.Conn)

	// ─── 4. Moderation ───
	//
	// Gate: warning counter + ban flag cache'i, SQLite'a asenkron sync.
	// Classifier: uzak moderasyon servisi, üstüne TTL cache sarılır —
	// aynı içerik tekrar gönderildiğinde uzak çağrı yapılmaz.
	gate := moderation.NewGate(userRepo, cfg.Moderation.Threshold, cfg.Moderation.WarningTTL)

	httpClassifier := moderation.NewHTTPClassifier(
		cfg.Moderation.ClassifierURL,
		cfg.Moderation.ClassifierAPIKey,
		cfg.Moderation.ClassifierTimeout,
	)
	classifier := moderation.NewCachedClassifier(httpClassifier, classifierCacheTTL)
	defer classifier.Close()

	// ─── 5. WebSocket Hub ───
	hub := ws.NewHub()
	go hub.Run()

	// ─── 6. Service Layer ───
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	roomService := services.NewRoomService(roomRepo, messageRepo)

	// Frame spam koruması — moderasyon ihlali değildir, sadece reject eder.
	limiter := ratelimit.New(cfg.RateLimit.MaxMessages, cfg.RateLimit.Window, cfg.RateLimit.Cooldown)
	defer limiter.Close()

	// Ban email bildirimi — API key yoksa devre dışı (nil notifier).
	var notifier ws.BanNotifier
	if cfg.Email.ResendAPIKey != "" {
		sender := email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromEmail)
		notifier = services.NewBanNotifier(userRepo, sender)
		log.Println("[main] ban email notifications enabled")
	}

	// ─── 7. Handler Layer ───
	authHandler := handlers.NewAuthHandler(authService)
	roomHandler := handlers.NewRoomHandler(roomService)
	moderationHandler := handlers.NewModerationHandler(gate)
	wsHandler := ws.NewHandler(hub, authService, gate, classifier, messageRepo, roomRepo, limiter, notifier)

	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)

	// ─── 8. HTTP Router ───
	mux := http.NewServeMux()

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMiddleware.Require(http.HandlerFunc(handler))
	}

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"hanek"}`)
	})

	// Auth — public endpoint'ler (token gerekmez)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// User
	mux.Handle("GET /api/users/me", auth(authHandler.Me))

	// Rooms
	mux.Handle("GET /api/rooms", auth(roomHandler.List))
	mux.Handle("POST /api/rooms", auth(roomHandler.Create))
	mux.Handle("GET /api/rooms/{room}/messages", auth(roomHandler.Messages))

	// Moderation — warning/ban yönetimi
	mux.Handle("GET /api/moderation/{user}", auth(moderationHandler.Status))
	mux.Handle("POST /api/moderation/{user}/reset", auth(moderationHandler.ResetWarnings))
	mux.Handle("DELETE /api/moderation/{user}/ban", auth(moderationHandler.Unban))

	// WebSocket — token query parameter ile authenticate edilir.
	// WS upgrade sırasında tarayıcılar custom header gönderemez,
	// bu yüzden JWT token URL query parameter olarak taşınır:
	//   ws://server/ws/{room}?token=JWT_TOKEN
	mux.HandleFunc("GET /ws/{room}", wsHandler.HandleConnection)

	// ─── 9. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce WS bağlantılarını kapat, sonra HTTP server'ı —
	// yeni request kabul edilmez, mevcutlar 5sn içinde biter.
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
