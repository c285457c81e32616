// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar — her yerde ayrı ayrı
// os.Getenv() çağırmak yerine tek bir Config nesnesi taşırız.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her struct tek bir concern'ü temsil eder.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Moderation ModerationConfig
	RateLimit  RateLimitConfig
	Email      EmailConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string // İzin verilen origin'ler (virgülle ayrılmış env)
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/hanek.db)
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret            string // Token imzalama anahtarı — GİZLİ TUTULMALI
	AccessTokenExpiry int    // Dakika cinsinden (varsayılan: 60)
}

// ModerationConfig, içerik moderasyonu ayarları.
//
// WarningTTL: Warning counter'ın yaşam süresi. Süre ilk ihlalde bir kez
// kurulur; süresi dolan sayaç sıfırdan başlar.
// Threshold: Bu sayıya ulaşan kullanıcı kalıcı olarak banlanır.
type ModerationConfig struct {
	Threshold         int           // Ban threshold'u (varsayılan: 3)
	WarningTTL        time.Duration // Warning counter TTL (varsayılan: 1 saat)
	ClassifierURL     string        // Uzak classifier endpoint'i
	ClassifierAPIKey  string        // Classifier API key (opsiyonel)
	ClassifierTimeout time.Duration // Tek classify çağrısı için timeout
}

// RateLimitConfig, WS mesaj spam koruması ayarları.
type RateLimitConfig struct {
	MaxMessages int           // Window başına izin verilen mesaj sayısı
	Window      time.Duration // Sayaç penceresi
	Cooldown    time.Duration // Limit aşıldığında uygulanan ceza süresi
}

// EmailConfig, ban bildirimi email ayarları (Resend).
// APIKey boşsa email gönderimi devre dışıdır.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env dosyası yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	threshold, err := strconv.Atoi(getEnv("MODERATION_THRESHOLD", "3"))
	if err != nil || threshold < 1 {
		return nil, fmt.Errorf("invalid MODERATION_THRESHOLD: %q", getEnv("MODERATION_THRESHOLD", "3"))
	}

	warningTTL, err := time.ParseDuration(getEnv("MODERATION_WARNING_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid MODERATION_WARNING_TTL: %w", err)
	}

	classifierTimeout, err := time.ParseDuration(getEnv("MODERATION_CLASSIFIER_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MODERATION_CLASSIFIER_TIMEOUT: %w", err)
	}

	maxMessages, err := strconv.Atoi(getEnv("RATE_MAX_MESSAGES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_MAX_MESSAGES: %w", err)
	}

	rateWindow, err := time.ParseDuration(getEnv("RATE_WINDOW", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_WINDOW: %w", err)
	}

	rateCooldown, err := time.ParseDuration(getEnv("RATE_COOLDOWN", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_COOLDOWN: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			CORSOrigins: splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/hanek.db"),
		},
		JWT: JWTConfig{
			Secret:            jwtSecret,
			AccessTokenExpiry: accessExpiry,
		},
		Moderation: ModerationConfig{
			Threshold:         threshold,
			WarningTTL:        warningTTL,
			ClassifierURL:     getEnv("MODERATION_CLASSIFIER_URL", "http://localhost:8501/classify"),
			ClassifierAPIKey:  getEnv("MODERATION_CLASSIFIER_API_KEY", ""),
			ClassifierTimeout: classifierTimeout,
		},
		RateLimit: RateLimitConfig{
			MaxMessages: maxMessages,
			Window:      rateWindow,
			Cooldown:    rateCooldown,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM_EMAIL", "noreply@hanek.app"),
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// splitAndTrim, virgülle ayrılmış listeyi parçalar, boş elemanları atar.
func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
