// Package models, domain modellerini barındırır.
//
// Bu paket hiçbir iç pakete bağımlı değildir — services, repository, ws ve
// handlers katmanlarının hepsi models'e bağımlı olabilir, tersi olamaz.
// Circular dependency bu kuralla önlenir.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// User, bir chat kullanıcısını temsil eder.
// DB'deki "users" tablosunun Go karşılığı.
//
// Warnings ve IsBlocked moderasyon alanlarıdır: hot-path kararları in-process
// cache'ten verilir, bu kolonlar cache'in kalıcı yedeğidir. Process yeniden
// başladığında ban durumu buradan geri yüklenir.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email,omitempty"` // Nullable — ban bildirimi için opsiyonel
	PasswordHash string    `json:"-"`               // JSON'a asla serialize edilmez
	Warnings     int       `json:"warnings"`
	IsBlocked    bool      `json:"is_blocked"`
	CreatedAt    time.Time `json:"created_at"`
}

// BanState, bir kullanıcının durable store'daki moderasyon durumudur.
// ModerationGate cache miss'te bunu okur, ban threshold'unda geri yazar.
type BanState struct {
	Warnings int
	Blocked  bool
}

// RegisterRequest, kayıt isteği.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate, RegisterRequest'in geçerli olup olmadığını kontrol eder.
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if !usernameRegex.MatchString(r.Username) {
		return fmt.Errorf("username must be 3-32 characters (letters, digits, underscore)")
	}
	if len(r.Password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

// LoginRequest, giriş isteği.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate, LoginRequest'in geçerli olup olmadığını kontrol eder.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	if utf8.RuneCountInString(r.Username) > 32 {
		return fmt.Errorf("username must be at most 32 characters")
	}
	return nil
}
