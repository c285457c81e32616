package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message, kalıcı bir chat mesajını temsil eder.
// DB'deki "messages" tablosunun Go karşılığı.
//
// Mesaj SADECE moderasyonu geçen içerik için oluşturulur — classifier'ın
// işaretlediği içerik hiçbir zaman persist edilmez.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"` // JOIN ile gelen yazar adı
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxMessageLength, bir mesajın içerebileceği maksimum karakter sayısı.
const MaxMessageLength = 2000

// ValidateContent, mesaj içeriğini doğrular ve temizlenmiş halini döner.
// Boş içerik hata DEĞİLDİR — session loop boş içerikte sadece gönderene
// lokal bir hata frame'i yollar; bu yüzden boşluk kontrolü caller'a bırakılır.
func ValidateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return "", fmt.Errorf("message content must be at most %d characters", MaxMessageLength)
	}
	return content, nil
}
