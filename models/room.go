package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Room, bir chat odasını temsil eder.
// DB'deki "rooms" tablosunun Go karşılığı.
//
// Core katmanı (ws paketi) odanın sadece ID'sine ve canlı bağlantı set'ine
// ihtiyaç duyar — üyelik/oluşturma HTTP katmanının işidir.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRoomRequest, yeni oda oluşturma isteği.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// Validate, CreateRoomRequest'in geçerli olup olmadığını kontrol eder.
func (r *CreateRoomRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)
	if nameLen < 1 {
		return fmt.Errorf("room name is required")
	}
	if nameLen > 64 {
		return fmt.Errorf("room name must be at most 64 characters")
	}
	return nil
}
