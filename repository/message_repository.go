package repository

import (
	"context"

	"github.com/akinalp/hanek/models"
)

// MessageRepository, mesaj veritabanı işlemleri için interface.
//
// Create, session loop'un "append" operasyonudur — moderasyonu geçen her
// mesaj broadcast'ten önce buraya yazılır.
// ListRecentByRoom, yeni katılan bağlantıya replay edilen son mesajları döner
// (en eskiden en yeniye sıralı).
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListRecentByRoom(ctx context.Context, roomID string, limit int) ([]models.Message, error)
}
