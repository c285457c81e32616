package repository

import (
	"context"

	"github.com/akinalp/hanek/models"
)

// RoomRepository, oda veritabanı işlemleri için interface.
// WS handler bağlantı kabul etmeden önce GetByID ile odanın varlığını doğrular.
type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id string) (*models.Room, error)
	GetAll(ctx context.Context) ([]models.Room, error)
}
