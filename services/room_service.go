package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/akinalp/hanek/models"
	"github.com/akinalp/hanek/pkg"
	"github.com/akinalp/hanek/repository"
)

// RoomService, oda yönetimi ve mesaj geçmişi iş mantığı.
type RoomService interface {
	Create(ctx context.Context, req *models.CreateRoomRequest) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)
	RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error)
}

type roomService struct {
	roomRepo    repository.RoomRepository
	messageRepo repository.MessageRepository
}

// NewRoomService, constructor.
func NewRoomService(roomRepo repository.RoomRepository, messageRepo repository.MessageRepository) RoomService {
	return &roomService{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
	}
}

func (s *roomService) Create(ctx context.Context, req *models.CreateRoomRequest) (*models.Room, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err)
	}

	room := &models.Room{
		ID:   uuid.NewString(),
		Name: req.Name,
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

func (s *roomService) List(ctx context.Context) ([]models.Room, error) {
	return s.roomRepo.GetAll(ctx)
}

// RecentMessages, odanın son mesajlarını kronolojik sırada döner.
// Oda yoksa pkg.ErrNotFound döner — handler 404'e çevirir.
func (s *roomService) RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	if _, err := s.roomRepo.GetByID(ctx, roomID); err != nil {
		return nil, err
	}

	return s.messageRepo.ListRecentByRoom(ctx, roomID, limit)
}
