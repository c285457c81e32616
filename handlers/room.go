package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/hanek/models"
	"github.com/akinalp/hanek/pkg"
	"github.com/akinalp/hanek/services"
)

// Mesaj geçmişi endpoint'inin varsayılan limiti — WS history replay ile aynı.
const defaultHistoryLimit = 50

// RoomHandler, oda endpoint'lerini yöneten struct.
type RoomHandler struct {
	roomService services.RoomService
}

// NewRoomHandler, constructor.
func NewRoomHandler(roomService services.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// List godoc
// GET /api/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, rooms)
}

// Create godoc
// POST /api/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoomRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.roomService.Create(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, room)
}

// Messages godoc
// GET /api/rooms/{room}/messages
// Odanın son mesajlarını kronolojik sırada döner.
func (h *RoomHandler) Messages(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room")
	if roomID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "room id is required")
		return
	}

	messages, err := h.roomService.RecentMessages(r.Context(), roomID, defaultHistoryLimit)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}
