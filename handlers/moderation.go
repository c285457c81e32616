package handlers

import (
	"net/http"

	"github.com/akinalp/hanek/moderation"
	"github.com/akinalp/hanek/pkg"
)

// ModerationHandler, moderasyon yönetim endpoint'leri.
// Gate'in cache'i otoriter olduğu için tüm okuma/yazma Gate üzerinden yapılır,
// doğrudan DB'ye gidilmez.
type ModerationHandler struct {
	gate *moderation.Gate
}

// NewModerationHandler, constructor.
func NewModerationHandler(gate *moderation.Gate) *ModerationHandler {
	return &ModerationHandler{gate: gate}
}

// Status godoc
// GET /api/moderation/{user}
// Kullanıcının mevcut warning sayısı ve ban durumu.
func (h *ModerationHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if userID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "user id is required")
		return
	}

	banned, err := h.gate.CheckBan(r.Context(), userID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"warnings":  h.gate.Count(userID),
		"banned":    banned,
		"threshold": h.gate.Threshold(),
	})
}

// ResetWarnings godoc
// POST /api/moderation/{user}/reset
// Warning sayacını sıfırlar — ban flag'ine dokunmaz.
func (h *ModerationHandler) ResetWarnings(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if userID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "user id is required")
		return
	}

	h.gate.Reset(userID)

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "warnings reset"})
}

// Unban godoc
// DELETE /api/moderation/{user}/ban
// Ban'ı hem cache'te hem durable store'da kaldırır.
func (h *ModerationHandler) Unban(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if userID == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "user id is required")
		return
	}

	if err := h.gate.Unban(r.Context(), userID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user unbanned"})
}
