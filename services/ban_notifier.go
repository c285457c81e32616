package services

import (
	"context"
	"log"
	"time"

	"github.com/akinalp/hanek/pkg/email"
	"github.com/akinalp/hanek/repository"
)

// BanNotifier, ban threshold'una ulaşan kullanıcıya email bildirimi gönderir.
// ws.BanNotifier interface'ini karşılar; session loop tarafından asenkron
// çağrılır — hata session'ı etkilemez, sadece log'lanır.
type BanNotifier struct {
	userRepo repository.UserRepository
	sender   email.EmailSender
}

// NewBanNotifier, constructor.
func NewBanNotifier(userRepo repository.UserRepository, sender email.EmailSender) *BanNotifier {
	return &BanNotifier{
		userRepo: userRepo,
		sender:   sender,
	}
}

// NotifyBan, kullanıcının kayıtlı email'i varsa ban bildirimi gönderir.
func (n *BanNotifier) NotifyBan(userID, username string, warnings int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := n.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("[notify] failed to load user %s for ban notice: %v", userID, err)
		return
	}
	if user.Email == nil || *user.Email == "" {
		return
	}

	if err := n.sender.SendBanNotice(ctx, *user.Email, username, warnings); err != nil {
		log.Printf("[notify] failed to send ban notice to user %s: %v", userID, err)
		return
	}

	log.Printf("[notify] ban notice sent to user %s", userID)
}
