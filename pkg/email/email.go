// Package email, uygulama genelinde email gönderimi için soyutlama katmanı sağlar.
//
// EmailSender interface'i ile gönderim detayları soyutlanır. Şu anki
// implementasyon Resend API kullanır — farklı bir sağlayıcıya geçmek için
// yeni bir implementasyon yazıp wire-up'ta değiştirmek yeterli.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// EmailSender, email gönderimi için interface.
type EmailSender interface {
	// SendBanNotice, banlanan kullanıcıya bilgilendirme email'i gönderir.
	SendBanNotice(ctx context.Context, toEmail, username string, warnings int) error
}

// resendSender, Resend API ile email gönderen EmailSender implementasyonu.
type resendSender struct {
	client    *resend.Client
	fromEmail string // Gönderici adresi (ör: noreply@hanek.app)
}

// NewResendSender, Resend API client'ı ile yeni bir EmailSender oluşturur.
//
// apiKey: Resend dashboard'dan alınan API key (re_xxxxxxxx formatında).
// fromEmail: Gönderici email adresi — Resend'de doğrulanmış domain altında olmalı.
func NewResendSender(apiKey, fromEmail string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
	}
}

// SendBanNotice, ban bilgilendirme email'i gönderir.
func (s *resendSender) SendBanNotice(ctx context.Context, toEmail, username string, warnings int) error {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #333;">
    <h2>Your account has been suspended</h2>
    <p>Hi %s,</p>
    <p>Your account received %d moderation warnings within a short period and
    has been banned from chat. If you believe this is a mistake, you can reply
    to this email to appeal.</p>
  </body>
</html>`, username, warnings)

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{toEmail},
		Subject: "Your account has been suspended — hanek",
		Html:    html,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send ban notice: %w", err)
	}

	return nil
}
