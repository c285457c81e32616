// Package repository, veritabanı erişim katmanıdır.
//
// Her aggregate için iki dosya vardır: interface tanımı (xxx_repository.go)
// ve SQLite implementasyonu (sqlite_xxx.go). Service ve moderation katmanları
// sadece interface'lere bağımlıdır — testlerde fake implementasyon kullanılır.
package repository

import (
	"context"

	"github.com/akinalp/hanek/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
//
// ReadBanState / WriteBanState, ModerationGate'in durable store kontratıdır:
// cache miss'te okunur, ban threshold'unda geri yazılır. WriteBanState
// idempotent'tir — aynı final değerlerle birden fazla kez çağrılması güvenlidir.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ReadBanState(ctx context.Context, userID string) (models.BanState, error)
	WriteBanState(ctx context.Context, userID string, state models.BanState) error
}
