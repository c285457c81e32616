package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/hanek/models"
	"github.com/akinalp/hanek/pkg"
)

// fakeUserRepo, auth testleri için in-memory UserRepository.
type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, pkg.ErrNotFound
}

func (r *fakeUserRepo) ReadBanState(_ context.Context, userID string) (models.BanState, error) {
	user, ok := r.users[userID]
	if !ok {
		return models.BanState{}, pkg.ErrNotFound
	}
	return models.BanState{Warnings: user.Warnings, Blocked: user.IsBlocked}, nil
}

func (r *fakeUserRepo) WriteBanState(_ context.Context, userID string, state models.BanState) error {
	user, ok := r.users[userID]
	if !ok {
		return pkg.ErrNotFound
	}
	user.Warnings = state.Warnings
	user.IsBlocked = state.Blocked
	return nil
}

const testSecret = "test-secret-key"

func newTestAuthService(repo *fakeUserRepo) AuthService {
	return NewAuthService(repo, testSecret, 60)
}

func register(t *testing.T, svc AuthService, username, password string) *models.User {
	t.Helper()

	user, err := svc.Register(context.Background(), &models.RegisterRequest{
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestRegister_HashesPasswordAndStripsHash(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	user := register(t, svc, "alice", "s3cretpass")

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	// Repo'daki kayıtta plaintext şifre bulunmaz.
	stored := repo.users[user.ID]
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "s3cretpass", stored.PasswordHash)
}

func TestRegister_InvalidRequestRejected(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), &models.RegisterRequest{
		Username: "x", // çok kısa
		Password: "s3cretpass",
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestLogin_ValidCredentialsReturnToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	register(t, svc, "alice", "s3cretpass")

	token, user, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "alice",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Empty(t, user.PasswordHash)

	// Üretilen token aynı service tarafından doğrulanabilir.
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	register(t, svc, "alice", "s3cretpass")

	_, _, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "alice",
		Password: "wrongpass",
	})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	// Bilinmeyen kullanıcı da aynı hatayı alır — user enumeration önlenir.
	_, _, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "nobody",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}

func TestLogin_BannedUserRefused(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	user := register(t, svc, "alice", "s3cretpass")

	repo.users[user.ID].IsBlocked = true

	_, _, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "alice",
		Password: "s3cretpass",
	})
	assert.ErrorIs(t, err, pkg.ErrBanned)
}

func TestValidateAccessToken_RejectsForgedToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)
	register(t, svc, "alice", "s3cretpass")

	token, _, err := svc.Login(context.Background(), &models.LoginRequest{
		Username: "alice",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	// Farklı secret ile kurulan service token'ı reddeder.
	other := NewAuthService(repo, "different-secret", 60)
	_, err = other.ValidateAccessToken(token)
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Bozulmuş token da reddedilir.
	_, err = svc.ValidateAccessToken(token + "x")
	assert.ErrorIs(t, err, pkg.ErrUnauthorized)
}
