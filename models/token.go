package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, JWT access token'ın içindeki veriler (payload).
//
// Bu struct models paketinde tanımlanır çünkü birden fazla katman
// (services, ws, middleware) tarafından kullanılır — her katman models'e
// bağımlı olabilir, böylece circular dependency oluşmaz.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
