package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quizarena/game"
)

const tokenIssuer = "quizarena"

// SeatClaims identify one player seat in one game.
type SeatClaims struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	jwt.RegisteredClaims
}

// TokenService signs and checks the reconnect tokens handed to players.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService signs with secret. An empty secret is replaced by random
// bytes, so tokens only survive as long as the process.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &TokenService{secret: key, ttl: ttl, now: time.Now}, nil
}

func (s *TokenService) Issue(gameID, playerID string) (string, error) {
	now := s.now()
	claims := &SeatClaims{
		GameID:   gameID,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   playerID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature, expiry and that the token belongs to gameID. Every
// failure is game.ErrInvalidToken.
func (s *TokenService) Verify(tokenString, gameID string) (*SeatClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SeatClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", game.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*SeatClaims)
	if !ok || !token.Valid {
		return nil, game.ErrInvalidToken
	}
	if game.NormalizeCode(claims.GameID) != game.NormalizeCode(gameID) {
		return nil, fmt.Errorf("%w: %w", game.ErrInvalidToken, errors.New("token issued for another game"))
	}
	return claims, nil
}
