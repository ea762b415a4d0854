package ops

import (
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra/auth"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenResponse — ответ на успешную выдачу токена.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenIssuer выдает RS256-токены единственному оператору из конфигурации.
// Источник правды — пара operator_user/operator_hash, без пользовательской БД.
type TokenIssuer struct {
	operatorUser string
	operatorHash string
	tokenTTL     time.Duration
	privateKey   *rsa.PrivateKey
}

func NewTokenIssuer(cfg infra.OpsConfig, privateKey *rsa.PrivateKey) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		operatorUser: cfg.OperatorUser,
		operatorHash: cfg.OperatorHash,
		tokenTTL:     ttl,
		privateKey:   privateKey,
	}
}

func (s *TokenIssuer) IssueToken(username, password string) (*TokenResponse, error) {
	// 1. Аутентификация: логин сравнивается в константное время
	if subtle.ConstantTimeCompare([]byte(username), []byte(s.operatorUser)) != 1 {
		return nil, errors.New("invalid credentials")
	}

	// 2. Проверка пароля (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(s.operatorHash), []byte(password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	// 3. Claims
	expiresAt := time.Now().Add(s.tokenTTL)
	claims := &auth.OperatorClaims{
		Operator: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "deploybot-ops",
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	// 4. Подпись закрытым ключом (RS256)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	}, nil
}
