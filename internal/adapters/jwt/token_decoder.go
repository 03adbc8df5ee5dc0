package token_adapter

import (
	"context"
	"errors"
	"fmt"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// userClaims - полезная нагрузка токенов сервиса аутентификации маркетплейса.
type userClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenDecoder извлекает пользователя из bearer-токена.
// С ключом подписи токен проверяется полностью (HS256); без ключа
// подпись не проверяется, проверяется только срок действия.
type TokenDecoder struct {
	signingKey []byte
	now        func() time.Time
}

func NewTokenDecoder(signingKey string) *TokenDecoder {
	d := &TokenDecoder{now: time.Now}
	if signingKey != "" {
		d.signingKey = []byte(signingKey)
	}
	return d
}

func (d *TokenDecoder) Decode(ctx context.Context, tokenString string) (*domain.UserClaims, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "TokenDecoder",
		"method":    "Decode",
	})

	claims := &userClaims{}
	var err error
	if d.signingKey != nil {
		_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return d.signingKey, nil
		}, jwt.WithTimeFunc(d.now))
	} else {
		_, _, err = jwt.NewParser().ParseUnverified(tokenString, claims)
		if err == nil && claims.ExpiresAt != nil && !d.now().Before(claims.ExpiresAt.Time) {
			err = jwt.ErrTokenExpired
		}
	}

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Warn("Token has expired", port.Fields{"user_id": claims.UserID})
		} else {
			logger.Warn("Token cannot be decoded", port.Fields{"error": err.Error()})
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: user_id claim is missing", domain.ErrInvalidToken)
	}

	return &domain.UserClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
