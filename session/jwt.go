package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"todolist/models"
)

const jwtIssuer = "todolist"

// JWTTokens issues stateless HS256 tokens. Nothing is stored server-side,
// so Revoke cannot invalidate a token before it expires.
type JWTTokens struct {
	secret []byte
}

func NewJWTTokens(secret []byte) (*JWTTokens, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	return &JWTTokens{secret: secret}, nil
}

func (j *JWTTokens) Issue(ctx context.Context, s models.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    jwtIssuer,
		Subject:   s.UserID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (j *JWTTokens) Resolve(ctx context.Context, token string) (models.Session, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.Session{}, models.ErrUnauthorized
	}

	s := models.Session{Token: token, UserID: claims.Subject}
	if claims.IssuedAt != nil {
		s.CreatedAt = claims.IssuedAt.UTC()
	}
	s.ExpiresAt = claims.ExpiresAt.UTC()
	return s, nil
}

func (j *JWTTokens) Revoke(ctx context.Context, token string) error {
	return nil
}
