package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/pkg/ctxutil"
	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

// AuthService verifies access tokens issued by the account service. The
// user id is the token subject.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// IssueToken signs a token for userID. Used by tooling and tests; the
	// service itself never hands tokens to clients.
	IssueToken(userID uuid.UUID, ttl time.Duration) (string, error)
}

type JWTClaims struct {
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey []byte
}

func NewAuthService(log *logger.Logger, jwtSecretKey string) (AuthService, error) {
	if strings.TrimSpace(jwtSecretKey) == "" {
		return nil, fmt.Errorf("jwt secret key is empty")
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: []byte(jwtSecretKey),
	}, nil
}

func (as *authService) IssueToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", sferrors.InvalidArgument("issue token", "user id required")
	}
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecretKey)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, sferrors.New(sferrors.ErrUnauthorized, "verify token", errors.New("missing token"))
	}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) { return as.jwtSecretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		as.log.Debug("Token rejected", "error", err)
		return ctx, sferrors.New(sferrors.ErrUnauthorized, "verify token", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, sferrors.New(sferrors.ErrUnauthorized, "verify token", errors.New("invalid or expired token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, sferrors.New(sferrors.ErrUnauthorized, "verify token", fmt.Errorf("invalid subject: %w", err))
	}
	if userID == uuid.Nil {
		return ctx, sferrors.New(sferrors.ErrUnauthorized, "verify token", errors.New("empty subject"))
	}
	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	})
	return ctx, nil
}
