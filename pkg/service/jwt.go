package service

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	apperrors "bip-api/pkg/errors"
)

type JwtCustomClaim struct {
	dto.SessionClaims
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateToken(claims dto.SessionClaims) (string, time.Time, error)
	ValidateToken(tokenString string) (*dto.SessionClaims, error)
	GetAccessTokenTTL() time.Duration
}

type jwtService struct {
	secretKey      []byte
	accessTokenExp time.Duration
	now            func() time.Time
	logger         *zap.Logger
}

func NewJWTService(secretKey string, accessTokenExp time.Duration, logger *zap.Logger) JWTService {
	return newJWTServiceWithClock(secretKey, accessTokenExp, time.Now, logger)
}

func newJWTServiceWithClock(secretKey string, accessTokenExp time.Duration, now func() time.Time, logger *zap.Logger) *jwtService {
	return &jwtService{
		secretKey:      []byte(secretKey),
		accessTokenExp: accessTokenExp,
		now:            now,
		logger:         logger.Named("jwt"),
	}
}

func (s *jwtService) GenerateToken(claims dto.SessionClaims) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.accessTokenExp)

	tokenClaims := &JwtCustomClaim{
		SessionClaims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *jwtService) GetAccessTokenTTL() time.Duration {
	return s.accessTokenExp
}

// ValidateToken различает истёкший токен и любой другой невалидный.
func (s *jwtService) ValidateToken(tokenString string) (*dto.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaim{}, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("Срок действия токена истёк")
			return nil, apperrors.ErrTokenExpired
		}
		s.logger.Debug("Ошибка парсинга или проверки подписи токена", zap.Error(err))
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*JwtCustomClaim)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	result := claims.SessionClaims
	result.Subject = claims.RegisteredClaims.Subject
	if claims.ExpiresAt != nil {
		result.Expiry = claims.ExpiresAt.Time
	}
	return &result, nil
}
