package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bip-api/pkg/constants"
	"bip-api/pkg/contextkeys"
	apperrors "bip-api/pkg/errors"
	"bip-api/pkg/service"
	"bip-api/pkg/utils"
)

type AuthMiddleware struct {
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		logger:     logger,
	}
}

// Auth проверяет cookie access_token и кладёт claims в контекст запроса.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(constants.AccessTokenCookie)
		if err != nil || cookie.Value == "" {
			m.logger.Debug("AuthMiddleware: cookie access_token отсутствует")
			return utils.ErrorResponse(c, apperrors.ErrTokenNotFound, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(cookie.Value)
		if err != nil {
			m.logger.Warn("AuthMiddleware: ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		c.SetRequest(c.Request().WithContext(utils.ContextWithClaims(c.Request().Context(), claims)))
		c.Set(contextkeys.EchoClaimsKey, claims)

		m.logger.Debug("AuthMiddleware: пользователь аутентифицирован", zap.Uint64("userID", claims.UserID))
		return next(c)
	}
}
