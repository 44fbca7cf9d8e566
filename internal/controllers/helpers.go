package controllers

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	apperrors "bip-api/pkg/errors"
	"bip-api/pkg/utils"
)

// bindAndValidate разбирает тело запроса и проверяет его тегами validate.
func bindAndValidate(c echo.Context, payload interface{}, logger *zap.Logger, action string) error {
	if err := c.Bind(payload); err != nil {
		logger.Warn(action+": ошибка привязки данных", zap.Error(err))
		return apperrors.NewBadRequestError("Неверный формат данных запроса")
	}
	if err := c.Validate(payload); err != nil {
		logger.Warn(action+": ошибка валидации данных", zap.Error(err))
		return err
	}
	return nil
}

func claimsFrom(c echo.Context) (*dto.SessionClaims, error) {
	return utils.GetClaimsFromContext(c.Request().Context())
}
