package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/services"
	apperrors "bip-api/pkg/errors"
	"bip-api/pkg/service"
	"bip-api/pkg/utils"
)

type AuthController struct {
	authService         services.AuthServiceInterface
	registrationService services.RegistrationServiceInterface
	jwtSvc              service.JWTService
	production          bool
	logger              *zap.Logger
}

func NewAuthController(
	authService services.AuthServiceInterface,
	registrationService services.RegistrationServiceInterface,
	jwtSvc service.JWTService,
	production bool,
	logger *zap.Logger,
) *AuthController {
	return &AuthController{
		authService:         authService,
		registrationService: registrationService,
		jwtSvc:              jwtSvc,
		production:          production,
		logger:              logger,
	}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return utils.ErrorResponse(c, err, ctrl.logger)
}

func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.LoginDTO
	if err := bindAndValidate(c, &payload, ctrl.logger, "Login"); err != nil {
		return ctrl.errorResponse(c, err)
	}

	result, err := ctrl.authService.Login(c.Request().Context(), payload)
	if err != nil {
		ctrl.logger.Warn("Login: ошибка авторизации", zap.Error(err))
		return ctrl.errorResponse(c, err)
	}
	return ctrl.issueSessionAndRespond(c, result, "Авторизация прошла успешно", http.StatusOK)
}

// Logout всегда успешен, даже без cookie.
func (ctrl *AuthController) Logout(c echo.Context) error {
	c.SetCookie(utils.ClearSessionCookie(ctrl.production))
	return utils.SuccessResponse(c, nil, "Вы успешно вышли из системы", http.StatusOK)
}

func (ctrl *AuthController) RegisterIndividual(c echo.Context) error {
	var payload dto.RegisterIndividualDTO
	if err := bindAndValidate(c, &payload, ctrl.logger, "RegisterIndividual"); err != nil {
		return ctrl.errorResponse(c, err)
	}
	result, err := ctrl.registrationService.RegisterIndividual(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return ctrl.issueSessionAndRespond(c, result, "Регистрация физического лица прошла успешно", http.StatusCreated)
}

func (ctrl *AuthController) RegisterOrganization(c echo.Context) error {
	var payload dto.RegisterOrganizationDTO
	if err := bindAndValidate(c, &payload, ctrl.logger, "RegisterOrganization"); err != nil {
		return ctrl.errorResponse(c, err)
	}
	result, err := ctrl.registrationService.RegisterOrganization(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return ctrl.issueSessionAndRespond(c, result, "Регистрация организации прошла успешно", http.StatusCreated)
}

func (ctrl *AuthController) RegisterEmployee(c echo.Context) error {
	var payload dto.RegisterEmployeeDTO
	if err := bindAndValidate(c, &payload, ctrl.logger, "RegisterEmployee"); err != nil {
		return ctrl.errorResponse(c, err)
	}
	result, err := ctrl.registrationService.RegisterEmployee(c.Request().Context(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return ctrl.issueSessionAndRespond(c, result, "Регистрация сотрудника прошла успешно", http.StatusCreated)
}

// Me перечитывает пользователя и продлевает сессию свежими данными.
func (ctrl *AuthController) Me(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	result, err := ctrl.authService.Me(c.Request().Context(), claims.UserID)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	return ctrl.issueSessionAndRespond(c, result, "Данные пользователя получены", http.StatusOK)
}

func (ctrl *AuthController) issueSessionAndRespond(c echo.Context, result *dto.SessionResult, message string, code int) error {
	token, _, err := ctrl.jwtSvc.GenerateToken(dto.ClaimsFromUser(result.User))
	if err != nil {
		ctrl.logger.Error("Не удалось сгенерировать токен", zap.Uint64("userID", result.User.ID), zap.Error(err))
		return ctrl.errorResponse(c, apperrors.NewStoreError("Ошибка при создании сессии", err))
	}

	c.SetCookie(utils.NewSessionCookie(token, ctrl.jwtSvc.GetAccessTokenTTL(), ctrl.production))
	return utils.SuccessResponse(c, dto.NewAuthResponseDTO(result), message, code)
}
