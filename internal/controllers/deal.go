package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/services"
	apperrors "bip-api/pkg/errors"
	"bip-api/pkg/utils"
)

type DealController struct {
	dealService services.DealServiceInterface
	logger      *zap.Logger
}

func NewDealController(dealService services.DealServiceInterface, logger *zap.Logger) *DealController {
	return &DealController{dealService: dealService, logger: logger}
}

func dealIDFromQuery(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.QueryParam("deal_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError("Неверный формат deal_id")
	}
	return id, nil
}

func (ctrl *DealController) GetStages(c echo.Context) error {
	stages, err := ctrl.dealService.GetStages(c.Request().Context())
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, stages, "Стадии сделок получены", http.StatusOK)
}

func (ctrl *DealController) GetCurrentDeals(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	deals, err := ctrl.dealService.GetCurrentDeals(c.Request().Context(), claims)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, deals, "Текущие обращения получены", http.StatusOK)
}

func (ctrl *DealController) GetDealHistory(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	deals, err := ctrl.dealService.GetDealHistory(c.Request().Context(), claims)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, deals, "История обращений получена", http.StatusOK)
}

func (ctrl *DealController) GetDeal(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	dealID, err := dealIDFromQuery(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	deal, err := ctrl.dealService.GetDeal(c.Request().Context(), claims, dealID)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, deal, "Сделка получена", http.StatusOK)
}

func (ctrl *DealController) GetActivities(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	dealID, err := dealIDFromQuery(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	activities, err := ctrl.dealService.GetActivities(c.Request().Context(), claims, dealID)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, activities, "Комментарии сделки получены", http.StatusOK)
}

func (ctrl *DealController) CreateAppeal(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	var payload dto.CreateAppealDTO
	if err := bindAndValidate(c, &payload, ctrl.logger, "CreateAppeal"); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	created, err := ctrl.dealService.CreateAppeal(c.Request().Context(), claims, payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, created, "Обращение успешно создано", http.StatusCreated)
}

func (ctrl *DealController) AddActivity(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	var payload dto.AddActivityDTO
	if err := bindAndValidate(c, &payload, ctrl.logger, "AddActivity"); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	activity, err := ctrl.dealService.AddActivity(c.Request().Context(), claims, payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, activity, "Комментарий добавлен", http.StatusCreated)
}
