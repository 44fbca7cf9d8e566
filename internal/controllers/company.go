package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/services"
	"bip-api/pkg/utils"
)

type CompanyController struct {
	companyService services.CompanyServiceInterface
	logger         *zap.Logger
}

func NewCompanyController(companyService services.CompanyServiceInterface, logger *zap.Logger) *CompanyController {
	return &CompanyController{companyService: companyService, logger: logger}
}

func (ctrl *CompanyController) GetInfo(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	info, err := ctrl.companyService.GetInfo(c.Request().Context(), claims)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, info, "Информация о компании получена", http.StatusOK)
}

func (ctrl *CompanyController) GetEmployees(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	employees, err := ctrl.companyService.GetEmployees(c.Request().Context(), claims)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, employees, "Список сотрудников получен", http.StatusOK)
}

func (ctrl *CompanyController) AddEmployee(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	var payload dto.AddEmployeeDTO
	if err := bindAndValidate(c, &payload, ctrl.logger, "AddEmployee"); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	employee, err := ctrl.companyService.AddEmployee(c.Request().Context(), claims, payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, employee, "Сотрудник успешно добавлен", http.StatusCreated)
}
