package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/services"
	"bip-api/pkg/utils"
)

type DepartmentController struct {
	departmentService services.DepartmentServiceInterface
	logger            *zap.Logger
}

func NewDepartmentController(service services.DepartmentServiceInterface, logger *zap.Logger) *DepartmentController {
	return &DepartmentController{departmentService: service, logger: logger}
}

func (ctrl *DepartmentController) GetDepartments(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	list, err := ctrl.departmentService.GetDepartments(c.Request().Context(), claims)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, list, "Отделы успешно получены", http.StatusOK)
}

func (ctrl *DepartmentController) CreateDepartment(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	var payload dto.CreateDepartmentDTO
	if err := bindAndValidate(c, &payload, ctrl.logger, "CreateDepartment"); err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	department, err := ctrl.departmentService.CreateDepartment(c.Request().Context(), claims, payload)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, department, "Отдел успешно создан", http.StatusCreated)
}
