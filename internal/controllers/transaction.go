package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bip-api/internal/services"
	"bip-api/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TransactionController struct {
	transactionService services.TransactionServiceInterface
	logger             *zap.Logger
}

func NewTransactionController(transactionService services.TransactionServiceInterface, logger *zap.Logger) *TransactionController {
	return &TransactionController{transactionService: transactionService, logger: logger}
}

// GetTransactions отдаёт JSON, а при ?format=xlsx - файл Excel.
func (ctrl *TransactionController) GetTransactions(c echo.Context) error {
	userID, err := utils.GetUserIDFromCtx(c.Request().Context())
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}

	if c.QueryParam("format") == "xlsx" {
		buf, err := ctrl.transactionService.ExportTransactions(c.Request().Context(), userID)
		if err != nil {
			return utils.ErrorResponse(c, err, ctrl.logger)
		}
		fileName := fmt.Sprintf("transactions_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
		return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
	}

	transactions, err := ctrl.transactionService.GetTransactions(c.Request().Context(), userID)
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, transactions, "Транзакции получены", http.StatusOK)
}
