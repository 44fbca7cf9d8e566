package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/repositories"
	apperrors "bip-api/pkg/errors"
)

const transactionsSheet = "Транзакции"

type TransactionServiceInterface interface {
	GetTransactions(ctx context.Context, userID uint64) ([]dto.TransactionDTO, error)
	ExportTransactions(ctx context.Context, userID uint64) (*bytes.Buffer, error)
}

type TransactionService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	logger          *zap.Logger
}

func NewTransactionService(transactionRepo repositories.TransactionRepositoryInterface, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		logger:          logger.Named("transaction_service"),
	}
}

func (s *TransactionService) GetTransactions(ctx context.Context, userID uint64) ([]dto.TransactionDTO, error) {
	transactions, err := s.transactionRepo.GetTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		result = append(result, dto.TransactionDTO{
			ID:              t.ID,
			Amount:          t.Amount,
			TransactionType: t.TransactionType,
			CreatedAt:       t.CreatedAt,
		})
	}
	return result, nil
}

// ExportTransactions собирает xlsx-файл с транзакциями пользователя.
func (s *TransactionService) ExportTransactions(ctx context.Context, userID uint64) (*bytes.Buffer, error) {
	transactions, err := s.GetTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return nil, s.exportError(err)
	}
	headers := []interface{}{"ID", "Сумма", "Тип операции", "Дата"}
	if err := f.SetSheetRow(transactionsSheet, "A1", &headers); err != nil {
		return nil, s.exportError(err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, s.exportError(err)
	}
	if err := f.SetCellStyle(transactionsSheet, "A1", "D1", headerStyle); err != nil {
		return nil, s.exportError(err)
	}

	for i, t := range transactions {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{t.ID, t.Amount, t.TransactionType, t.CreatedAt.Format("02.01.2006 15:04")}
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return nil, s.exportError(err)
		}
	}
	_ = f.SetColWidth(transactionsSheet, "B", "D", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, s.exportError(err)
	}
	s.logger.Info("Выгрузка транзакций", zap.Uint64("userID", userID), zap.Int("rows", len(transactions)))
	return buf, nil
}

func (s *TransactionService) exportError(err error) error {
	return apperrors.NewStoreError("Ошибка формирования Excel-файла", fmt.Errorf("excelize: %w", err))
}
