package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"bip-api/internal/entities"
	apperrors "bip-api/pkg/errors"
)

const transactionTable = "transactions"

type TransactionRepositoryInterface interface {
	GetTransactionsByUser(ctx context.Context, userID uint64) ([]entities.Transaction, error)
}

type TransactionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewTransactionRepository(storage *pgxpool.Pool, logger *zap.Logger) TransactionRepositoryInterface {
	return &TransactionRepository{storage: storage, logger: logger}
}

func (r *TransactionRepository) GetTransactionsByUser(ctx context.Context, userID uint64) ([]entities.Transaction, error) {
	query, args, err := psql.Select("id", "user_id", "amount", "transaction_type", "created_at").
		From(transactionTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("Ошибка получения транзакций", err)
	}
	defer rows.Close()

	transactions := make([]entities.Transaction, 0)
	for rows.Next() {
		var t entities.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.TransactionType, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
