package seeders

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// demoTransaction - операция для наполнения личного кабинета.
type demoTransaction struct {
	Amount   float64
	Type     string
	DaysBack int
}

var demoTransactions = []demoTransaction{
	{Amount: 15000, Type: "Пополнение", DaysBack: 30},
	{Amount: -3200.5, Type: "Оплата услуг", DaysBack: 21},
	{Amount: -1250, Type: "Комиссия", DaysBack: 14},
	{Amount: 5000, Type: "Пополнение", DaysBack: 7},
	{Amount: -780.25, Type: "Оплата услуг", DaysBack: 2},
}

// SeedDemoTransactions добавляет пользователю демонстрационные операции
// и пересчитывает его баланс. Повторный запуск ничего не дублирует.
func SeedDemoTransactions(db *pgxpool.Pool, userID uint64) {
	ctx := context.Background()
	log.Printf("▶️  Наполнение операций пользователя %d...", userID)

	if err := seedTransactions(ctx, db, userID); err != nil {
		log.Fatalf("❌ Ошибка наполнения операций: %v", err)
	}
	log.Println("✅ Наполнение операций завершено!")
}

func seedTransactions(ctx context.Context, db *pgxpool.Pool, userID uint64) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("не удалось начать транзакцию: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists); err != nil {
		return fmt.Errorf("ошибка при проверке пользователя: %w", err)
	}
	if !exists {
		return fmt.Errorf("пользователь %d не найден", userID)
	}

	var count int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM transactions WHERE user_id = $1", userID).Scan(&count); err != nil {
		return fmt.Errorf("ошибка при подсчёте операций: %w", err)
	}
	if count > 0 {
		log.Printf("    - У пользователя уже есть %d операций. Пропускаем.", count)
		return nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, t := range demoTransactions {
		batch.Queue(
			"INSERT INTO transactions (user_id, amount, transaction_type, created_at) VALUES ($1, $2, $3, $4)",
			userID, t.Amount, t.Type, now.AddDate(0, 0, -t.DaysBack),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("не удалось вставить операции: %w", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE users SET balance = (SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1) WHERE id = $1",
		userID,
	)
	if err != nil {
		return fmt.Errorf("не удалось пересчитать баланс: %w", err)
	}
	log.Printf("    - Добавлено операций: %d", len(demoTransactions))
	return tx.Commit(ctx)
}
