package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"bip-api/pkg/config"
	"bip-api/pkg/database/migrations"
	"bip-api/pkg/database/postgresql"
	"bip-api/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runMigrations := flag.Bool("migrate", false, "Применить миграции перед наполнением")
	runTransactions := flag.Bool("transactions", false, "Добавить демонстрационные операции пользователю")
	userID := flag.Uint64("user", 0, "ID пользователя для -transactions")

	flag.Parse()

	if !*runMigrations && !*runTransactions {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -migrate")
		log.Println("  go run ./seeders/cmd/seed -transactions -user 1")
		log.Println("======================================================")
		return
	}
	if *runTransactions && *userID == 0 {
		log.Fatal("❌ Для -transactions нужен -user")
	}

	cfg := config.New()
	logger := zap.NewNop()

	if *runMigrations {
		if err := migrations.Up(cfg.Postgres.DSN, logger); err != nil {
			log.Fatalf("❌ Ошибка миграций: %v", err)
		}
		log.Println("✅ Миграции применены")
	}

	if *runTransactions {
		dbPool, err := postgresql.ConnectDB(context.Background(), cfg.Postgres.DSN, logger)
		if err != nil {
			log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
		}
		defer dbPool.Close()
		seeders.SeedDemoTransactions(dbPool, *userID)
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
