// Файл: main.go

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"bip-api/internal/integrations"
	"bip-api/internal/integrations/bitrix"
	"bip-api/internal/integrations/mock"
	"bip-api/internal/repositories"
	"bip-api/internal/routes"
	"bip-api/internal/services"
	"bip-api/pkg/config"
	"bip-api/pkg/customvalidator"
	"bip-api/pkg/database/migrations"
	"bip-api/pkg/database/postgresql"
	apperrors "bip-api/pkg/errors"
	applogger "bip-api/pkg/logger"
	appmw "bip-api/pkg/middleware"
	"bip-api/pkg/service"
	"bip-api/pkg/utils"
)

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	logger := applogger.NewLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	loggers := &routes.Loggers{
		Main: logger,
		Auth: logger.Named("auth"),
		User: logger.Named("user"),
		CRM:  logger.Named("crm"),
	}

	// 2. Echo и middleware
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(appmw.RequestLogger(logger.Named("http")))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
	}))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		logger.Fatal("Ошибка регистрации кастомных правил валидации", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)

	// 3. Хранилища
	ctx := context.Background()
	if cfg.Postgres.RunMigrations {
		if err := migrations.Up(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("Не удалось применить миграции", zap.Error(err))
		}
	}
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}
	defer redisClient.Close()

	// 4. CRM
	registry, err := integrations.NewRegistry(
		bitrix.New(cfg.BitrixBaseURL(), cfg.Bitrix.Timeout, loggers.CRM),
		mock.NewMockProvider(),
	)
	if err != nil {
		logger.Fatal("Ошибка регистрации CRM-провайдеров", zap.Error(err))
	}
	if err := registry.Use(cfg.Bitrix.Provider); err != nil {
		logger.Fatal("Неизвестный CRM-провайдер", zap.Error(err))
	}
	crm, err := registry.Active()
	if err != nil {
		logger.Fatal("CRM-провайдер не выбран", zap.Error(err))
	}
	logger.Info("CRM-провайдер выбран", zap.String("provider", crm.Name()))

	// 5. Сервисы и маршруты
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, logger)
	svc := buildServices(dbConn, redisClient, crm, loggers, cfg)
	routes.InitRouter(e, svc, jwtSvc, loggers, cfg)

	// 6. Запуск и корректная остановка
	go func() {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка при остановке сервера", zap.Error(err))
	}
	logger.Info("Сервер остановлен")
}

func buildServices(
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	crm integrations.CRMProvider,
	loggers *routes.Loggers,
	cfg *config.Config,
) *routes.Services {
	txManager := repositories.NewTxManager(dbConn)
	userRepo := repositories.NewUserRepository(dbConn, loggers.User)
	companyRepo := repositories.NewCompanyRepository(dbConn, loggers.Main)
	departmentRepo := repositories.NewDepartmentRepository(dbConn, loggers.Main)
	transactionRepo := repositories.NewTransactionRepository(dbConn, loggers.Main)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	journal := services.NewLinkageJournal(cacheRepo, loggers.CRM)

	return &routes.Services{
		Auth:         services.NewAuthService(userRepo, companyRepo, cacheRepo, loggers.Auth, &cfg.Auth),
		Registration: services.NewRegistrationService(txManager, userRepo, companyRepo, departmentRepo, crm, journal, loggers.Auth),
		Company:      services.NewCompanyService(txManager, userRepo, companyRepo, departmentRepo, crm, journal, loggers.User),
		Department:   services.NewDepartmentService(departmentRepo, loggers.User),
		User:         services.NewUserService(userRepo, companyRepo, loggers.User),
		Transaction:  services.NewTransactionService(transactionRepo, loggers.User),
		Deal:         services.NewDealService(crm, companyRepo, cacheRepo, journal, loggers.CRM),
	}
}
