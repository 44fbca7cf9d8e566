package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bip-api/internal/controllers"
	"bip-api/internal/services"
	"bip-api/pkg/config"
	"bip-api/pkg/middleware"
	"bip-api/pkg/service"
)

const apiVersion = "1.0.0"

type Loggers struct {
	Main *zap.Logger
	Auth *zap.Logger
	User *zap.Logger
	CRM  *zap.Logger
}

// Services - готовые сервисы, которые раздаются роутерам.
type Services struct {
	Auth         services.AuthServiceInterface
	Registration services.RegistrationServiceInterface
	Company      services.CompanyServiceInterface
	Department   services.DepartmentServiceInterface
	User         services.UserServiceInterface
	Transaction  services.TransactionServiceInterface
	Deal         services.DealServiceInterface
}

func InitRouter(e *echo.Echo, svc *Services, jwtSvc service.JWTService, loggers *Loggers, cfg *config.Config) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	authMW := middleware.NewAuthMiddleware(jwtSvc, loggers.Auth)

	e.GET("/api", healthCheck)

	runAuthRouter(e, svc, jwtSvc, authMW, loggers.Auth, cfg)

	secureGroup := e.Group("", authMW.Auth)
	runPersonalAccountRouter(secureGroup, svc, loggers.User)
	runUserRouter(secureGroup, svc, loggers.User)
	runTransactionRouter(secureGroup, svc, loggers.User)
	runDealRouter(secureGroup, svc, loggers.CRM)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}

func healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "BIP API работает",
		"version": apiVersion,
		"status":  "ok",
	})
}

func runPersonalAccountRouter(secureGroup *echo.Group, svc *Services, logger *zap.Logger) {
	departmentCtrl := controllers.NewDepartmentController(svc.Department, logger)
	companyCtrl := controllers.NewCompanyController(svc.Company, logger)

	account := secureGroup.Group("/personal_account")
	{
		account.POST("/departaments/create", departmentCtrl.CreateDepartment)
		account.GET("/departaments/get", departmentCtrl.GetDepartments)

		account.GET("/company/info", companyCtrl.GetInfo)
		account.GET("/company/employees", companyCtrl.GetEmployees)
		account.POST("/company/add-employee", companyCtrl.AddEmployee)
	}
}

func runTransactionRouter(secureGroup *echo.Group, svc *Services, logger *zap.Logger) {
	transactionCtrl := controllers.NewTransactionController(svc.Transaction, logger)
	secureGroup.GET("/transactions/get-transactions", transactionCtrl.GetTransactions)
}

func runDealRouter(secureGroup *echo.Group, svc *Services, logger *zap.Logger) {
	dealCtrl := controllers.NewDealController(svc.Deal, logger)

	deals := secureGroup.Group("/deals")
	{
		deals.GET("/stages", dealCtrl.GetStages)
		deals.GET("/current", dealCtrl.GetCurrentDeals)
		deals.GET("/history", dealCtrl.GetDealHistory)
		deals.GET("/get-deal", dealCtrl.GetDeal)
		deals.GET("/get-activities", dealCtrl.GetActivities)
		deals.POST("/create", dealCtrl.CreateAppeal)
		deals.POST("/add-activity", dealCtrl.AddActivity)
	}
}
