package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bip-api/internal/controllers"
)

func runUserRouter(secureGroup *echo.Group, svc *Services, logger *zap.Logger) {
	userCtrl := controllers.NewUserController(svc.User, logger)
	secureGroup.GET("/user/get-info", userCtrl.GetInfo)
}
