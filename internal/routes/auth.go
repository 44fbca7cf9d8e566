package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"bip-api/internal/controllers"
	"bip-api/pkg/config"
	apperrors "bip-api/pkg/errors"
	"bip-api/pkg/middleware"
	"bip-api/pkg/service"
	"bip-api/pkg/utils"
)

func runAuthRouter(e *echo.Echo, svc *Services, jwtSvc service.JWTService, authMW *middleware.AuthMiddleware, logger *zap.Logger, cfg *config.Config) {
	authCtrl := controllers.NewAuthController(svc.Auth, svc.Registration, jwtSvc, cfg.IsProduction(), logger)

	authGroup := e.Group("/auth")
	if limiter := authRateLimiter(cfg.Auth.RateLimitPerMinute, logger); limiter != nil {
		authGroup.Use(limiter)
	}
	{
		authGroup.POST("/register/physical", authCtrl.RegisterIndividual)
		authGroup.POST("/register/legal", authCtrl.RegisterOrganization)
		authGroup.POST("/register/employee", authCtrl.RegisterEmployee)
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/logout", authCtrl.Logout)
		authGroup.GET("/me", authCtrl.Me, authMW.Auth)
	}
}

// authRateLimiter ограничивает число запросов с одного IP.
// requestsPerMinute <= 0 отключает ограничение.
func authRateLimiter(requestsPerMinute int, logger *zap.Logger) echo.MiddlewareFunc {
	if requestsPerMinute <= 0 {
		return nil
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	tooMany := apperrors.NewHttpError(http.StatusTooManyRequests, "Слишком много запросов. Попробуйте позже", nil, nil)
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(requestsPerMinute) / 60.0),
			Burst:     burst,
			ExpiresIn: 5 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return utils.ErrorResponse(c, apperrors.ErrBadRequest, logger)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.Warn("Превышен лимит запросов к /auth", zap.String("ip", identifier))
			return utils.ErrorResponse(c, tooMany, logger)
		},
	})
}
