// Файл: internal/services/auth.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/entities"
	"bip-api/internal/repositories"
	"bip-api/pkg/config"
	"bip-api/pkg/constants"
	apperrors "bip-api/pkg/errors"
	"bip-api/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.SessionResult, error)
	Me(ctx context.Context, userID uint64) (*dto.SessionResult, error)
}

type AuthService struct {
	userRepo    repositories.UserRepositoryInterface
	companyRepo repositories.CompanyRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	logger      *zap.Logger
	cfg         *config.AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
	cfg *config.AuthConfig,
) AuthServiceInterface {
	return &AuthService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		cacheRepo:   cacheRepo,
		logger:      logger.Named("auth_service"),
		cfg:         cfg,
	}
}

// Login ищет пользователя по email или телефону. Отсутствие пользователя и
// неверный пароль дают одну и ту же ошибку. Счётчик попыток и блокировка
// привязаны к введённому идентификатору, поэтому несуществующий логин
// блокируется так же, как существующий.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.SessionResult, error) {
	identifier := strings.TrimSpace(payload.EmailOrPhone)
	email := strings.ToLower(identifier)
	phone, _ := utils.NormalizeRussianPhoneNumber(identifier)
	attemptKey := email
	if phone != "" {
		attemptKey = phone
	} else {
		phone = identifier
	}

	if err := s.checkLockout(ctx, attemptKey); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindUserByEmailOrPhone(ctx, email, phone)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Debug("Вход: пользователь не найден")
			s.handleFailedLoginAttempt(ctx, attemptKey)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, attemptKey)
		return nil, apperrors.ErrInvalidCredentials
	}
	s.resetLoginAttempts(ctx, attemptKey)

	result, err := s.sessionFor(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Успешный вход", zap.Uint64("userID", user.ID))
	return result, nil
}

// Me перечитывает пользователя из БД для обновления сессии.
func (s *AuthService) Me(ctx context.Context, userID uint64) (*dto.SessionResult, error) {
	user, err := s.userRepo.FindUserByID(ctx, nil, userID)
	if err != nil {
		s.logger.Warn("Me: не удалось найти пользователя", zap.Uint64("userID", userID), zap.Error(err))
		return nil, err
	}
	return s.sessionFor(ctx, user)
}

// sessionFor добавляет сводку по компании для пользователя организации.
func (s *AuthService) sessionFor(ctx context.Context, user *entities.User) (*dto.SessionResult, error) {
	result := &dto.SessionResult{User: user}
	if user.UserType != constants.UserTypeLegal || user.CompanyID == nil {
		return result, nil
	}
	company, err := s.companyRepo.FindCompanyByID(ctx, nil, *user.CompanyID)
	if err != nil {
		return nil, err
	}
	result.Company = company
	return result, nil
}

func (s *AuthService) checkLockout(ctx context.Context, identifier string) error {
	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, identifier)

	// Если ключ существует - идентификатор заблокирован
	if _, err := s.cacheRepo.Get(ctx, lockoutKey); err == nil {
		s.logger.Warn("Вход с заблокированным идентификатором")
		return apperrors.ErrAccountLocked
	}
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, identifier string) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, identifier)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Error("Не удалось увеличить счётчик попыток входа", zap.Error(err))
		return
	}
	if attempts == 1 {
		_, _ = s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, identifier)
		_ = s.cacheRepo.Set(ctx, lockoutKey, "locked", s.cfg.LockoutDuration)
		_ = s.cacheRepo.Del(ctx, attemptsKey)
		s.logger.Warn("Вход заблокирован после неудачных попыток", zap.Int64("attempts", attempts))
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, identifier string) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, identifier)
	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, identifier)
	_ = s.cacheRepo.Del(ctx, attemptsKey, lockoutKey)
}
