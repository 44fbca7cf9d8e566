package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/repositories"
	"bip-api/pkg/constants"
)

type UserServiceInterface interface {
	GetInfo(ctx context.Context, userID uint64) (*dto.UserInfoDTO, error)
}

type UserService struct {
	userRepo    repositories.UserRepositoryInterface
	companyRepo repositories.CompanyRepositoryInterface
	logger      *zap.Logger
}

func NewUserService(
	userRepo repositories.UserRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		logger:      logger.Named("user_service"),
	}
}

// GetInfo - профиль пользователя. Для юрлица добавляется сводка по компании.
func (s *UserService) GetInfo(ctx context.Context, userID uint64) (*dto.UserInfoDTO, error) {
	user, err := s.userRepo.FindUserByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	info := &dto.UserInfoDTO{
		ID:           user.ID,
		Login:        user.Login,
		UserType:     user.UserType,
		Role:         user.Role,
		FirstName:    user.FirstName,
		SecondName:   user.SecondName,
		LastName:     user.LastName,
		Birthdate:    null.TimeFromPtr(user.Birthdate),
		Phone:        user.Phone,
		Email:        user.Email,
		Position:     null.StringFromPtr(user.Position),
		ContactID:    null.Int64FromPtr(user.ContactID),
		DepartmentID: null.Uint64FromPtr(user.DepartmentID),
		Balance:      user.Balance,
		CreatedAt:    user.CreatedAt,
	}

	if user.UserType == constants.UserTypeLegal && user.CompanyID != nil {
		company, err := s.companyRepo.FindCompanyByID(ctx, nil, *user.CompanyID)
		if err != nil {
			s.logger.Warn("Компания пользователя не найдена", zap.Uint64("userID", userID), zap.Error(err))
			return nil, err
		}
		info.Company = dto.NewCompanySummaryDTO(company)
	}
	return info, nil
}
