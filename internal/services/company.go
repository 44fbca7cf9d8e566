package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"bip-api/internal/authz"
	"bip-api/internal/dto"
	"bip-api/internal/entities"
	"bip-api/internal/integrations"
	"bip-api/internal/repositories"
	apperrors "bip-api/pkg/errors"
)

type CompanyServiceInterface interface {
	GetInfo(ctx context.Context, claims *dto.SessionClaims) (*dto.CompanyInfoDTO, error)
	GetEmployees(ctx context.Context, claims *dto.SessionClaims) ([]dto.EmployeeDTO, error)
	AddEmployee(ctx context.Context, claims *dto.SessionClaims, payload dto.AddEmployeeDTO) (*dto.EmployeeDTO, error)
}

type CompanyService struct {
	txManager      repositories.TxManagerInterface
	userRepo       repositories.UserRepositoryInterface
	companyRepo    repositories.CompanyRepositoryInterface
	departmentRepo repositories.DepartmentRepositoryInterface
	crm            integrations.CRMProvider
	journal        LinkageJournalInterface
	logger         *zap.Logger
}

func NewCompanyService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	departmentRepo repositories.DepartmentRepositoryInterface,
	crm integrations.CRMProvider,
	journal LinkageJournalInterface,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		txManager:      txManager,
		userRepo:       userRepo,
		companyRepo:    companyRepo,
		departmentRepo: departmentRepo,
		crm:            crm,
		journal:        journal,
		logger:         logger.Named("company_service"),
	}
}

func (s *CompanyService) GetInfo(ctx context.Context, claims *dto.SessionClaims) (*dto.CompanyInfoDTO, error) {
	policy := authz.Context{Actor: claims}
	if !authz.CanDo(authz.CompanyView, policy) {
		return nil, apperrors.NewForbiddenError("Информация о компании доступна только пользователям юридического лица")
	}

	company, err := s.companyRepo.FindCompanyByID(ctx, nil, *claims.CompanyID)
	if err != nil {
		return nil, err
	}
	count, err := s.userRepo.CountCompanyEmployees(ctx, company.ID)
	if err != nil {
		return nil, err
	}

	info := &dto.CompanyInfoDTO{
		ID:             company.ID,
		Name:           company.Name,
		INN:            company.INN,
		Phone:          company.Phone,
		Email:          company.Email,
		Balance:        company.Balance,
		EmployeesCount: count,
		CreatedAt:      company.CreatedAt,
	}
	if authz.CanDo(authz.CompanyInviteTokenView, policy) {
		info.InviteToken = null.StringFrom(company.InviteToken)
	}
	return info, nil
}

func (s *CompanyService) GetEmployees(ctx context.Context, claims *dto.SessionClaims) ([]dto.EmployeeDTO, error) {
	if !authz.CanDo(authz.CompanyEmployeesView, authz.Context{Actor: claims}) {
		return nil, apperrors.NewForbiddenError("Список сотрудников доступен только руководителю")
	}

	users, err := s.userRepo.GetCompanyEmployees(ctx, *claims.CompanyID)
	if err != nil {
		return nil, err
	}
	employees := make([]dto.EmployeeDTO, 0, len(users))
	for i := range users {
		employees = append(employees, toEmployeeDTO(&users[i]))
	}
	return employees, nil
}

func toEmployeeDTO(user *entities.User) dto.EmployeeDTO {
	return dto.EmployeeDTO{
		ID:           user.ID,
		FirstName:    user.FirstName,
		SecondName:   user.SecondName,
		LastName:     user.LastName,
		Email:        user.Email,
		Phone:        user.Phone,
		Role:         user.Role,
		Position:     null.StringFromPtr(user.Position),
		DepartmentID: null.Uint64FromPtr(user.DepartmentID),
		Balance:      user.Balance,
		CreatedAt:    user.CreatedAt,
	}
}
