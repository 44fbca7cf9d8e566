package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"bip-api/internal/authz"
	"bip-api/internal/dto"
	"bip-api/internal/entities"
	"bip-api/internal/repositories"
	apperrors "bip-api/pkg/errors"
)

type DepartmentServiceInterface interface {
	CreateDepartment(ctx context.Context, claims *dto.SessionClaims, payload dto.CreateDepartmentDTO) (*dto.DepartmentDTO, error)
	GetDepartments(ctx context.Context, claims *dto.SessionClaims) (*dto.DepartmentListDTO, error)
}

type DepartmentService struct {
	departmentRepository repositories.DepartmentRepositoryInterface
	logger               *zap.Logger
}

func NewDepartmentService(departmentRepository repositories.DepartmentRepositoryInterface, logger *zap.Logger) *DepartmentService {
	return &DepartmentService{
		departmentRepository: departmentRepository,
		logger:               logger.Named("department_service"),
	}
}

func (s *DepartmentService) CreateDepartment(ctx context.Context, claims *dto.SessionClaims, payload dto.CreateDepartmentDTO) (*dto.DepartmentDTO, error) {
	if !authz.CanDo(authz.DepartmentCreate, authz.Context{Actor: claims}) {
		return nil, apperrors.NewForbiddenError("Создавать отделы может только руководитель компании")
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, apperrors.NewBadRequestError("Название отдела не может быть пустым")
	}

	department, err := s.departmentRepository.CreateDepartment(ctx, nil, &entities.Department{
		CompanyID: *claims.CompanyID,
		Name:      name,
	})
	if err != nil {
		s.logger.Error("Ошибка при создании отдела", zap.Uint64("companyID", *claims.CompanyID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Отдел успешно создан", zap.Uint64("departmentID", department.ID))
	result := toDepartmentDTO(department)
	return &result, nil
}

func (s *DepartmentService) GetDepartments(ctx context.Context, claims *dto.SessionClaims) (*dto.DepartmentListDTO, error) {
	if !authz.CanDo(authz.DepartmentView, authz.Context{Actor: claims}) {
		return nil, apperrors.NewForbiddenError("Отделы доступны только пользователям юридического лица")
	}

	departments, err := s.departmentRepository.GetDepartmentsByCompany(ctx, *claims.CompanyID)
	if err != nil {
		s.logger.Error("Ошибка при получении списка отделов", zap.Error(err))
		return nil, err
	}

	list := &dto.DepartmentListDTO{
		Departments: make([]dto.DepartmentDTO, 0, len(departments)),
		TotalCount:  len(departments),
	}
	for i := range departments {
		list.Departments = append(list.Departments, toDepartmentDTO(&departments[i]))
	}
	return list, nil
}

func toDepartmentDTO(d *entities.Department) dto.DepartmentDTO {
	return dto.DepartmentDTO{
		ID:        d.ID,
		CompanyID: d.CompanyID,
		Name:      d.Name,
		Balance:   d.Balance,
		CreatedAt: d.CreatedAt,
	}
}
