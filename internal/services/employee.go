package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"bip-api/internal/authz"
	"bip-api/internal/dto"
	"bip-api/internal/entities"
	crmdto "bip-api/internal/integrations/dto"
	"bip-api/internal/repositories"
	"bip-api/pkg/constants"
	apperrors "bip-api/pkg/errors"
	"bip-api/pkg/utils"
)

var (
	ErrDepartmentRequired     = apperrors.NewBadRequestError("Для роли 'Сотрудник' необходимо указать department_id")
	ErrDepartmentNotInCompany = apperrors.NewBadRequestError("Указанный отдел не существует или не принадлежит компании")
)

// AddEmployee создаёт сотрудника от имени руководителя. Контакт в CRM
// создаётся внутри транзакции; сбой CRM откатывает вставку.
func (s *CompanyService) AddEmployee(ctx context.Context, claims *dto.SessionClaims, payload dto.AddEmployeeDTO) (*dto.EmployeeDTO, error) {
	departmentID := payload.DepartmentID.Ptr()
	policy := authz.Context{
		Actor:              claims,
		TargetCompanyID:    claims.CompanyID,
		TargetDepartmentID: departmentID,
		TargetRole:         payload.Role,
	}
	if !authz.CanDo(authz.EmployeeAdd, policy) {
		return nil, apperrors.NewForbiddenError("Недостаточно прав для добавления сотрудника с этой ролью в этот отдел")
	}
	if payload.Role == constants.RoleEmployee && departmentID == nil {
		return nil, ErrDepartmentRequired
	}

	companyID := *claims.CompanyID
	logger := s.logger.With(zap.Uint64("companyID", companyID), zap.Uint64("actorID", claims.UserID))

	company, err := s.companyRepo.FindCompanyByID(ctx, nil, companyID)
	if err != nil {
		return nil, err
	}
	if company.BitrixCompanyID == nil {
		return nil, apperrors.NewUpstreamError("Не найден CRM ID компании", nil)
	}

	if departmentID != nil {
		if _, err := s.departmentRepo.FindDepartmentInCompany(ctx, *departmentID, companyID); err != nil {
			if errors.Is(err, repositories.ErrDepartmentNotFound) {
				return nil, ErrDepartmentNotInCompany
			}
			return nil, err
		}
	}

	phone, err := utils.NormalizeRussianPhoneNumber(payload.Phone)
	if err != nil {
		return nil, ErrInvalidPhone
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	exists, err := s.userRepo.ExistsByPhoneOrEmail(ctx, phone, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, apperrors.NewStoreError("Ошибка обработки пароля", err)
	}

	var position *string
	if p := strings.TrimSpace(payload.Position); p != "" {
		position = &p
	}

	trail := newRemoteTrail("add_employee")
	var user *entities.User
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		userID, err := s.userRepo.CreateUser(ctx, tx, &entities.User{
			Login:        phone,
			Password:     hash,
			UserType:     constants.UserTypeLegal,
			Role:         payload.Role,
			FirstName:    payload.FirstName,
			SecondName:   payload.SecondName,
			LastName:     payload.LastName,
			Phone:        phone,
			Email:        email,
			Position:     position,
			CompanyID:    &companyID,
			DepartmentID: departmentID,
		})
		if err != nil {
			return err
		}

		contactID, err := createRemoteContact(ctx, s.crm, trail, crmdto.CRMContactDTO{
			FirstName:  payload.FirstName,
			SecondName: payload.SecondName,
			LastName:   payload.LastName,
			Phone:      phone,
			Email:      email,
			CompanyID:  company.BitrixCompanyID,
		})
		if err != nil {
			return err
		}
		if err := s.userRepo.UpdateUserLinks(ctx, tx, userID, entities.UserLinks{ContactID: &contactID}); err != nil {
			return err
		}

		user, err = s.userRepo.FindUserByID(ctx, tx, userID)
		return err
	})
	if err := trail.settle(ctx, s.journal, logger, err); err != nil {
		return nil, err
	}

	logger.Info("Сотрудник добавлен", zap.Uint64("userID", user.ID), zap.String("role", user.Role))
	employee := toEmployeeDTO(user)
	return &employee, nil
}
