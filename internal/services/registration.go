package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/entities"
	"bip-api/internal/integrations"
	crmdto "bip-api/internal/integrations/dto"
	"bip-api/internal/repositories"
	"bip-api/pkg/constants"
	apperrors "bip-api/pkg/errors"
	"bip-api/pkg/utils"
)

const maxInviteTokenAttempts = 5

var (
	ErrUserAlreadyExists    = apperrors.NewConflictError("Пользователь с таким телефоном или email уже существует", nil)
	ErrCompanyAlreadyExists = apperrors.NewConflictError("Компания с таким ИНН уже зарегистрирована", nil)
	ErrInvalidPhone         = apperrors.NewBadRequestError("Неверный формат номера телефона")
	ErrInvalidBirthdate     = apperrors.NewBadRequestError("Неверная дата рождения")
)

type RegistrationServiceInterface interface {
	RegisterIndividual(ctx context.Context, payload dto.RegisterIndividualDTO) (*dto.SessionResult, error)
	RegisterOrganization(ctx context.Context, payload dto.RegisterOrganizationDTO) (*dto.SessionResult, error)
	RegisterEmployee(ctx context.Context, payload dto.RegisterEmployeeDTO) (*dto.SessionResult, error)
}

type RegistrationService struct {
	txManager      repositories.TxManagerInterface
	userRepo       repositories.UserRepositoryInterface
	companyRepo    repositories.CompanyRepositoryInterface
	departmentRepo repositories.DepartmentRepositoryInterface
	crm            integrations.CRMProvider
	journal        LinkageJournalInterface
	newToken       func(length int) (string, error)
	logger         *zap.Logger
}

func NewRegistrationService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	departmentRepo repositories.DepartmentRepositoryInterface,
	crm integrations.CRMProvider,
	journal LinkageJournalInterface,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		txManager:      txManager,
		userRepo:       userRepo,
		companyRepo:    companyRepo,
		departmentRepo: departmentRepo,
		crm:            crm,
		journal:        journal,
		newToken:       utils.GenerateInviteToken,
		logger:         logger.Named("registration_service"),
	}
}

// applicant - общие для всех видов регистрации поля после нормализации.
type applicant struct {
	phone        string
	email        string
	passwordHash string
	contactID    *int64
}

// checkNewUser нормализует телефон и email и проверяет, что они свободны.
func (s *RegistrationService) checkNewUser(ctx context.Context, rawPhone, rawEmail string) (string, string, error) {
	phone, err := utils.NormalizeRussianPhoneNumber(rawPhone)
	if err != nil {
		return "", "", ErrInvalidPhone
	}
	email := strings.ToLower(strings.TrimSpace(rawEmail))

	exists, err := s.userRepo.ExistsByPhoneOrEmail(ctx, phone, email)
	if err != nil {
		return "", "", err
	}
	if exists {
		return "", "", ErrUserAlreadyExists
	}
	return phone, email, nil
}

// resolveApplicant ищет контакт в CRM и хеширует пароль. Выполняется до
// открытия транзакции.
func (s *RegistrationService) resolveApplicant(ctx context.Context, phone, email, password string) (*applicant, error) {
	contactID, err := s.crm.FindContact(ctx, email, phone)
	if err != nil {
		return nil, crmError("поиск контакта", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperrors.NewStoreError("Ошибка обработки пароля", err)
	}

	return &applicant{phone: phone, email: email, passwordHash: hash, contactID: contactID}, nil
}

func (s *RegistrationService) prepareApplicant(ctx context.Context, rawPhone, rawEmail, password string) (*applicant, error) {
	phone, email, err := s.checkNewUser(ctx, rawPhone, rawEmail)
	if err != nil {
		return nil, err
	}
	return s.resolveApplicant(ctx, phone, email, password)
}

// crmError превращает любую ошибку CRM (сеть, таймаут, пустой результат)
// в upstream-ошибку. Текст ответа CRM клиенту не попадает.
func crmError(step string, err error) error {
	return apperrors.NewUpstreamError("Ошибка CRM: "+step, err)
}

// createRemoteContact создаёт контакт в CRM и отмечает его в trail.
func createRemoteContact(ctx context.Context, crm integrations.CRMProvider, trail *remoteTrail, contact crmdto.CRMContactDTO) (int64, error) {
	id, err := crm.CreateContact(ctx, contact)
	if err != nil {
		return 0, crmError("создание контакта", err)
	}
	trail.add(LinkageEntityContact, id)
	return id, nil
}

func (s *RegistrationService) RegisterIndividual(ctx context.Context, payload dto.RegisterIndividualDTO) (*dto.SessionResult, error) {
	birthdate, err := utils.ParseBirthdate(payload.Birthdate)
	if err != nil {
		return nil, ErrInvalidBirthdate
	}
	a, err := s.prepareApplicant(ctx, payload.Phone, payload.Email, payload.Password)
	if err != nil {
		return nil, err
	}

	login := strings.TrimSpace(payload.Login)
	if login == "" {
		login = a.email
	}

	trail := newRemoteTrail("register_individual")
	var user *entities.User
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		userID, err := s.userRepo.CreateUser(ctx, tx, &entities.User{
			Login:      login,
			Password:   a.passwordHash,
			UserType:   constants.UserTypePhysical,
			Role:       constants.RoleUser,
			FirstName:  payload.FirstName,
			SecondName: payload.SecondName,
			LastName:   payload.LastName,
			Birthdate:  &birthdate,
			Phone:      a.phone,
			Email:      a.email,
			ContactID:  a.contactID,
		})
		if err != nil {
			return err
		}

		if a.contactID == nil {
			contactID, err := createRemoteContact(ctx, s.crm, trail, crmdto.CRMContactDTO{
				FirstName:  payload.FirstName,
				SecondName: payload.SecondName,
				LastName:   payload.LastName,
				Birthdate:  &birthdate,
				Phone:      a.phone,
				Email:      a.email,
			})
			if err != nil {
				return err
			}
			if err := s.userRepo.UpdateUserLinks(ctx, tx, userID, entities.UserLinks{ContactID: &contactID}); err != nil {
				return err
			}
		}

		user, err = s.userRepo.FindUserByID(ctx, tx, userID)
		return err
	})
	if err := trail.settle(ctx, s.journal, s.logger, err); err != nil {
		return nil, err
	}

	s.logger.Info("Зарегистрировано физическое лицо", zap.Uint64("userID", user.ID))
	return &dto.SessionResult{User: user}, nil
}

func (s *RegistrationService) RegisterOrganization(ctx context.Context, payload dto.RegisterOrganizationDTO) (*dto.SessionResult, error) {
	exists, err := s.companyRepo.ExistsByINN(ctx, payload.INN)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCompanyAlreadyExists
	}
	a, err := s.prepareApplicant(ctx, payload.Phone, payload.Email, payload.Password)
	if err != nil {
		return nil, err
	}

	trail := newRemoteTrail("register_organization")
	var (
		user    *entities.User
		company *entities.Company
	)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		userID, err := s.userRepo.CreateUser(ctx, tx, &entities.User{
			Login:      a.email,
			Password:   a.passwordHash,
			UserType:   constants.UserTypeLegal,
			Role:       constants.RoleHead,
			FirstName:  payload.FirstName,
			SecondName: payload.SecondName,
			LastName:   payload.LastName,
			Phone:      a.phone,
			Email:      a.email,
			ContactID:  a.contactID,
		})
		if err != nil {
			return err
		}

		token, err := s.uniqueInviteToken(ctx, tx)
		if err != nil {
			return err
		}

		companyID, err := s.companyRepo.CreateCompany(ctx, tx, &entities.Company{
			Name:        payload.CompanyName,
			INN:         payload.INN,
			InviteToken: token,
			Phone:       a.phone,
			Email:       a.email,
			CreatorID:   &userID,
		})
		if err != nil {
			return err
		}

		department, err := s.departmentRepo.CreateDepartment(ctx, tx, &entities.Department{
			CompanyID: companyID,
			Name:      constants.DefaultDepartmentName,
		})
		if err != nil {
			return err
		}

		crmCompanyID, err := s.crm.CreateCompany(ctx, crmdto.CRMCompanyDTO{
			Title: payload.CompanyName,
			Phone: a.phone,
			Email: a.email,
		})
		if err != nil {
			return crmError("создание компании", err)
		}
		trail.add(LinkageEntityCompany, crmCompanyID)

		requisiteID, err := s.crm.CreateRequisite(ctx, crmdto.CRMRequisiteDTO{
			CompanyID: crmCompanyID,
			INN:       payload.INN,
			Name:      payload.CompanyName,
		})
		if err != nil {
			return crmError("создание реквизитов компании", err)
		}
		trail.add(LinkageEntityRequisite, requisiteID)

		links := entities.UserLinks{CompanyID: &companyID, DepartmentID: &department.ID}
		if a.contactID == nil {
			contactID, err := createRemoteContact(ctx, s.crm, trail, crmdto.CRMContactDTO{
				FirstName:  payload.FirstName,
				SecondName: payload.SecondName,
				LastName:   payload.LastName,
				Phone:      a.phone,
				Email:      a.email,
				CompanyID:  &crmCompanyID,
			})
			if err != nil {
				return err
			}
			links.ContactID = &contactID
		}

		if err := s.userRepo.UpdateUserLinks(ctx, tx, userID, links); err != nil {
			return err
		}
		if err := s.companyRepo.UpdateBitrixCompanyID(ctx, tx, companyID, crmCompanyID); err != nil {
			return err
		}

		if user, err = s.userRepo.FindUserByID(ctx, tx, userID); err != nil {
			return err
		}
		company, err = s.companyRepo.FindCompanyByID(ctx, tx, companyID)
		return err
	})
	if err := trail.settle(ctx, s.journal, s.logger, err); err != nil {
		return nil, err
	}

	s.logger.Info("Зарегистрирована организация",
		zap.Uint64("userID", user.ID),
		zap.Uint64("companyID", company.ID),
	)
	return &dto.SessionResult{User: user, Company: company, CompanyToken: company.InviteToken}, nil
}

// uniqueInviteToken генерирует токен, которого ещё нет ни у одной компании.
// Число попыток ограничено; на случай гонки остаётся уникальный индекс.
func (s *RegistrationService) uniqueInviteToken(ctx context.Context, tx pgx.Tx) (string, error) {
	for attempt := 0; attempt < maxInviteTokenAttempts; attempt++ {
		token, err := s.newToken(constants.InviteTokenLength)
		if err != nil {
			return "", apperrors.NewStoreError("Ошибка генерации токена приглашения", err)
		}
		taken, err := s.companyRepo.ExistsByInviteToken(ctx, tx, token)
		if err != nil {
			return "", err
		}
		if !taken {
			return token, nil
		}
		s.logger.Warn("Коллизия токена приглашения, повторная генерация", zap.Int("attempt", attempt+1))
	}
	return "", apperrors.NewStoreError("Не удалось сгенерировать уникальный токен приглашения",
		fmt.Errorf("исчерпано %d попыток", maxInviteTokenAttempts))
}

func (s *RegistrationService) RegisterEmployee(ctx context.Context, payload dto.RegisterEmployeeDTO) (*dto.SessionResult, error) {
	phone, email, err := s.checkNewUser(ctx, payload.Phone, payload.Email)
	if err != nil {
		return nil, err
	}

	company, err := s.companyRepo.FindCompanyByInviteToken(ctx, payload.CompanyToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			return nil, apperrors.NewNotFoundError("Компания с таким токеном не найдена")
		}
		return nil, err
	}

	a, err := s.resolveApplicant(ctx, phone, email, payload.Password)
	if err != nil {
		return nil, err
	}

	position := strings.TrimSpace(payload.Position)
	trail := newRemoteTrail("register_employee")
	var user *entities.User
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		department, err := s.defaultDepartment(ctx, tx, company.ID)
		if err != nil {
			return err
		}

		userID, err := s.userRepo.CreateUser(ctx, tx, &entities.User{
			Login:        a.email,
			Password:     a.passwordHash,
			UserType:     constants.UserTypeLegal,
			Role:         constants.RoleEmployee,
			FirstName:    payload.FirstName,
			SecondName:   payload.SecondName,
			LastName:     payload.LastName,
			Phone:        a.phone,
			Email:        a.email,
			Position:     &position,
			ContactID:    a.contactID,
			CompanyID:    &company.ID,
			DepartmentID: &department.ID,
		})
		if err != nil {
			return err
		}

		if a.contactID == nil {
			contactID, err := createRemoteContact(ctx, s.crm, trail, crmdto.CRMContactDTO{
				FirstName:  payload.FirstName,
				SecondName: payload.SecondName,
				LastName:   payload.LastName,
				Phone:      a.phone,
				Email:      a.email,
				CompanyID:  company.BitrixCompanyID,
			})
			if err != nil {
				return err
			}
			if err := s.userRepo.UpdateUserLinks(ctx, tx, userID, entities.UserLinks{ContactID: &contactID}); err != nil {
				return err
			}
		}

		user, err = s.userRepo.FindUserByID(ctx, tx, userID)
		return err
	})
	if err := trail.settle(ctx, s.journal, s.logger, err); err != nil {
		return nil, err
	}

	s.logger.Info("Зарегистрирован сотрудник по приглашению",
		zap.Uint64("userID", user.ID),
		zap.Uint64("companyID", company.ID),
	)
	return &dto.SessionResult{User: user, Company: company}, nil
}

// defaultDepartment возвращает первый отдел компании, а если отделов нет,
// создаёт основной.
func (s *RegistrationService) defaultDepartment(ctx context.Context, tx pgx.Tx, companyID uint64) (*entities.Department, error) {
	department, err := s.departmentRepo.FindDefaultDepartment(ctx, tx, companyID)
	if err == nil {
		return department, nil
	}
	if !errors.Is(err, repositories.ErrDepartmentNotFound) {
		return nil, err
	}
	return s.departmentRepo.CreateDepartment(ctx, tx, &entities.Department{
		CompanyID: companyID,
		Name:      constants.DefaultDepartmentName,
	})
}
