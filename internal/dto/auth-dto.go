package dto

import (
	"github.com/aarondl/null/v8"

	"bip-api/internal/entities"
)

type LoginDTO struct {
	EmailOrPhone string `json:"email_or_phone" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

type RegisterIndividualDTO struct {
	Login      string `json:"login" validate:"omitempty,max=100"`
	FirstName  string `json:"first_name" validate:"required,max=100"`
	SecondName string `json:"second_name" validate:"omitempty,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Birthdate  string `json:"birthdate" validate:"required,birthdate"`
	Phone      string `json:"phone" validate:"required,ru_phone"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
}

type RegisterOrganizationDTO struct {
	CompanyName string `json:"company_name" validate:"required,max=255"`
	INN         string `json:"inn" validate:"required,inn"`
	FirstName   string `json:"first_name" validate:"omitempty,max=100"`
	SecondName  string `json:"second_name" validate:"omitempty,max=100"`
	LastName    string `json:"last_name" validate:"omitempty,max=100"`
	Phone       string `json:"phone" validate:"required,ru_phone"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
}

type RegisterEmployeeDTO struct {
	FirstName    string `json:"first_name" validate:"required,max=100"`
	SecondName   string `json:"second_name" validate:"omitempty,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Position     string `json:"position" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"required,ru_phone"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	CompanyToken string `json:"company_token" validate:"required,company_token"`
}

type CompanySummaryDTO struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	INN     string  `json:"inn"`
	Balance float64 `json:"balance"`
}

// AuthResponseDTO - общий ответ регистрации и входа.
type AuthResponseDTO struct {
	UserType     string             `json:"user_type"`
	Role         string             `json:"role"`
	FirstName    string             `json:"first_name"`
	SecondName   string             `json:"second_name"`
	LastName     string             `json:"last_name"`
	Balance      float64            `json:"balance"`
	Position     null.String        `json:"position"`
	CompanyToken string             `json:"company_token,omitempty"`
	Company      *CompanySummaryDTO `json:"company,omitempty"`
}

// SessionResult - то, что возвращают сервисы входа и регистрации.
// Токен по нему выпускает контроллер.
type SessionResult struct {
	User         *entities.User
	Company      *entities.Company
	CompanyToken string
}

func NewCompanySummaryDTO(company *entities.Company) *CompanySummaryDTO {
	if company == nil {
		return nil
	}
	return &CompanySummaryDTO{
		ID:      company.ID,
		Name:    company.Name,
		INN:     company.INN,
		Balance: company.Balance,
	}
}

func NewAuthResponseDTO(result *SessionResult) AuthResponseDTO {
	user := result.User
	return AuthResponseDTO{
		UserType:     user.UserType,
		Role:         user.Role,
		FirstName:    user.FirstName,
		SecondName:   user.SecondName,
		LastName:     user.LastName,
		Balance:      user.Balance,
		Position:     null.StringFromPtr(user.Position),
		CompanyToken: result.CompanyToken,
		Company:      NewCompanySummaryDTO(result.Company),
	}
}
