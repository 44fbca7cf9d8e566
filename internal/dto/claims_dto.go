// Файл: internal/dto/claims_dto.go
package dto

import (
	"time"

	"bip-api/internal/entities"
)

// SessionClaims - данные сессии, зашитые в токен. Берутся из строки users
// в момент входа или регистрации и на сервере не хранятся.
type SessionClaims struct {
	// Subject передаётся в токене стандартным полем sub.
	Subject      string  `json:"-"`
	UserID       uint64  `json:"user_id"`
	UserType     string  `json:"user_type"`
	Role         string  `json:"role"`
	FirstName    string  `json:"first_name"`
	SecondName   string  `json:"second_name"`
	LastName     string  `json:"last_name"`
	ContactID    *int64  `json:"contact_id"`
	CompanyID    *uint64 `json:"company_id"`
	DepartmentID *uint64 `json:"department_id"`
	Position     *string `json:"position,omitempty"`

	// Expiry заполняется при проверке токена, в JSON не сериализуется.
	Expiry time.Time `json:"-"`
}

func ClaimsFromUser(user *entities.User) SessionClaims {
	subject := user.Login
	if subject == "" {
		subject = user.Email
	}
	return SessionClaims{
		Subject:      subject,
		UserID:       user.ID,
		UserType:     user.UserType,
		Role:         user.Role,
		FirstName:    user.FirstName,
		SecondName:   user.SecondName,
		LastName:     user.LastName,
		ContactID:    user.ContactID,
		CompanyID:    user.CompanyID,
		DepartmentID: user.DepartmentID,
		Position:     user.Position,
	}
}
