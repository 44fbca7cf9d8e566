package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type UserInfoDTO struct {
	ID           uint64             `json:"id"`
	Login        string             `json:"login"`
	UserType     string             `json:"user_type"`
	Role         string             `json:"role"`
	FirstName    string             `json:"first_name"`
	SecondName   string             `json:"second_name"`
	LastName     string             `json:"last_name"`
	Birthdate    null.Time          `json:"birthdate"`
	Phone        string             `json:"phone"`
	Email        string             `json:"email"`
	Position     null.String        `json:"position"`
	ContactID    null.Int64         `json:"contact_id"`
	DepartmentID null.Uint64        `json:"department_id"`
	Balance      float64            `json:"balance"`
	CreatedAt    time.Time          `json:"created_at"`
	Company      *CompanySummaryDTO `json:"company,omitempty"`
}
