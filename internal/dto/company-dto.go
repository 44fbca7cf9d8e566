package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CompanyInfoDTO struct {
	ID             uint64      `json:"id"`
	Name           string      `json:"name"`
	INN            string      `json:"inn"`
	Phone          string      `json:"phone"`
	Email          string      `json:"email"`
	Balance        float64     `json:"balance"`
	EmployeesCount uint64      `json:"employees_count"`
	InviteToken    null.String `json:"invite_token"`
	CreatedAt      time.Time   `json:"created_at"`
}

type EmployeeDTO struct {
	ID           uint64      `json:"id"`
	FirstName    string      `json:"first_name"`
	SecondName   string      `json:"second_name"`
	LastName     string      `json:"last_name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Role         string      `json:"role"`
	Position     null.String `json:"position"`
	DepartmentID null.Uint64 `json:"department_id"`
	Balance      float64     `json:"balance"`
	CreatedAt    time.Time   `json:"created_at"`
}

type AddEmployeeDTO struct {
	FirstName    string      `json:"first_name" validate:"required,max=100"`
	SecondName   string      `json:"second_name" validate:"omitempty,max=100"`
	LastName     string      `json:"last_name" validate:"required,max=100"`
	Position     string      `json:"position" validate:"omitempty,max=255"`
	Phone        string      `json:"phone" validate:"required,ru_phone"`
	Email        string      `json:"email" validate:"required,email"`
	Password     string      `json:"password" validate:"required"`
	Role         string      `json:"role" validate:"required,oneof=Сотрудник 'Руководитель отдела'"`
	DepartmentID null.Uint64 `json:"department_id"`
}
