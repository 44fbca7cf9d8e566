package dto

import "time"

type CreateDepartmentDTO struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type DepartmentDTO struct {
	ID        uint64    `json:"id"`
	CompanyID uint64    `json:"company_id"`
	Name      string    `json:"name"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

type DepartmentListDTO struct {
	Departments []DepartmentDTO `json:"departments"`
	TotalCount  int             `json:"total_count"`
}
