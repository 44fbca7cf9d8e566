package entities

import "time"

type User struct {
	ID           uint64     `json:"id" db:"id"`
	Login        string     `json:"login" db:"login"`
	Password     string     `json:"-" db:"password"`
	UserType     string     `json:"user_type" db:"user_type"`
	Role         string     `json:"role" db:"role"`
	FirstName    string     `json:"first_name" db:"first_name"`
	SecondName   string     `json:"second_name" db:"second_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Birthdate    *time.Time `json:"birthdate,omitempty" db:"birthdate"`
	Phone        string     `json:"phone" db:"phone"`
	Email        string     `json:"email" db:"email"`
	Position     *string    `json:"position,omitempty" db:"position"`
	ContactID    *int64     `json:"contact_id,omitempty" db:"contact_id"`
	CompanyID    *uint64    `json:"company_id,omitempty" db:"company_id"`
	DepartmentID *uint64    `json:"department_id,omitempty" db:"department_id"`
	Balance      float64    `json:"balance" db:"balance"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// UserLinks - ссылки, которые проставляются уже после вставки строки.
// nil-поля не меняются.
type UserLinks struct {
	ContactID    *int64
	CompanyID    *uint64
	DepartmentID *uint64
}

func (l UserLinks) IsEmpty() bool {
	return l.ContactID == nil && l.CompanyID == nil && l.DepartmentID == nil
}
