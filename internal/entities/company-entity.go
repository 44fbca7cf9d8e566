package entities

import "time"

type Company struct {
	ID              uint64    `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	INN             string    `json:"inn" db:"inn"`
	InviteToken     string    `json:"-" db:"invite_token"`
	Phone           string    `json:"phone" db:"phone"`
	Email           string    `json:"email" db:"email"`
	BitrixCompanyID *int64    `json:"bitrix_company_id,omitempty" db:"bitrix_company_id"`
	Balance         float64   `json:"balance" db:"balance"`
	CreatorID       *uint64   `json:"creator_id,omitempty" db:"creator_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
