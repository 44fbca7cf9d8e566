package entities

import "time"

type Department struct {
	ID        uint64    `json:"id" db:"id"`
	CompanyID uint64    `json:"company_id" db:"company_id"`
	Name      string    `json:"name" db:"name"`
	Balance   float64   `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
