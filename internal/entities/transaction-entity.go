package entities

import "time"

type Transaction struct {
	ID              uint64    `json:"id" db:"id"`
	UserID          uint64    `json:"user_id" db:"user_id"`
	Amount          float64   `json:"amount" db:"amount"`
	TransactionType string    `json:"transaction_type" db:"transaction_type"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
