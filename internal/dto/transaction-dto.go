package dto

import "time"

type TransactionDTO struct {
	ID              uint64    `json:"id"`
	Amount          float64   `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	CreatedAt       time.Time `json:"created_at"`
}
