package entities

import "time"

// LinkageRecord - сущность CRM, созданная в рамках операции, локальная часть
// которой не была сохранена. Хранится до ручной или повторной привязки.
type LinkageRecord struct {
	Entity    string    `json:"entity"`
	RemoteID  int64     `json:"remote_id"`
	Operation string    `json:"operation"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
