package integrations

import (
	"context"
	"errors"

	"bip-api/internal/integrations/dto"
)

var (
	// ErrRemoteNoResult - CRM ответила успешно, но без идентификатора созданной сущности.
	ErrRemoteNoResult = errors.New("CRM не вернула результат")
	// ErrRemoteNotFound - запрошенная сущность в CRM отсутствует.
	ErrRemoteNotFound = errors.New("сущность в CRM не найдена")
)

// CRMProvider - шлюз к внешней CRM. Ни одна операция не участвует в локальной
// транзакции: созданное в CRM откатить нельзя.
// Сбой транспорта или HTTP всегда возвращается ошибкой, отличной от "не найдено".
type CRMProvider interface {
	Name() string

	// FindContact ищет контакт по email или телефону. nil без ошибки - контакта нет.
	FindContact(ctx context.Context, email, phone string) (*int64, error)
	CreateContact(ctx context.Context, contact dto.CRMContactDTO) (int64, error)
	CreateCompany(ctx context.Context, company dto.CRMCompanyDTO) (int64, error)
	CreateRequisite(ctx context.Context, requisite dto.CRMRequisiteDTO) (int64, error)

	ListDeals(ctx context.Context, contactID int64, closed bool) ([]dto.CRMDealDTO, error)
	GetDeal(ctx context.Context, dealID int64) (*dto.CRMDealDTO, error)
	CreateDeal(ctx context.Context, deal dto.CRMDealCreateDTO) (int64, error)
	ListStages(ctx context.Context) ([]dto.CRMStageDTO, error)

	ListActivities(ctx context.Context, dealID int64) ([]dto.CRMActivityDTO, error)
	AddActivity(ctx context.Context, activity dto.CRMActivityCreateDTO) (int64, error)
}
