package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"bip-api/internal/integrations"
	"bip-api/internal/integrations/dto"
)

const ProviderName = "mock"

// Названия операций для Fail.
const (
	OpFindContact     = "find_contact"
	OpCreateContact   = "create_contact"
	OpCreateCompany   = "create_company"
	OpCreateRequisite = "create_requisite"
	OpListDeals       = "list_deals"
	OpGetDeal         = "get_deal"
	OpCreateDeal      = "create_deal"
	OpListStages      = "list_stages"
	OpListActivities  = "list_activities"
	OpAddActivity     = "add_activity"
)

// Provider - CRM в памяти. Используется в тестах и для локального запуска
// без Bitrix (CRM_PROVIDER=mock).
type Provider struct {
	mu         sync.Mutex
	nextID     int64
	failures   map[string]error
	calls      []string
	Contacts   map[int64]dto.CRMContactDTO
	Companies  map[int64]dto.CRMCompanyDTO
	Requisites map[int64]dto.CRMRequisiteDTO
	Deals      map[int64]dto.CRMDealDTO
	Activities map[int64][]dto.CRMActivityDTO
	Stages     []dto.CRMStageDTO
}

func NewMockProvider() *Provider {
	return &Provider{
		nextID:     100,
		failures:   make(map[string]error),
		Contacts:   make(map[int64]dto.CRMContactDTO),
		Companies:  make(map[int64]dto.CRMCompanyDTO),
		Requisites: make(map[int64]dto.CRMRequisiteDTO),
		Deals:      make(map[int64]dto.CRMDealDTO),
		Activities: make(map[int64][]dto.CRMActivityDTO),
		Stages: []dto.CRMStageDTO{
			{ID: "NEW", Name: "Новая", EntityID: "DEAL_STAGE"},
			{ID: "PREPARATION", Name: "Подготовка документов", EntityID: "DEAL_STAGE"},
			{ID: "WON", Name: "Сделка выиграна", EntityID: "DEAL_STAGE"},
		},
	}
}

var _ integrations.CRMProvider = (*Provider)(nil)

func (m *Provider) Name() string {
	return ProviderName
}

// Fail заставляет операцию op возвращать err. nil снимает сбой.
func (m *Provider) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Calls возвращает операции в порядке вызова.
func (m *Provider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// begin записывает вызов и возвращает настроенный сбой. Вызывается под m.mu.
func (m *Provider) begin(op string) error {
	m.calls = append(m.calls, op)
	return m.failures[op]
}

func (m *Provider) newID() int64 {
	m.nextID++
	return m.nextID
}

func (m *Provider) FindContact(ctx context.Context, email, phone string) (*int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpFindContact); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(m.Contacts))
	for id := range m.Contacts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		c := m.Contacts[id]
		if (email != "" && c.Email == email) || (phone != "" && c.Phone == phone) {
			found := id
			return &found, nil
		}
	}
	return nil, nil
}

func (m *Provider) CreateContact(ctx context.Context, contact dto.CRMContactDTO) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpCreateContact); err != nil {
		return 0, err
	}
	id := m.newID()
	m.Contacts[id] = contact
	return id, nil
}

func (m *Provider) CreateCompany(ctx context.Context, company dto.CRMCompanyDTO) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpCreateCompany); err != nil {
		return 0, err
	}
	id := m.newID()
	m.Companies[id] = company
	return id, nil
}

func (m *Provider) CreateRequisite(ctx context.Context, requisite dto.CRMRequisiteDTO) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpCreateRequisite); err != nil {
		return 0, err
	}
	if _, ok := m.Companies[requisite.CompanyID]; !ok {
		return 0, integrations.ErrRemoteNotFound
	}
	id := m.newID()
	m.Requisites[id] = requisite
	return id, nil
}

func (m *Provider) ListDeals(ctx context.Context, contactID int64, closed bool) ([]dto.CRMDealDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpListDeals); err != nil {
		return nil, err
	}

	deals := make([]dto.CRMDealDTO, 0)
	for _, d := range m.Deals {
		if d.ContactID != nil && *d.ContactID == contactID && d.Closed == closed {
			deals = append(deals, d)
		}
	}
	sort.Slice(deals, func(i, j int) bool { return deals[i].ID > deals[j].ID })
	return deals, nil
}

func (m *Provider) GetDeal(ctx context.Context, dealID int64) (*dto.CRMDealDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpGetDeal); err != nil {
		return nil, err
	}
	deal, ok := m.Deals[dealID]
	if !ok {
		return nil, integrations.ErrRemoteNotFound
	}
	return &deal, nil
}

func (m *Provider) CreateDeal(ctx context.Context, deal dto.CRMDealCreateDTO) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpCreateDeal); err != nil {
		return 0, err
	}
	id := m.newID()
	now := time.Now()
	m.Deals[id] = dto.CRMDealDTO{
		ID:         id,
		Title:      deal.Title,
		StageID:    "NEW",
		CategoryID: deal.CategoryID,
		ContactID:  deal.ContactID,
		CompanyID:  deal.CompanyID,
		Comments:   deal.Comments,
		CreatedAt:  &now,
	}
	return id, nil
}

func (m *Provider) ListStages(ctx context.Context) ([]dto.CRMStageDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpListStages); err != nil {
		return nil, err
	}
	return append([]dto.CRMStageDTO(nil), m.Stages...), nil
}

func (m *Provider) ListActivities(ctx context.Context, dealID int64) ([]dto.CRMActivityDTO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpListActivities); err != nil {
		return nil, err
	}
	return append([]dto.CRMActivityDTO{}, m.Activities[dealID]...), nil
}

func (m *Provider) AddActivity(ctx context.Context, activity dto.CRMActivityCreateDTO) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpAddActivity); err != nil {
		return 0, err
	}
	if _, ok := m.Deals[activity.DealID]; !ok {
		return 0, integrations.ErrRemoteNotFound
	}
	id := m.newID()
	now := time.Now()
	m.Activities[activity.DealID] = append(m.Activities[activity.DealID], dto.CRMActivityDTO{
		ID:          id,
		Subject:     activity.Subject,
		Description: activity.Comment,
		AuthorID:    activity.AuthorID,
		Completed:   true,
		CreatedAt:   &now,
		Files:       activity.Files,
	})
	return id, nil
}
