package bitrix

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"bip-api/internal/integrations"
	internalDTO "bip-api/internal/integrations/dto"
)

const (
	ProviderName = "bitrix"

	ownerTypeDeal       = 2
	activityTypeComment = 4
	dealStageEntityID   = "DEAL_STAGE"
)

// Provider - клиент входящего вебхука Bitrix24.
type Provider struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// New принимает адрес вида https://<домен>/rest/<user>/<token>.
// Каждый запрос ограничен timeout; истёкший запрос считается сбоем CRM.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Provider {
	return &Provider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.Named("bitrix_provider"),
	}
}

var _ integrations.CRMProvider = (*Provider)(nil)

func (p *Provider) Name() string {
	return ProviderName
}

func (d dealItem) GetID() int64     { return int64(d.ID) }
func (a activityItem) GetID() int64 { return int64(a.ID) }

// listEntities получает список сущностей и переводит каждую во внутренний DTO.
// Записи, которые не удалось перевести, пропускаются с предупреждением.
func listEntities[Ext interface{ GetID() int64 }, Int any](
	p *Provider,
	ctx context.Context,
	method string,
	payload interface{},
	mapper func(Ext) (Int, error),
) ([]Int, error) {
	var externalEntities []Ext
	if err := p.call(ctx, method, payload, &externalEntities); err != nil {
		if errors.Is(err, errEmptyResult) {
			return []Int{}, nil
		}
		return nil, err
	}

	internalEntities := make([]Int, 0, len(externalEntities))
	for _, entity := range externalEntities {
		internal, err := mapper(entity)
		if err != nil {
			p.logger.Warn("Ошибка конвертации сущности, запись пропущена",
				zap.String("method", method),
				zap.Int64("external_id", entity.GetID()),
				zap.Error(err),
			)
			continue
		}
		internalEntities = append(internalEntities, internal)
	}
	return internalEntities, nil
}

// add вызывает метод *.add и возвращает id созданной сущности.
func (p *Provider) add(ctx context.Context, method string, fields map[string]interface{}) (int64, error) {
	var id flexInt64
	err := p.call(ctx, method, map[string]interface{}{"fields": fields}, &id)
	if errors.Is(err, errEmptyResult) || (err == nil && id == 0) {
		return 0, fmt.Errorf("bitrix %s: %w", method, integrations.ErrRemoteNoResult)
	}
	if err != nil {
		return 0, err
	}
	return int64(id), nil
}

func (p *Provider) FindContact(ctx context.Context, email, phone string) (*int64, error) {
	filters := make([]map[string]string, 0, 2)
	if email != "" {
		filters = append(filters, map[string]string{"EMAIL": email})
	}
	if phone != "" {
		filters = append(filters, map[string]string{"PHONE": phone})
	}

	for _, filter := range filters {
		var contacts []contactListItem
		err := p.call(ctx, "crm.contact.list", map[string]interface{}{
			"filter": filter,
			"select": []string{"ID"},
		}, &contacts)
		if err != nil && !errors.Is(err, errEmptyResult) {
			return nil, err
		}
		if len(contacts) > 0 && contacts[0].ID != 0 {
			id := int64(contacts[0].ID)
			return &id, nil
		}
	}
	return nil, nil
}

func (p *Provider) CreateContact(ctx context.Context, contact internalDTO.CRMContactDTO) (int64, error) {
	return p.add(ctx, "crm.contact.add", contactFields(contact))
}

func (p *Provider) CreateCompany(ctx context.Context, company internalDTO.CRMCompanyDTO) (int64, error) {
	return p.add(ctx, "crm.company.add", companyFields(company))
}

func (p *Provider) CreateRequisite(ctx context.Context, requisite internalDTO.CRMRequisiteDTO) (int64, error) {
	return p.add(ctx, "crm.requisite.add", requisiteFields(requisite))
}

func (p *Provider) ListDeals(ctx context.Context, contactID int64, closed bool) ([]internalDTO.CRMDealDTO, error) {
	closedFlag := "N"
	if closed {
		closedFlag = "Y"
	}
	return listEntities(p, ctx, "crm.deal.list", map[string]interface{}{
		"filter": map[string]interface{}{"CONTACT_ID": contactID, "CLOSED": closedFlag},
		"select": []string{"ID", "TITLE", "STAGE_ID", "CATEGORY_ID", "OPPORTUNITY", "CONTACT_ID", "COMPANY_ID", "CLOSED", "DATE_CREATE"},
		"order":  map[string]string{"DATE_CREATE": "DESC"},
	}, mapDealToInternal)
}

func (p *Provider) GetDeal(ctx context.Context, dealID int64) (*internalDTO.CRMDealDTO, error) {
	var deal dealItem
	err := p.call(ctx, "crm.deal.get", map[string]interface{}{"id": dealID}, &deal)
	if err != nil {
		var apiErr *APIError
		if errors.Is(err, errEmptyResult) || (errors.As(err, &apiErr) && apiErr.IsNotFound()) {
			return nil, integrations.ErrRemoteNotFound
		}
		return nil, err
	}
	mapped, err := mapDealToInternal(deal)
	if err != nil {
		return nil, err
	}
	return &mapped, nil
}

func (p *Provider) CreateDeal(ctx context.Context, deal internalDTO.CRMDealCreateDTO) (int64, error) {
	fields := map[string]interface{}{
		"TITLE":       deal.Title,
		"CATEGORY_ID": deal.CategoryID,
		"STAGE_ID":    "NEW",
		"CURRENCY_ID": "RUB",
		"OPENED":      "Y",
		"COMMENTS":    deal.Comments,
	}
	if deal.CategoryID != "" && deal.CategoryID != "0" {
		fields["STAGE_ID"] = "C" + deal.CategoryID + ":NEW"
	}
	if deal.ContactID != nil {
		fields["CONTACT_ID"] = *deal.ContactID
	}
	if deal.CompanyID != nil {
		fields["COMPANY_ID"] = *deal.CompanyID
	}
	return p.add(ctx, "crm.deal.add", fields)
}

func (p *Provider) ListStages(ctx context.Context) ([]internalDTO.CRMStageDTO, error) {
	var items []statusItem
	err := p.call(ctx, "crm.status.list", map[string]interface{}{
		"filter": map[string]string{"ENTITY_ID": dealStageEntityID},
	}, &items)
	if err != nil && !errors.Is(err, errEmptyResult) {
		return nil, err
	}

	stages := make([]internalDTO.CRMStageDTO, 0, len(items))
	for _, item := range items {
		stages = append(stages, internalDTO.CRMStageDTO{ID: item.StatusID, Name: item.Name, EntityID: item.EntityID})
	}
	return stages, nil
}

func (p *Provider) ListActivities(ctx context.Context, dealID int64) ([]internalDTO.CRMActivityDTO, error) {
	return listEntities(p, ctx, "crm.activity.list", map[string]interface{}{
		"filter": map[string]interface{}{"OWNER_TYPE_ID": ownerTypeDeal, "OWNER_ID": dealID},
		"select": []string{"ID", "SUBJECT", "DESCRIPTION", "COMMUNICATIONS", "FILES", "CREATED", "AUTHOR_ID", "COMPLETED"},
		"order":  map[string]string{"CREATED": "ASC"},
	}, mapActivityToInternal)
}

func (p *Provider) AddActivity(ctx context.Context, activity internalDTO.CRMActivityCreateDTO) (int64, error) {
	return p.add(ctx, "crm.activity.add", activityFields(activity))
}
