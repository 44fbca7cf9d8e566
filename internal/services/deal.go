package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"bip-api/internal/authz"
	"bip-api/internal/dto"
	"bip-api/internal/entities"
	"bip-api/internal/integrations"
	crmdto "bip-api/internal/integrations/dto"
	"bip-api/internal/repositories"
	"bip-api/pkg/constants"
	apperrors "bip-api/pkg/errors"
)

const (
	appealActivitySubject  = "Создано обращение"
	commentActivitySubject = "Комментарий клиента"
	unknownStageName       = "Неизвестно"
)

var (
	ErrDealNotFound     = apperrors.NewNotFoundError("Сделка не найдена")
	ErrDealAccessDenied = apperrors.NewForbiddenError("Нет доступа к этой сделке")
	ErrEmptyActivity    = apperrors.NewBadRequestError("Необходимо указать комментарий или приложить файлы")
)

type appealCategory struct {
	categoryID  string
	titlePrefix string
}

var appealCategories = map[string]appealCategory{
	dto.AppealTypeDebtor:  {categoryID: "1", titlePrefix: "Дебиторская задолженность: "},
	dto.AppealTypeGeneral: {categoryID: "0", titlePrefix: "Общий вопрос: "},
}

type stageStyleRule struct {
	keywords []string
	style    dto.StageStyleDTO
}

// Первое совпадение по подстроке названия стадии определяет стиль.
var stageStyleRules = []stageStyleRule{
	{[]string{"нов", "создан"}, dto.StageStyleDTO{Color: "bg-blue-50 text-blue-700 border-blue-200", Icon: "📝"}},
	{[]string{"подготовк", "планирован"}, dto.StageStyleDTO{Color: "bg-yellow-50 text-yellow-700 border-yellow-200", Icon: "⚙️"}},
	{[]string{"оплат", "счет"}, dto.StageStyleDTO{Color: "bg-orange-50 text-orange-700 border-orange-200", Icon: "💰"}},
	{[]string{"выполнен", "в работе"}, dto.StageStyleDTO{Color: "bg-indigo-50 text-indigo-700 border-indigo-200", Icon: "🚀"}},
	{[]string{"завершен", "выигран"}, dto.StageStyleDTO{Color: "bg-green-50 text-green-700 border-green-200", Icon: "✅"}},
	{[]string{"проигран", "отклонен"}, dto.StageStyleDTO{Color: "bg-red-50 text-red-700 border-red-200", Icon: "❌"}},
}

var defaultStageStyle = dto.StageStyleDTO{Color: "bg-gray-50 text-gray-700 border-gray-200", Icon: "📝"}

func StageStyle(stageName string) dto.StageStyleDTO {
	name := strings.ToLower(stageName)
	for _, rule := range stageStyleRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(name, keyword) {
				return rule.style
			}
		}
	}
	return defaultStageStyle
}

type DealServiceInterface interface {
	GetStages(ctx context.Context) ([]dto.StageDTO, error)
	GetCurrentDeals(ctx context.Context, claims *dto.SessionClaims) ([]dto.DealDTO, error)
	GetDealHistory(ctx context.Context, claims *dto.SessionClaims) ([]dto.DealDTO, error)
	GetDeal(ctx context.Context, claims *dto.SessionClaims, dealID int64) (*dto.DealDTO, error)
	GetActivities(ctx context.Context, claims *dto.SessionClaims, dealID int64) ([]dto.ActivityDTO, error)
	CreateAppeal(ctx context.Context, claims *dto.SessionClaims, payload dto.CreateAppealDTO) (*dto.AppealCreatedDTO, error)
	AddActivity(ctx context.Context, claims *dto.SessionClaims, payload dto.AddActivityDTO) (*dto.ActivityDTO, error)
}

type DealService struct {
	crm         integrations.CRMProvider
	companyRepo repositories.CompanyRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	journal     LinkageJournalInterface
	logger      *zap.Logger
}

func NewDealService(
	crm integrations.CRMProvider,
	companyRepo repositories.CompanyRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	journal LinkageJournalInterface,
	logger *zap.Logger,
) *DealService {
	return &DealService{
		crm:         crm,
		companyRepo: companyRepo,
		cacheRepo:   cacheRepo,
		journal:     journal,
		logger:      logger.Named("deal_service"),
	}
}

// GetStages читает стадии сделок из кеша, при промахе - из CRM.
// Ошибка Redis не мешает ответу, стадии просто берутся из CRM.
func (s *DealService) GetStages(ctx context.Context) ([]dto.StageDTO, error) {
	cached, err := s.cacheRepo.Get(ctx, constants.CacheKeyDealStages)
	if err == nil {
		var stages []dto.StageDTO
		if jsonErr := json.Unmarshal([]byte(cached), &stages); jsonErr == nil {
			return stages, nil
		}
		s.logger.Warn("Повреждённый кеш стадий сделок, перечитываем из CRM")
	} else if !errors.Is(err, repositories.ErrCacheMiss) {
		s.logger.Warn("Кеш стадий сделок недоступен", zap.Error(err))
	}

	remote, err := s.crm.ListStages(ctx)
	if err != nil {
		return nil, crmError("получение стадий сделок", err)
	}
	stages := make([]dto.StageDTO, 0, len(remote))
	for _, st := range remote {
		stages = append(stages, dto.StageDTO{ID: st.ID, Name: st.Name, Style: StageStyle(st.Name)})
	}

	if payload, err := json.Marshal(stages); err == nil {
		if err := s.cacheRepo.Set(ctx, constants.CacheKeyDealStages, string(payload), constants.DealStagesCacheTTL); err != nil {
			s.logger.Warn("Не удалось сохранить стадии сделок в кеш", zap.Error(err))
		}
	}
	return stages, nil
}

func (s *DealService) stageNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	stages, err := s.GetStages(ctx)
	if err != nil {
		s.logger.Warn("Стадии сделок недоступны, названия не будут подставлены", zap.Error(err))
		return names
	}
	for _, st := range stages {
		names[st.ID] = st.Name
	}
	return names
}

func toDealDTO(deal crmdto.CRMDealDTO, stageNames map[string]string) dto.DealDTO {
	name, ok := stageNames[deal.StageID]
	if !ok {
		name = unknownStageName
	}
	return dto.DealDTO{
		ID:          deal.ID,
		Title:       deal.Title,
		StageID:     deal.StageID,
		StageName:   name,
		StageStyle:  StageStyle(name),
		Opportunity: deal.Opportunity,
		Comments:    deal.Comments,
		CreatedAt:   deal.CreatedAt,
	}
}

func (s *DealService) GetCurrentDeals(ctx context.Context, claims *dto.SessionClaims) ([]dto.DealDTO, error) {
	return s.listDeals(ctx, claims, false)
}

func (s *DealService) GetDealHistory(ctx context.Context, claims *dto.SessionClaims) ([]dto.DealDTO, error) {
	return s.listDeals(ctx, claims, true)
}

// listDeals: сделки контакта пользователя. Без контакта список пуст.
func (s *DealService) listDeals(ctx context.Context, claims *dto.SessionClaims, closed bool) ([]dto.DealDTO, error) {
	if claims.ContactID == nil {
		return []dto.DealDTO{}, nil
	}
	deals, err := s.crm.ListDeals(ctx, *claims.ContactID, closed)
	if err != nil {
		return nil, crmError("получение сделок", err)
	}

	names := s.stageNames(ctx)
	result := make([]dto.DealDTO, 0, len(deals))
	for _, deal := range deals {
		result = append(result, toDealDTO(deal, names))
	}
	return result, nil
}

// actorCRMCompanyID - CRM-id компании пользователя, если она есть.
func (s *DealService) actorCRMCompanyID(ctx context.Context, claims *dto.SessionClaims) (*int64, error) {
	if claims.CompanyID == nil {
		return nil, nil
	}
	company, err := s.companyRepo.FindCompanyByID(ctx, nil, *claims.CompanyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCompanyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return company.BitrixCompanyID, nil
}

// ownedDeal загружает сделку и проверяет, что она принадлежит контакту
// или компании пользователя.
func (s *DealService) ownedDeal(ctx context.Context, claims *dto.SessionClaims, dealID int64) (*crmdto.CRMDealDTO, error) {
	deal, err := s.crm.GetDeal(ctx, dealID)
	if err != nil {
		if errors.Is(err, integrations.ErrRemoteNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, crmError("получение сделки", err)
	}

	crmCompanyID, err := s.actorCRMCompanyID(ctx, claims)
	if err != nil {
		return nil, err
	}
	allowed := authz.CanDo(authz.DealView, authz.Context{
		Actor:              claims,
		TargetContactID:    deal.ContactID,
		TargetCRMCompanyID: deal.CompanyID,
		ActorCRMCompanyID:  crmCompanyID,
	})
	if !allowed {
		s.logger.Warn("Попытка доступа к чужой сделке",
			zap.Uint64("userID", claims.UserID),
			zap.Int64("dealID", dealID),
		)
		return nil, ErrDealAccessDenied
	}
	return deal, nil
}

func (s *DealService) GetDeal(ctx context.Context, claims *dto.SessionClaims, dealID int64) (*dto.DealDTO, error) {
	deal, err := s.ownedDeal(ctx, claims, dealID)
	if err != nil {
		return nil, err
	}
	result := toDealDTO(*deal, s.stageNames(ctx))
	return &result, nil
}

func (s *DealService) GetActivities(ctx context.Context, claims *dto.SessionClaims, dealID int64) ([]dto.ActivityDTO, error) {
	if _, err := s.ownedDeal(ctx, claims, dealID); err != nil {
		return nil, err
	}
	activities, err := s.crm.ListActivities(ctx, dealID)
	if err != nil {
		return nil, crmError("получение комментариев сделки", err)
	}
	result := make([]dto.ActivityDTO, 0, len(activities))
	for _, a := range activities {
		result = append(result, toActivityDTO(a))
	}
	return result, nil
}

func toActivityDTO(a crmdto.CRMActivityDTO) dto.ActivityDTO {
	files := make([]string, 0, len(a.Files))
	for _, f := range a.Files {
		if f.URL != "" {
			files = append(files, f.URL)
		}
	}
	return dto.ActivityDTO{
		ID:          a.ID,
		Subject:     a.Subject,
		Description: a.Description,
		AuthorID:    a.AuthorID,
		Completed:   a.Completed,
		CreatedAt:   a.CreatedAt,
		Files:       files,
	}
}

func toCRMFiles(files []dto.FileDTO) []crmdto.CRMFileDTO {
	result := make([]crmdto.CRMFileDTO, 0, len(files))
	for _, f := range files {
		result = append(result, crmdto.CRMFileDTO{Name: f.Name, ContentBase64: f.ContentBase64})
	}
	return result
}

// CreateAppeal создаёт сделку и первый комментарий к ней. Если комментарий
// не создался, сделка уже существует: она уходит в журнал, id возвращается.
func (s *DealService) CreateAppeal(ctx context.Context, claims *dto.SessionClaims, payload dto.CreateAppealDTO) (*dto.AppealCreatedDTO, error) {
	category, ok := appealCategories[payload.AppealType]
	if !ok {
		return nil, apperrors.NewBadRequestError("Неизвестный тип обращения")
	}

	crmCompanyID, err := s.actorCRMCompanyID(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.DealCreate, authz.Context{Actor: claims, ActorCRMCompanyID: crmCompanyID}) {
		return nil, apperrors.NewForbiddenError("Пользователь не привязан к CRM")
	}

	dealID, err := s.crm.CreateDeal(ctx, crmdto.CRMDealCreateDTO{
		Title:      category.titlePrefix + payload.Title,
		CategoryID: category.categoryID,
		ContactID:  claims.ContactID,
		CompanyID:  crmCompanyID,
		Comments:   payload.Comment,
	})
	if err != nil {
		return nil, crmError("создание сделки", err)
	}
	logger := s.logger.With(zap.Uint64("userID", claims.UserID), zap.Int64("dealID", dealID))

	activityID, err := s.crm.AddActivity(ctx, crmdto.CRMActivityCreateDTO{
		DealID:  dealID,
		Subject: appealActivitySubject,
		Comment: payload.Comment,
		Files:   toCRMFiles(payload.Files),
	})
	if err != nil {
		s.journal.Record(context.WithoutCancel(ctx), entities.LinkageRecord{
			Entity:    LinkageEntityDeal,
			RemoteID:  dealID,
			Operation: "create_appeal",
			Reason:    err.Error(),
		})
		logger.Warn("Сделка создана, но комментарий к ней не добавлен", zap.Error(err))
		return &dto.AppealCreatedDTO{DealID: dealID}, nil
	}

	logger.Info("Создано обращение", zap.String("appealType", payload.AppealType))
	return &dto.AppealCreatedDTO{DealID: dealID, ActivityID: activityID}, nil
}

func (s *DealService) AddActivity(ctx context.Context, claims *dto.SessionClaims, payload dto.AddActivityDTO) (*dto.ActivityDTO, error) {
	comment := strings.TrimSpace(payload.Comment)
	if comment == "" && len(payload.Files) == 0 {
		return nil, ErrEmptyActivity
	}
	if _, err := s.ownedDeal(ctx, claims, payload.DealID); err != nil {
		return nil, err
	}

	files := toCRMFiles(payload.Files)
	activityID, err := s.crm.AddActivity(ctx, crmdto.CRMActivityCreateDTO{
		DealID:  payload.DealID,
		Subject: commentActivitySubject,
		Comment: comment,
		Files:   files,
	})
	if err != nil {
		return nil, crmError("добавление комментария", err)
	}

	s.logger.Info("Добавлен комментарий к сделке",
		zap.Uint64("userID", claims.UserID),
		zap.Int64("dealID", payload.DealID),
		zap.Int("files", len(files)),
	)
	return &dto.ActivityDTO{
		ID:          activityID,
		Subject:     commentActivitySubject,
		Description: comment,
		Completed:   true,
	}, nil
}
