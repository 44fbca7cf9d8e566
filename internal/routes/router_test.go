package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/entities"
	"bip-api/pkg/config"
	"bip-api/pkg/constants"
	"bip-api/pkg/customvalidator"
	apperrors "bip-api/pkg/errors"
	"bip-api/pkg/service"
	"bip-api/pkg/utils"
)

func testUser() *entities.User {
	contactID := int64(101)
	return &entities.User{
		ID:        42,
		Login:     "ivan@example.com",
		UserType:  constants.UserTypePhysical,
		Role:      constants.RoleUser,
		FirstName: "Иван",
		LastName:  "Петров",
		Email:     "ivan@example.com",
		Phone:     "+79123456789",
		ContactID: &contactID,
		Balance:   1500,
	}
}

type stubAuthService struct {
	loginErr error
	logins   []dto.LoginDTO
}

func (s *stubAuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.SessionResult, error) {
	s.logins = append(s.logins, payload)
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &dto.SessionResult{User: testUser()}, nil
}

func (s *stubAuthService) Me(ctx context.Context, userID uint64) (*dto.SessionResult, error) {
	if userID != testUser().ID {
		return nil, apperrors.ErrUserNotFound
	}
	return &dto.SessionResult{User: testUser()}, nil
}

type stubRegistrationService struct {
	individuals []dto.RegisterIndividualDTO
}

func (s *stubRegistrationService) RegisterIndividual(ctx context.Context, payload dto.RegisterIndividualDTO) (*dto.SessionResult, error) {
	s.individuals = append(s.individuals, payload)
	return &dto.SessionResult{User: testUser()}, nil
}

func (s *stubRegistrationService) RegisterOrganization(ctx context.Context, payload dto.RegisterOrganizationDTO) (*dto.SessionResult, error) {
	return nil, apperrors.NewHttpError(http.StatusConflict, "Компания с таким ИНН уже зарегистрирована", nil, nil)
}

func (s *stubRegistrationService) RegisterEmployee(ctx context.Context, payload dto.RegisterEmployeeDTO) (*dto.SessionResult, error) {
	return nil, apperrors.ErrCompanyNotFound
}

type stubTransactionService struct{}

func (stubTransactionService) GetTransactions(ctx context.Context, userID uint64) ([]dto.TransactionDTO, error) {
	return []dto.TransactionDTO{{ID: 1, Amount: 500, TransactionType: "Пополнение"}}, nil
}

func (stubTransactionService) ExportTransactions(ctx context.Context, userID uint64) (*bytes.Buffer, error) {
	return bytes.NewBufferString("xlsx"), nil
}

type stubDealService struct {
	requested []int64
	appeals   []dto.CreateAppealDTO
}

func (s *stubDealService) GetStages(ctx context.Context) ([]dto.StageDTO, error) {
	return []dto.StageDTO{{ID: "NEW", Name: "Новая"}}, nil
}

func (s *stubDealService) GetCurrentDeals(ctx context.Context, claims *dto.SessionClaims) ([]dto.DealDTO, error) {
	return []dto.DealDTO{}, nil
}

func (s *stubDealService) GetDealHistory(ctx context.Context, claims *dto.SessionClaims) ([]dto.DealDTO, error) {
	return []dto.DealDTO{}, nil
}

func (s *stubDealService) GetDeal(ctx context.Context, claims *dto.SessionClaims, dealID int64) (*dto.DealDTO, error) {
	s.requested = append(s.requested, dealID)
	if dealID != 500 {
		return nil, apperrors.NewForbiddenError("Нет доступа к этой сделке")
	}
	return &dto.DealDTO{ID: dealID, Title: "Открытая", StageName: "Новая"}, nil
}

func (s *stubDealService) GetActivities(ctx context.Context, claims *dto.SessionClaims, dealID int64) ([]dto.ActivityDTO, error) {
	return []dto.ActivityDTO{}, nil
}

func (s *stubDealService) CreateAppeal(ctx context.Context, claims *dto.SessionClaims, payload dto.CreateAppealDTO) (*dto.AppealCreatedDTO, error) {
	s.appeals = append(s.appeals, payload)
	return &dto.AppealCreatedDTO{DealID: 600, ActivityID: 601}, nil
}

func (s *stubDealService) AddActivity(ctx context.Context, claims *dto.SessionClaims, payload dto.AddActivityDTO) (*dto.ActivityDTO, error) {
	return &dto.ActivityDTO{ID: 700, Description: payload.Comment}, nil
}

type RouterTestSuite struct {
	suite.Suite
	Echo   *echo.Echo
	Auth   *stubAuthService
	Reg    *stubRegistrationService
	Deal   *stubDealService
	JWT    service.JWTService
	Config *config.Config
}

func newTestEcho(t *testing.T, svc *Services, jwtSvc service.JWTService, cfg *config.Config) *echo.Echo {
	e := echo.New()
	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		t.Fatalf("RegisterCustomValidations: %v", err)
	}
	e.Validator = utils.NewValidator(v)

	nopLogger := zap.NewNop()
	loggers := &Loggers{Main: nopLogger, Auth: nopLogger, User: nopLogger, CRM: nopLogger}
	InitRouter(e, svc, jwtSvc, loggers, cfg)
	return e
}

func (s *RouterTestSuite) SetupTest() {
	s.Auth = &stubAuthService{}
	s.Reg = &stubRegistrationService{}
	s.Deal = &stubDealService{}
	s.JWT = service.NewJWTService("test-secret", 15*time.Minute, zap.NewNop())
	s.Config = &config.Config{
		Server: config.ServerConfig{Env: "development"},
		Auth:   config.AuthConfig{RateLimitPerMinute: 0},
	}
	svc := &Services{
		Auth:         s.Auth,
		Registration: s.Reg,
		Transaction:  stubTransactionService{},
		Deal:         s.Deal,
	}
	s.Echo = newTestEcho(s.T(), svc, s.JWT, s.Config)
}

func (s *RouterTestSuite) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *RouterTestSuite) sessionCookie() *http.Cookie {
	token, _, err := s.JWT.GenerateToken(dto.ClaimsFromUser(testUser()))
	s.Require().NoError(err)
	return &http.Cookie{Name: constants.AccessTokenCookie, Value: token}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("ответ не JSON: %s", rec.Body.String())
	}
	return body
}

func (s *RouterTestSuite) TestHealthCheck() {
	rec := s.do(http.MethodGet, "/api", "")
	s.Equal(http.StatusOK, rec.Code)

	body := decodeResponse(s.T(), rec)
	s.Equal("ok", body["status"])
	s.Equal(apiVersion, body["version"])
}

func (s *RouterTestSuite) TestLoginSetsSessionCookie() {
	rec := s.do(http.MethodPost, "/auth/login", `{"email_or_phone":"ivan@example.com","password":"secret"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	cookie := findCookie(rec, constants.AccessTokenCookie)
	s.Require().NotNil(cookie)
	s.True(cookie.HttpOnly)
	s.False(cookie.Secure)
	s.Equal(http.SameSiteLaxMode, cookie.SameSite)

	claims, err := s.JWT.ValidateToken(cookie.Value)
	s.Require().NoError(err)
	s.Equal(uint64(42), claims.UserID)

	body := decodeResponse(s.T(), rec)
	s.Equal(true, body["status"])
	user := body["body"].(map[string]interface{})
	s.Equal(constants.RoleUser, user["role"])
	s.Equal(float64(1500), user["balance"])
}

func (s *RouterTestSuite) TestLoginValidation() {
	rec := s.do(http.MethodPost, "/auth/login", `{"email_or_phone":"ivan@example.com"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(string(apperrors.KindValidation), decodeResponse(s.T(), rec)["code"])
	s.Empty(s.Auth.logins, "невалидный запрос не доходит до сервиса")

	rec = s.do(http.MethodPost, "/auth/login", `{not json`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestLoginFailure() {
	s.Auth.loginErr = apperrors.ErrInvalidCredentials

	rec := s.do(http.MethodPost, "/auth/login", `{"email_or_phone":"ivan@example.com","password":"wrong"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Nil(findCookie(rec, constants.AccessTokenCookie))

	body := decodeResponse(s.T(), rec)
	s.Equal(false, body["status"])
	s.Equal(string(apperrors.KindUnauthorized), body["code"])
	s.Equal(apperrors.ErrInvalidCredentials.Message, body["message"])
}

func (s *RouterTestSuite) TestRegisterIndividual() {
	payload := `{"first_name":"Иван","last_name":"Петров","birthdate":"1990-05-17","phone":"8 (912) 345-67-89","email":"ivan@example.com","password":"secret"}`
	rec := s.do(http.MethodPost, "/auth/register/physical", payload)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.NotNil(findCookie(rec, constants.AccessTokenCookie))
	s.Require().Len(s.Reg.individuals, 1)
	s.Equal("8 (912) 345-67-89", s.Reg.individuals[0].Phone)

	rec = s.do(http.MethodPost, "/auth/register/physical", strings.Replace(payload, "8 (912) 345-67-89", "12345", 1))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Len(s.Reg.individuals, 1)
}

func (s *RouterTestSuite) TestRegisterErrorsKeepKind() {
	rec := s.do(http.MethodPost, "/auth/register/legal", `{"company_name":"Acme","inn":"7707083893","phone":"+79000000001","email":"head@acme.ru","password":"secret"}`)
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(string(apperrors.KindConflict), decodeResponse(s.T(), rec)["code"])

	rec = s.do(http.MethodPost, "/auth/register/employee", `{"first_name":"Олег","last_name":"Сидоров","position":"Бухгалтер","phone":"+79000000010","email":"oleg@acme.ru","password":"secret","company_token":"short"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestMeRequiresSession() {
	rec := s.do(http.MethodGet, "/auth/me", "")
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/auth/me", "", &http.Cookie{Name: constants.AccessTokenCookie, Value: "garbage"})
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/auth/me", "", s.sessionCookie())
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.NotNil(findCookie(rec, constants.AccessTokenCookie), "сессия продлевается")
}

func (s *RouterTestSuite) TestLogoutClearsCookie() {
	rec := s.do(http.MethodPost, "/auth/logout", "")
	s.Equal(http.StatusOK, rec.Code)

	cookie := findCookie(rec, constants.AccessTokenCookie)
	s.Require().NotNil(cookie)
	s.Empty(cookie.Value)
	s.Less(cookie.MaxAge, 0)
}

func (s *RouterTestSuite) TestSecureRoutesNeedSession() {
	for _, path := range []string{
		"/user/get-info",
		"/transactions/get-transactions",
		"/personal_account/company/info",
		"/personal_account/departaments/get",
		"/deals/current",
	} {
		rec := s.do(http.MethodGet, path, "")
		s.Equal(http.StatusUnauthorized, rec.Code, path)
	}
}

func (s *RouterTestSuite) TestTransactions() {
	rec := s.do(http.MethodGet, "/transactions/get-transactions", "", s.sessionCookie())
	s.Require().Equal(http.StatusOK, rec.Code)
	list := decodeResponse(s.T(), rec)["body"].([]interface{})
	s.Len(list, 1)

	rec = s.do(http.MethodGet, "/transactions/get-transactions?format=xlsx", "", s.sessionCookie())
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
	s.Contains(rec.Header().Get(echo.HeaderContentDisposition), "attachment; filename=\"transactions_")
	s.Equal("xlsx", rec.Body.String())
}

func (s *RouterTestSuite) TestGetDealQuery() {
	rec := s.do(http.MethodGet, "/deals/get-deal?deal_id=abc", "", s.sessionCookie())
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Empty(s.Deal.requested)

	rec = s.do(http.MethodGet, "/deals/get-deal?deal_id=500", "", s.sessionCookie())
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Открытая", decodeResponse(s.T(), rec)["body"].(map[string]interface{})["title"])

	rec = s.do(http.MethodGet, "/deals/get-deal?deal_id=501", "", s.sessionCookie())
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal([]int64{500, 501}, s.Deal.requested)
}

func (s *RouterTestSuite) TestCreateAppealValidation() {
	rec := s.do(http.MethodPost, "/deals/create", `{"appeal_type":"OTHER","title":"Вопрос","comment":"Как получить акт сверки?"}`, s.sessionCookie())
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Empty(s.Deal.appeals)

	rec = s.do(http.MethodPost, "/deals/create", `{"appeal_type":"GENERAL","title":"Вопрос","comment":"Как получить акт сверки?"}`, s.sessionCookie())
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Equal(float64(600), decodeResponse(s.T(), rec)["body"].(map[string]interface{})["deal_id"])
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestAuthRateLimit(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{RateLimitPerMinute: 1}}
	svc := &Services{Auth: &stubAuthService{}, Registration: &stubRegistrationService{}}
	e := newTestEcho(t, svc, service.NewJWTService("test-secret", time.Minute, zap.NewNop()), cfg)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	limited := send()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, string(apperrors.KindTooManyRequests), decodeResponse(t, limited)["code"])

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "лимит действует только на /auth")
}
