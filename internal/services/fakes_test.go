package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"bip-api/internal/dto"
	"bip-api/internal/entities"
	"bip-api/internal/integrations/mock"
	"bip-api/internal/repositories"
	"bip-api/pkg/config"
	apperrors "bip-api/pkg/errors"
)

// memStore - users, companies и departments в памяти. Реализует все три
// репозитория и TxManager: при ошибке в транзакции состояние откатывается.
type memStore struct {
	mu           sync.Mutex
	nextID       uint64
	users        map[uint64]entities.User
	companies    map[uint64]entities.Company
	departments  map[uint64]entities.Department
	transactions []entities.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[uint64]entities.User),
		companies:   make(map[uint64]entities.Company),
		departments: make(map[uint64]entities.Department),
	}
}

var (
	_ repositories.UserRepositoryInterface        = (*memStore)(nil)
	_ repositories.CompanyRepositoryInterface     = (*memStore)(nil)
	_ repositories.DepartmentRepositoryInterface  = (*memStore)(nil)
	_ repositories.TransactionRepositoryInterface = (*memStore)(nil)
	_ repositories.TxManagerInterface             = (*memStore)(nil)
)

type memSnapshot struct {
	nextID      uint64
	users       map[uint64]entities.User
	companies   map[uint64]entities.Company
	departments map[uint64]entities.Department
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		nextID:      s.nextID,
		users:       make(map[uint64]entities.User, len(s.users)),
		companies:   make(map[uint64]entities.Company, len(s.companies)),
		departments: make(map[uint64]entities.Department, len(s.departments)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.companies {
		snap.companies[k] = v
	}
	for k, v := range s.departments {
		snap.departments[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.users = snap.users
	s.companies = snap.companies
	s.departments = snap.departments
}

func (s *memStore) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *memStore) companyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.companies)
}

func (s *memStore) departmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.departments)
}

// --- users ---

func (s *memStore) FindUserByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (s *memStore) FindUserByEmailOrPhone(ctx context.Context, email, phone string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		u := s.users[id]
		if (email != "" && u.Email == email) || (phone != "" && u.Phone == phone) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *memStore) ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error) {
	_, err := s.FindUserByEmailOrPhone(ctx, email, phone)
	return err == nil, nil
}

func (s *memStore) CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == user.Phone || u.Email == user.Email {
			return 0, apperrors.NewConflictError("Пользователь с такими данными уже существует", nil)
		}
	}
	created := *user
	created.ID = s.id()
	created.CreatedAt = time.Now()
	s.users[created.ID] = created
	return created.ID, nil
}

func (s *memStore) UpdateUserLinks(ctx context.Context, tx pgx.Tx, userID uint64, links entities.UserLinks) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if links.ContactID != nil {
		u.ContactID = links.ContactID
	}
	if links.CompanyID != nil {
		u.CompanyID = links.CompanyID
	}
	if links.DepartmentID != nil {
		u.DepartmentID = links.DepartmentID
	}
	s.users[userID] = u
	return nil
}

func (s *memStore) GetCompanyEmployees(ctx context.Context, companyID uint64) ([]entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]entities.User, 0)
	for _, u := range s.users {
		if u.CompanyID != nil && *u.CompanyID == companyID {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memStore) CountCompanyEmployees(ctx context.Context, companyID uint64) (uint64, error) {
	users, err := s.GetCompanyEmployees(ctx, companyID)
	return uint64(len(users)), err
}

// --- companies ---

func (s *memStore) FindCompanyByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, apperrors.ErrCompanyNotFound
	}
	return &c, nil
}

func (s *memStore) FindCompanyByInviteToken(ctx context.Context, token string) (*entities.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.InviteToken == token {
			return &c, nil
		}
	}
	return nil, apperrors.ErrCompanyNotFound
}

func (s *memStore) ExistsByINN(ctx context.Context, inn string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.INN == inn {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ExistsByInviteToken(ctx context.Context, tx pgx.Tx, token string) (bool, error) {
	_, err := s.FindCompanyByInviteToken(ctx, token)
	return err == nil, nil
}

func (s *memStore) CreateCompany(ctx context.Context, tx pgx.Tx, company *entities.Company) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.INN == company.INN {
			return 0, apperrors.NewConflictError("Компания с таким ИНН уже зарегистрирована", nil)
		}
	}
	created := *company
	created.ID = s.id()
	created.CreatedAt = time.Now()
	s.companies[created.ID] = created
	return created.ID, nil
}

func (s *memStore) UpdateBitrixCompanyID(ctx context.Context, tx pgx.Tx, companyID uint64, bitrixID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[companyID]
	if !ok {
		return apperrors.ErrCompanyNotFound
	}
	c.BitrixCompanyID = &bitrixID
	s.companies[companyID] = c
	return nil
}

// --- departments ---

func (s *memStore) GetDepartmentsByCompany(ctx context.Context, companyID uint64) ([]entities.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]entities.Department, 0)
	for _, d := range s.departments {
		if d.CompanyID == companyID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memStore) FindDepartmentInCompany(ctx context.Context, id, companyID uint64) (*entities.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.departments[id]
	if !ok || d.CompanyID != companyID {
		return nil, repositories.ErrDepartmentNotFound
	}
	return &d, nil
}

func (s *memStore) FindDefaultDepartment(ctx context.Context, tx pgx.Tx, companyID uint64) (*entities.Department, error) {
	departments, _ := s.GetDepartmentsByCompany(ctx, companyID)
	if len(departments) == 0 {
		return nil, repositories.ErrDepartmentNotFound
	}
	return &departments[0], nil
}

func (s *memStore) CreateDepartment(ctx context.Context, tx pgx.Tx, department *entities.Department) (*entities.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.departments {
		if d.CompanyID == department.CompanyID && d.Name == department.Name {
			return nil, apperrors.NewConflictError("Отдел с таким названием уже существует", nil)
		}
	}
	created := *department
	created.ID = s.id()
	created.CreatedAt = time.Now()
	s.departments[created.ID] = created
	return &created, nil
}

// --- transactions ---

func (s *memStore) GetTransactionsByUser(ctx context.Context, userID uint64) ([]entities.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]entities.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

// memCache - CacheRepositoryInterface в памяти. TTL только запоминается.
type memCache struct {
	mu      sync.Mutex
	values  map[string]string
	lists   map[string][]string
	ttl     map[string]time.Duration
	gets    int
	failGet error
}

func newMemCache() *memCache {
	return &memCache{
		values: make(map[string]string),
		lists:  make(map[string][]string),
		ttl:    make(map[string]time.Duration),
	}
}

var _ repositories.CacheRepositoryInterface = (*memCache)(nil)

func (c *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = fmt.Sprint(value)
	c.ttl[key] = expiration
	return nil
}

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet != nil {
		return "", c.failGet
	}
	v, ok := c.values[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
		delete(c.ttl, k)
	}
	return nil
}

func (c *memCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.values[key], 10, 64)
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *memCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; !ok {
		return false, nil
	}
	c.ttl[key] = expiration
	return true, nil
}

func (c *memCache) RPush(ctx context.Context, key string, values ...interface{}) error {
	// Как и redis-клиент, отменённый контекст не доходит до хранилища.
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range values {
		c.lists[key] = append(c.lists[key], fmt.Sprint(v))
	}
	return nil
}

func (c *memCache) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.lists[key]
	n := int64(len(list))
	if stop < 0 || stop >= n {
		stop = n - 1
	}
	if start >= n || start > stop {
		return []string{}, nil
	}
	return append([]string(nil), list[start:stop+1]...), nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

// testEnv собирает сервисы поверх memStore, memCache и mock-CRM.
type testEnv struct {
	store        *memStore
	cache        *memCache
	crm          *mock.Provider
	journal      *LinkageJournal
	authCfg      *config.AuthConfig
	registration *RegistrationService
	auth         AuthServiceInterface
	company      *CompanyService
	department   *DepartmentService
	user         *UserService
	transaction  *TransactionService
	deal         *DealService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := newMemStore()
	cache := newMemCache()
	crm := mock.NewMockProvider()
	journal := NewLinkageJournal(cache, logger)
	authCfg := &config.AuthConfig{MaxLoginAttempts: 3, LockoutDuration: 15 * time.Minute}

	return &testEnv{
		store:        store,
		cache:        cache,
		crm:          crm,
		journal:      journal,
		authCfg:      authCfg,
		registration: NewRegistrationService(store, store, store, store, crm, journal, logger),
		auth:         NewAuthService(store, store, cache, logger, authCfg),
		company:      NewCompanyService(store, store, store, store, crm, journal, logger),
		department:   NewDepartmentService(store, logger),
		user:         NewUserService(store, store, logger),
		transaction:  NewTransactionService(store, logger),
		deal:         NewDealService(crm, store, cache, journal, logger),
	}
}

func individualPayload() dto.RegisterIndividualDTO {
	return dto.RegisterIndividualDTO{
		FirstName: "Иван",
		LastName:  "Петров",
		Birthdate: "1990-05-17",
		Phone:     "8 (912) 345-67-89",
		Email:     "Ivan@Example.com",
		Password:  "secret",
	}
}

func acmePayload() dto.RegisterOrganizationDTO {
	return dto.RegisterOrganizationDTO{
		CompanyName: "Acme",
		INN:         "7707083893",
		FirstName:   "Анна",
		LastName:    "Смирнова",
		Phone:       "+7 900 000-00-01",
		Email:       "head@acme.ru",
		Password:    "secret",
	}
}

// registerAcme регистрирует организацию и возвращает claims её руководителя.
func (env *testEnv) registerAcme(t *testing.T) (*dto.SessionResult, *dto.SessionClaims) {
	t.Helper()
	result, err := env.registration.RegisterOrganization(context.Background(), acmePayload())
	if err != nil {
		t.Fatalf("регистрация Acme: %v", err)
	}
	claims := dto.ClaimsFromUser(result.User)
	return result, &claims
}
