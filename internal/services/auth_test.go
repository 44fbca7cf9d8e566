package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"bip-api/internal/dto"
	"bip-api/internal/entities"
	"bip-api/pkg/constants"
	apperrors "bip-api/pkg/errors"
)

type AuthServiceTestSuite struct {
	suite.Suite
	env  *testEnv
	user *entities.User
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.env = newTestEnv(s.T())
	result, err := s.env.registration.RegisterIndividual(context.Background(), individualPayload())
	s.Require().NoError(err)
	s.user = result.User
}

func (s *AuthServiceTestSuite) login(identifier, password string) (*dto.SessionResult, error) {
	return s.env.auth.Login(context.Background(), dto.LoginDTO{EmailOrPhone: identifier, Password: password})
}

func (s *AuthServiceTestSuite) attemptsKey() string {
	return fmt.Sprintf(constants.CacheKeyLoginAttempts, "ivan@example.com")
}

func (s *AuthServiceTestSuite) lockoutKey() string {
	return fmt.Sprintf(constants.CacheKeyLockout, "ivan@example.com")
}

func (s *AuthServiceTestSuite) TestLoginByEmailIgnoresCase() {
	result, err := s.login(" IVAN@example.com ", "secret")
	s.Require().NoError(err)
	s.Equal(s.user.ID, result.User.ID)
	s.Nil(result.Company)
}

func (s *AuthServiceTestSuite) TestLoginByPhoneInAnyFormat() {
	for _, phone := range []string{"+79123456789", "8 912 345-67-89", "9123456789"} {
		result, err := s.login(phone, "secret")
		s.Require().NoError(err, phone)
		s.Equal(s.user.ID, result.User.ID)
	}
}

func (s *AuthServiceTestSuite) TestWrongPasswordAndUnknownUserLookTheSame() {
	_, err := s.login("ivan@example.com", "wrong")
	s.ErrorIs(err, apperrors.ErrInvalidCredentials)

	_, err = s.login("nobody@example.com", "secret")
	s.ErrorIs(err, apperrors.ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestFirstFailureStartsWindow() {
	_, _ = s.login("ivan@example.com", "wrong")

	s.True(s.env.cache.has(s.attemptsKey()))
	s.Equal(s.env.authCfg.LockoutDuration, s.env.cache.ttl[s.attemptsKey()])
}

func (s *AuthServiceTestSuite) TestLockoutAfterMaxAttempts() {
	for i := 0; i < s.env.authCfg.MaxLoginAttempts; i++ {
		_, err := s.login("ivan@example.com", "wrong")
		s.ErrorIs(err, apperrors.ErrInvalidCredentials)
	}
	s.True(s.env.cache.has(s.lockoutKey()))
	s.False(s.env.cache.has(s.attemptsKey()))
	s.Equal(s.env.authCfg.LockoutDuration, s.env.cache.ttl[s.lockoutKey()])

	_, err := s.login("ivan@example.com", "secret")
	s.ErrorIs(err, apperrors.ErrAccountLocked)
}

func (s *AuthServiceTestSuite) TestLockoutDoesNotRevealExistingAccounts() {
	attempts := s.env.authCfg.MaxLoginAttempts + 1
	var known, unknown error
	for i := 0; i < attempts; i++ {
		_, known = s.login("ivan@example.com", "wrong")
		_, unknown = s.login("nobody@example.com", "wrong")
	}
	s.Equal(apperrors.KindOf(known), apperrors.KindOf(unknown))
	s.ErrorIs(known, apperrors.ErrAccountLocked)
	s.ErrorIs(unknown, apperrors.ErrAccountLocked)
}

func (s *AuthServiceTestSuite) TestLockoutKeyedByNormalizedPhone() {
	for i := 0; i < s.env.authCfg.MaxLoginAttempts; i++ {
		_, _ = s.login("8 912 345-67-89", "wrong")
	}
	_, err := s.login("+7 (912) 345 67 89", "secret")
	s.ErrorIs(err, apperrors.ErrAccountLocked)

	result, err := s.login("ivan@example.com", "secret")
	s.Require().NoError(err, "блокировка по телефону не затрагивает вход по email")
	s.Equal(s.user.ID, result.User.ID)
}

func (s *AuthServiceTestSuite) TestSuccessResetsAttempts() {
	_, _ = s.login("ivan@example.com", "wrong")
	_, _ = s.login("ivan@example.com", "wrong")

	_, err := s.login("ivan@example.com", "secret")
	s.Require().NoError(err)
	s.False(s.env.cache.has(s.attemptsKey()))
}

func (s *AuthServiceTestSuite) TestMe() {
	result, err := s.env.auth.Me(context.Background(), s.user.ID)
	s.Require().NoError(err)
	s.Equal("ivan@example.com", result.User.Email)

	_, err = s.env.auth.Me(context.Background(), 9999)
	s.ErrorIs(err, apperrors.ErrUserNotFound)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func TestLogin_HeadGetsCompany(t *testing.T) {
	env := newTestEnv(t)
	acme, _ := env.registerAcme(t)

	result, err := env.auth.Login(context.Background(), dto.LoginDTO{EmailOrPhone: "head@acme.ru", Password: "secret"})
	require.NoError(t, err)
	require.NotNil(t, result.Company)
	assert.Equal(t, acme.Company.ID, result.Company.ID)
	assert.Empty(t, result.CompanyToken, "токен приглашения отдаётся только при регистрации")
}
