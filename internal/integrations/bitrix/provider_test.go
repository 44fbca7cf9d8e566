package bitrix

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bip-api/internal/integrations"
	internalDTO "bip-api/internal/integrations/dto"
)

const webhookToken = "s3cr3t-webhook-token"

type recordedCall struct {
	Method string
	Body   map[string]interface{}
}

// fakeBitrix отвечает на вызовы по имени метода и запоминает тела запросов.
type fakeBitrix struct {
	mu        sync.Mutex
	calls     []recordedCall
	responses map[string]string
	statuses  map[string]int
}

func (f *fakeBitrix) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimSuffix(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], ".json")

	raw, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: method, Body: body})
	resp, ok := f.responses[method]
	status := f.statuses[method]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
	}
	if !ok {
		resp = `{"result": null}`
	}
	_, _ = io.WriteString(w, resp)
}

func newTestProvider(t *testing.T, fake *fakeBitrix) *Provider {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return New(server.URL+"/rest/1/"+webhookToken+"/", 2*time.Second, zap.NewNop())
}

func TestCreateContact(t *testing.T) {
	fake := &fakeBitrix{responses: map[string]string{"crm.contact.add": `{"result": 501}`}}
	p := newTestProvider(t, fake)

	companyID := int64(300)
	birthdate := time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC)
	id, err := p.CreateContact(context.Background(), internalDTO.CRMContactDTO{
		FirstName: "Иван",
		LastName:  "Петров",
		Birthdate: &birthdate,
		Phone:     "+79123456789",
		Email:     "ivan@example.com",
		CompanyID: &companyID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(501), id)

	require.Len(t, fake.calls, 1)
	fields := fake.calls[0].Body["fields"].(map[string]interface{})
	assert.Equal(t, "Иван", fields["NAME"])
	assert.Equal(t, "1990-05-17", fields["BIRTHDATE"])
	assert.Equal(t, float64(300), fields["COMPANY_ID"])
	phones := fields["PHONE"].([]interface{})
	assert.Equal(t, "+79123456789", phones[0].(map[string]interface{})["VALUE"])
}

func TestCreateContact_NoResult(t *testing.T) {
	p := newTestProvider(t, &fakeBitrix{responses: map[string]string{}})

	_, err := p.CreateContact(context.Background(), internalDTO.CRMContactDTO{FirstName: "Иван"})
	assert.ErrorIs(t, err, integrations.ErrRemoteNoResult)
}

func TestFindContact_FallsBackToPhone(t *testing.T) {
	fake := &fakeBitrix{responses: map[string]string{"crm.contact.list": `{"result": []}`}}
	p := newTestProvider(t, fake)

	id, err := p.FindContact(context.Background(), "ivan@example.com", "+79123456789")
	require.NoError(t, err)
	assert.Nil(t, id)
	require.Len(t, fake.calls, 2)
	assert.Equal(t, "ivan@example.com", fake.calls[0].Body["filter"].(map[string]interface{})["EMAIL"])
	assert.Equal(t, "+79123456789", fake.calls[1].Body["filter"].(map[string]interface{})["PHONE"])

	fake.responses["crm.contact.list"] = `{"result": [{"ID": "77"}]}`
	id, err = p.FindContact(context.Background(), "ivan@example.com", "")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(77), *id)
}

func TestErrorDoesNotLeakWebhookToken(t *testing.T) {
	fake := &fakeBitrix{
		responses: map[string]string{"crm.company.add": `{"error": "INVALID_CREDENTIALS", "error_description": "bad"}`},
		statuses:  map[string]int{"crm.company.add": http.StatusUnauthorized},
	}
	p := newTestProvider(t, fake)

	_, err := p.CreateCompany(context.Background(), internalDTO.CRMCompanyDTO{Title: "Acme"})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.NotContains(t, err.Error(), webhookToken)
}

func TestTransportErrorDoesNotLeakWebhookToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := New(url+"/rest/1/"+webhookToken, time.Second, zap.NewNop())
	_, err := p.CreateCompany(context.Background(), internalDTO.CRMCompanyDTO{Title: "Acme"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), webhookToken)
}

func TestGetDeal(t *testing.T) {
	fake := &fakeBitrix{responses: map[string]string{
		"crm.deal.get": `{"result": {"ID": "12", "TITLE": "Заявка", "STAGE_ID": "NEW", "CATEGORY_ID": "1",
			"OPPORTUNITY": "1500.50", "CONTACT_ID": "501", "COMPANY_ID": null, "CLOSED": "N",
			"DATE_CREATE": "2025-03-01T10:00:00+03:00"}}`,
	}}
	p := newTestProvider(t, fake)

	deal, err := p.GetDeal(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), deal.ID)
	assert.Equal(t, "1", deal.CategoryID)
	assert.InDelta(t, 1500.5, deal.Opportunity, 0.001)
	require.NotNil(t, deal.ContactID)
	assert.Equal(t, int64(501), *deal.ContactID)
	assert.Nil(t, deal.CompanyID)
	assert.False(t, deal.Closed)
	require.NotNil(t, deal.CreatedAt)
}

func TestGetDeal_NotFound(t *testing.T) {
	fake := &fakeBitrix{
		responses: map[string]string{"crm.deal.get": `{"error": "", "error_description": "Not found"}`},
		statuses:  map[string]int{"crm.deal.get": http.StatusBadRequest},
	}
	p := newTestProvider(t, fake)

	_, err := p.GetDeal(context.Background(), 999)
	assert.ErrorIs(t, err, integrations.ErrRemoteNotFound)
}

func TestListDeals_SkipsBadRows(t *testing.T) {
	fake := &fakeBitrix{responses: map[string]string{
		"crm.deal.list": `{"result": [
			{"ID": "1", "TITLE": "ok", "DATE_CREATE": "2025-03-01T10:00:00+03:00"},
			{"ID": "2", "TITLE": "bad date", "DATE_CREATE": "вчера"}
		]}`,
	}}
	p := newTestProvider(t, fake)

	deals, err := p.ListDeals(context.Background(), 501, false)
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, int64(1), deals[0].ID)

	filter := fake.calls[0].Body["filter"].(map[string]interface{})
	assert.Equal(t, "N", filter["CLOSED"])
	assert.Equal(t, float64(501), filter["CONTACT_ID"])
}

func TestCreateDeal_StageForCategory(t *testing.T) {
	fake := &fakeBitrix{responses: map[string]string{"crm.deal.add": `{"result": "44"}`}}
	p := newTestProvider(t, fake)

	contactID := int64(501)
	id, err := p.CreateDeal(context.Background(), internalDTO.CRMDealCreateDTO{Title: "Долг", CategoryID: "1", ContactID: &contactID})
	require.NoError(t, err)
	assert.Equal(t, int64(44), id)

	fields := fake.calls[0].Body["fields"].(map[string]interface{})
	assert.Equal(t, "C1:NEW", fields["STAGE_ID"])
	assert.Equal(t, float64(501), fields["CONTACT_ID"])
}
