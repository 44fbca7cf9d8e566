package bitrix

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// responseEnvelope - общий вид ответа REST API Bitrix24.
type responseEnvelope struct {
	Result           json.RawMessage `json:"result"`
	Total            int             `json:"total"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// flexInt64 читает число, которое Bitrix отдаёт то строкой, то числом.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt64(v)
	return nil
}

func (f flexInt64) ptr() *int64 {
	if f == 0 {
		return nil
	}
	v := int64(f)
	return &v
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// multiField - формат PHONE/EMAIL в контактах и компаниях.
type multiField struct {
	Value     string `json:"VALUE"`
	ValueType string `json:"VALUE_TYPE"`
}

func workField(value string) []multiField {
	if value == "" {
		return nil
	}
	return []multiField{{Value: value, ValueType: "WORK"}}
}

type contactListItem struct {
	ID flexInt64 `json:"ID"`
}

type dealItem struct {
	ID          flexInt64 `json:"ID"`
	Title       string    `json:"TITLE"`
	StageID     string    `json:"STAGE_ID"`
	CategoryID  flexInt64 `json:"CATEGORY_ID"`
	Opportunity flexFloat `json:"OPPORTUNITY"`
	ContactID   flexInt64 `json:"CONTACT_ID"`
	CompanyID   flexInt64 `json:"COMPANY_ID"`
	Comments    string    `json:"COMMENTS"`
	Closed      string    `json:"CLOSED"`
	DateCreate  string    `json:"DATE_CREATE"`
}

type statusItem struct {
	StatusID string `json:"STATUS_ID"`
	Name     string `json:"NAME"`
	EntityID string `json:"ENTITY_ID"`
}

type activityFile struct {
	ID  flexInt64 `json:"id"`
	URL string    `json:"url"`
}

type activityCommunication struct {
	Value string `json:"VALUE"`
}

type activityItem struct {
	ID             flexInt64               `json:"ID"`
	Subject        string                  `json:"SUBJECT"`
	Description    string                  `json:"DESCRIPTION"`
	AuthorID       flexInt64               `json:"AUTHOR_ID"`
	Completed      string                  `json:"COMPLETED"`
	Created        string                  `json:"CREATED"`
	Files          []activityFile          `json:"FILES"`
	Communications []activityCommunication `json:"COMMUNICATIONS"`
}
