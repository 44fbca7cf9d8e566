// Файл: internal/integrations/dto/crm.go
package dto

import "time"

// Внутренние DTO для обмена с CRM. Не зависят от формата конкретного провайдера.

type CRMContactDTO struct {
	FirstName  string
	SecondName string
	LastName   string
	Birthdate  *time.Time
	Phone      string
	Email      string
	CompanyID  *int64
}

type CRMCompanyDTO struct {
	Title string
	Phone string
	Email string
}

type CRMRequisiteDTO struct {
	CompanyID int64
	INN       string
	Name      string
}

type CRMDealDTO struct {
	ID          int64
	Title       string
	StageID     string
	CategoryID  string
	Opportunity float64
	ContactID   *int64
	CompanyID   *int64
	Comments    string
	Closed      bool
	CreatedAt   *time.Time
}

type CRMDealCreateDTO struct {
	Title      string
	CategoryID string
	ContactID  *int64
	CompanyID  *int64
	Comments   string
}

type CRMStageDTO struct {
	ID       string
	Name     string
	EntityID string
}

type CRMFileDTO struct {
	Name          string
	URL           string
	ContentBase64 string
}

type CRMActivityDTO struct {
	ID          int64
	Subject     string
	Description string
	AuthorID    int64
	Completed   bool
	CreatedAt   *time.Time
	Files       []CRMFileDTO
}

type CRMActivityCreateDTO struct {
	DealID   int64
	Subject  string
	Comment  string
	AuthorID int64
	Files    []CRMFileDTO
}
