package dto

import "time"

const (
	AppealTypeDebtor  = "DEBTOR"
	AppealTypeGeneral = "GENERAL"
)

type StageStyleDTO struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type StageDTO struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Style StageStyleDTO `json:"style"`
}

type DealDTO struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	StageID     string        `json:"stage_id"`
	StageName   string        `json:"stage_name"`
	StageStyle  StageStyleDTO `json:"stage_style"`
	Opportunity float64       `json:"opportunity"`
	Comments    string        `json:"comments,omitempty"`
	CreatedAt   *time.Time    `json:"created_at"`
}

type FileDTO struct {
	Name          string `json:"name" validate:"required,max=255"`
	ContentBase64 string `json:"content_base64" validate:"required,min=10,base64"`
}

type CreateAppealDTO struct {
	AppealType string    `json:"appeal_type" validate:"required,oneof=DEBTOR GENERAL"`
	Title      string    `json:"title" validate:"required,min=3,max=255"`
	Comment    string    `json:"comment" validate:"required,min=10"`
	Files      []FileDTO `json:"files" validate:"omitempty,dive"`
}

type AppealCreatedDTO struct {
	DealID     int64 `json:"deal_id"`
	ActivityID int64 `json:"activity_id,omitempty"`
}

type AddActivityDTO struct {
	DealID  int64     `json:"deal_id" validate:"required,gt=0"`
	Comment string    `json:"comment" validate:"omitempty,max=5000"`
	Files   []FileDTO `json:"files" validate:"omitempty,dive"`
}

type ActivityDTO struct {
	ID          int64      `json:"id"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	AuthorID    int64      `json:"author_id"`
	Completed   bool       `json:"completed"`
	CreatedAt   *time.Time `json:"created_at"`
	Files       []string   `json:"files,omitempty"`
}
