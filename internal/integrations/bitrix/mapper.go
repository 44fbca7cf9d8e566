package bitrix

import (
	"fmt"
	"strconv"
	"time"

	internalDTO "bip-api/internal/integrations/dto"
)

const bitrixDateLayout = "2006-01-02"

func parseBitrixTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// mapDealToInternal переводит сделку из ответа Bitrix во внутренний DTO.
func mapDealToInternal(ext dealItem) (internalDTO.CRMDealDTO, error) {
	createdAt, err := parseBitrixTime(ext.DateCreate)
	if err != nil {
		return internalDTO.CRMDealDTO{}, fmt.Errorf("неверный формат даты для сделки ID %d: %w", ext.ID, err)
	}
	return internalDTO.CRMDealDTO{
		ID:          int64(ext.ID),
		Title:       ext.Title,
		StageID:     ext.StageID,
		CategoryID:  strconv.FormatInt(int64(ext.CategoryID), 10),
		Opportunity: float64(ext.Opportunity),
		ContactID:   ext.ContactID.ptr(),
		CompanyID:   ext.CompanyID.ptr(),
		Comments:    ext.Comments,
		Closed:      ext.Closed == "Y",
		CreatedAt:   createdAt,
	}, nil
}

func mapActivityToInternal(ext activityItem) (internalDTO.CRMActivityDTO, error) {
	createdAt, err := parseBitrixTime(ext.Created)
	if err != nil {
		return internalDTO.CRMActivityDTO{}, fmt.Errorf("неверный формат даты для активности ID %d: %w", ext.ID, err)
	}

	description := ext.Description
	if len(ext.Communications) > 0 && ext.Communications[0].Value != "" {
		description = ext.Communications[0].Value
	}

	files := make([]internalDTO.CRMFileDTO, 0, len(ext.Files))
	for _, f := range ext.Files {
		files = append(files, internalDTO.CRMFileDTO{
			Name: fmt.Sprintf("file_%d", f.ID),
			URL:  f.URL,
		})
	}

	return internalDTO.CRMActivityDTO{
		ID:          int64(ext.ID),
		Subject:     ext.Subject,
		Description: description,
		AuthorID:    int64(ext.AuthorID),
		Completed:   ext.Completed == "Y",
		CreatedAt:   createdAt,
		Files:       files,
	}, nil
}

func contactFields(contact internalDTO.CRMContactDTO) map[string]interface{} {
	fields := map[string]interface{}{
		"NAME":        contact.FirstName,
		"SECOND_NAME": contact.SecondName,
		"LAST_NAME":   contact.LastName,
		"OPENED":      "Y",
		"TYPE_ID":     "CLIENT",
	}
	if contact.Birthdate != nil {
		fields["BIRTHDATE"] = contact.Birthdate.Format(bitrixDateLayout)
	}
	if phone := workField(contact.Phone); phone != nil {
		fields["PHONE"] = phone
	}
	if email := workField(contact.Email); email != nil {
		fields["EMAIL"] = email
	}
	if contact.CompanyID != nil {
		fields["COMPANY_ID"] = *contact.CompanyID
	}
	return fields
}

func companyFields(company internalDTO.CRMCompanyDTO) map[string]interface{} {
	fields := map[string]interface{}{
		"TITLE":  company.Title,
		"OPENED": "Y",
	}
	if phone := workField(company.Phone); phone != nil {
		fields["PHONE"] = phone
	}
	if email := workField(company.Email); email != nil {
		fields["EMAIL"] = email
	}
	return fields
}

func requisiteFields(requisite internalDTO.CRMRequisiteDTO) map[string]interface{} {
	return map[string]interface{}{
		"ENTITY_TYPE_ID":       "4",
		"ENTITY_ID":            requisite.CompanyID,
		"PRESET_ID":            "1",
		"NAME":                 "Реквизиты " + requisite.Name,
		"ACTIVE":               "Y",
		"RQ_INN":               requisite.INN,
		"RQ_COMPANY_NAME":      requisite.Name,
		"RQ_COMPANY_FULL_NAME": requisite.Name,
	}
}

func activityFields(activity internalDTO.CRMActivityCreateDTO) map[string]interface{} {
	fields := map[string]interface{}{
		"OWNER_TYPE_ID":  ownerTypeDeal,
		"OWNER_ID":       activity.DealID,
		"TYPE_ID":        activityTypeComment,
		"SUBJECT":        activity.Subject,
		"DESCRIPTION":    activity.Comment,
		"COMMUNICATIONS": []map[string]interface{}{{"VALUE": activity.Comment, "ENTITY_TYPE_ID": ownerTypeDeal}},
		"COMPLETED":      "Y",
	}
	if activity.AuthorID != 0 {
		fields["AUTHOR_ID"] = activity.AuthorID
	}
	if len(activity.Files) > 0 {
		files := make([]map[string]interface{}, 0, len(activity.Files))
		for _, f := range activity.Files {
			files = append(files, map[string]interface{}{
				"fileData": []string{f.Name, f.ContentBase64},
			})
		}
		fields["FILES"] = files
	}
	return fields
}
