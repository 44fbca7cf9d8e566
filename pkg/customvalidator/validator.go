// Файл: pkg/customvalidator/validators.go

package customvalidator

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"bip-api/pkg/constants"
	"bip-api/pkg/utils"
)

var (
	emailRegex        = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	innRegex          = regexp.MustCompile(`^\d{10}$|^\d{12}$`)
	companyTokenRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// RegisterCustomValidations регистрирует правила проекта в экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"email":         isGoodEmailFormat,
		"ru_phone":      isRussianPhoneNumber,
		"inn":           isValidINN,
		"birthdate":     isValidBirthdate,
		"company_token": isCompanyToken,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

func isRussianPhoneNumber(fl validator.FieldLevel) bool {
	_, err := utils.NormalizeRussianPhoneNumber(fl.Field().String())
	return err == nil
}

// ИНН юрлица - 10 цифр, ИП - 12.
func isValidINN(fl validator.FieldLevel) bool {
	return innRegex.MatchString(fl.Field().String())
}

func isValidBirthdate(fl validator.FieldLevel) bool {
	_, err := utils.ParseBirthdate(fl.Field().String())
	return err == nil
}

func isCompanyToken(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) == constants.InviteTokenLength && companyTokenRegex.MatchString(s)
}
