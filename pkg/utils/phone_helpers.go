package utils

import (
	"errors"
	"regexp"
)

var (
	nonDigitRegexp    = regexp.MustCompile(`\D`)
	russianPhoneRegex = regexp.MustCompile(`^[78]?\d{10}$`)
)

var ErrInvalidPhone = errors.New("неверный формат номера телефона")

// NormalizeRussianPhoneNumber принимает 10 цифр либо 11 цифр с первой 7 или 8
// (любые разделители отбрасываются) и возвращает номер в виде +7XXXXXXXXXX.
func NormalizeRussianPhoneNumber(phone string) (string, error) {
	digitsOnly := nonDigitRegexp.ReplaceAllString(phone, "")
	if !russianPhoneRegex.MatchString(digitsOnly) {
		return "", ErrInvalidPhone
	}
	return "+7" + digitsOnly[len(digitsOnly)-10:], nil
}
