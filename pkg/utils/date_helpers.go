package utils

import (
	"fmt"
	"strings"
	"time"
)

var birthdateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	time.RFC3339,
}

// ParseBirthdate разбирает дату рождения в одном из принятых форматов.
// Дата не может быть в будущем.
func ParseBirthdate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range birthdateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			if t.After(time.Now()) {
				return time.Time{}, fmt.Errorf("дата рождения %q в будущем", value)
			}
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("неверный формат даты рождения: %q", value)
}
