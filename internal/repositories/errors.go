package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "bip-api/pkg/errors"
)

const pgUniqueViolation = "23505"

// Сообщения для нарушений уникальности, которые ожидаемы при гонке регистраций.
var uniqueConstraintMessages = map[string]string{
	"users_phone_key":                 "Пользователь с таким номером телефона уже существует",
	"users_email_key":                 "Пользователь с таким email уже существует",
	"companies_inn_key":               "Компания с таким ИНН уже зарегистрирована",
	"companies_invite_token_key":      "Токен приглашения уже используется",
	"departments_company_id_name_key": "Отдел с таким названием уже существует",
}

// mapWriteError превращает нарушение уникальности в ошибку конфликта,
// остальные ошибки записи - в ошибку хранилища.
func mapWriteError(err error, operation string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if msg, ok := uniqueConstraintMessages[pgErr.ConstraintName]; ok {
			return apperrors.NewConflictError(msg, err)
		}
		return apperrors.NewConflictError("Запись с такими данными уже существует", err)
	}
	return apperrors.NewStoreError("Ошибка сохранения данных", errors.Join(errors.New(operation), err))
}
