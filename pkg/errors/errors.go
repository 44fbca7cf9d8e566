package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind - машинно-проверяемая категория ошибки, которую видит клиент.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindTooManyRequests Kind = "too_many_requests"
	KindUpstream        Kind = "upstream_error"
	KindInternal        Kind = "internal_error"
)

// HttpError несёт HTTP-код, категорию и пользовательское сообщение.
// Err и Context попадают только в лог, клиенту не отдаются.
type HttpError struct {
	Code    int
	Kind    Kind
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду и сообщению, чтобы обёрнутые копии сентинелов
// находились через errors.Is.
func (e *HttpError) Is(target error) bool {
	t, ok := target.(*HttpError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind && e.Message == t.Message
}

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{
		Code:    code,
		Kind:    kindFromCode(code),
		Message: message,
		Err:     err,
		Context: context,
	}
}

func kindFromCode(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindTooManyRequests
	default:
		return KindInternal
	}
}

func NewBadRequestError(message string) *HttpError {
	return NewHttpError(http.StatusBadRequest, message, nil, nil)
}

func NewConflictError(message string, err error) *HttpError {
	return NewHttpError(http.StatusConflict, message, err, nil)
}

func NewNotFoundError(message string) *HttpError {
	return NewHttpError(http.StatusNotFound, message, nil, nil)
}

func NewForbiddenError(message string) *HttpError {
	return NewHttpError(http.StatusForbidden, message, nil, nil)
}

// NewUpstreamError - ошибка внешней CRM. Отдаётся как 500, но с отдельной категорией.
func NewUpstreamError(message string, err error) *HttpError {
	httpErr := NewHttpError(http.StatusInternalServerError, message, err, nil)
	httpErr.Kind = KindUpstream
	return httpErr
}

// NewStoreError - ошибка хранилища (соединение, непредвиденное нарушение ограничения).
func NewStoreError(message string, err error) *HttpError {
	return NewHttpError(http.StatusInternalServerError, message, err, nil)
}

// KindOf возвращает категорию ошибки. Всё, что не HttpError, считается внутренней ошибкой.
func KindOf(err error) Kind {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Kind
	}
	return KindInternal
}

var (
	// JWT и токены
	ErrInvalidToken  = NewHttpError(http.StatusUnauthorized, "Недопустимый токен", nil, nil)
	ErrTokenExpired  = NewHttpError(http.StatusUnauthorized, "Срок действия токена истёк", nil, nil)
	ErrTokenNotFound = NewHttpError(http.StatusUnauthorized, "Токен не предоставлен", nil, nil)

	// Авторизация
	ErrInvalidCredentials = NewHttpError(http.StatusUnauthorized, "Неверный логин или пароль", nil, nil)
	ErrUnauthorized       = NewHttpError(http.StatusUnauthorized, "Неавторизован", nil, nil)
	ErrForbidden          = NewHttpError(http.StatusForbidden, "Доступ запрещён", nil, nil)
	ErrAccountLocked      = NewHttpError(http.StatusTooManyRequests, "Слишком много неудачных попыток входа. Попробуйте позже", nil, nil)

	// Контекст
	ErrClaimsNotFoundInContext = NewHttpError(http.StatusUnauthorized, "Данные сессии не найдены в контексте запроса", nil, nil)

	// Общие
	ErrNotFound        = NewHttpError(http.StatusNotFound, "Запись не найдена", nil, nil)
	ErrUserNotFound    = NewHttpError(http.StatusNotFound, "Пользователь не найден", nil, nil)
	ErrCompanyNotFound = NewHttpError(http.StatusNotFound, "Компания не найдена", nil, nil)
	ErrBadRequest      = NewHttpError(http.StatusBadRequest, "Неверный запрос", nil, nil)
)
