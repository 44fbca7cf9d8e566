package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// APIError - ошибка, которую вернул сам Bitrix24 (или не-2xx статус).
type APIError struct {
	Method      string
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("bitrix %s: статус %d: %s", e.Method, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("bitrix %s: статус %d", e.Method, e.StatusCode)
}

// IsNotFound - Bitrix сообщает об отсутствии сущности текстом в error_description.
func (e *APIError) IsNotFound() bool {
	return e.Code == "NOT_FOUND" || strings.Contains(strings.ToLower(e.Description), "not found")
}

// call отправляет POST {baseURL}/{method}.json с JSON-телом и раскладывает
// поле result в out. Адрес содержит токен вебхука, поэтому в лог и в текст
// ошибки попадает только имя метода.
func (p *Provider) call(ctx context.Context, method string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bitrix %s: ошибка сериализации запроса: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+method+".json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bitrix %s: ошибка создания запроса: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		p.logger.Warn("Bitrix недоступен", zap.String("method", method), zap.Error(err))
		return fmt.Errorf("bitrix %s: ошибка выполнения запроса: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("bitrix %s: ошибка чтения ответа: %w", method, err)
	}

	var envelope responseEnvelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &envelope); err != nil && resp.StatusCode == http.StatusOK {
			return fmt.Errorf("bitrix %s: ошибка парсинга JSON: %w", method, err)
		}
	}

	if resp.StatusCode != http.StatusOK || envelope.Error != "" {
		apiErr := &APIError{
			Method:      method,
			StatusCode:  resp.StatusCode,
			Code:        envelope.Error,
			Description: envelope.ErrorDescription,
		}
		p.logger.Warn("Bitrix вернул ошибку",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("error", envelope.Error),
		)
		return apiErr
	}

	p.logger.Debug("Запрос к Bitrix выполнен", zap.String("method", method))

	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return errEmptyResult
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("bitrix %s: ошибка парсинга result: %w", method, err)
	}
	return nil
}

var errEmptyResult = errors.New("пустой result")

const maxResponseSize = 8 << 20
