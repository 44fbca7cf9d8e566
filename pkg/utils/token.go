package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const inviteTokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateInviteToken возвращает случайную строку из латинских букв и цифр.
func GenerateInviteToken(length int) (string, error) {
	max := big.NewInt(int64(len(inviteTokenAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("не удалось сгенерировать токен приглашения: %w", err)
		}
		buf[i] = inviteTokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
