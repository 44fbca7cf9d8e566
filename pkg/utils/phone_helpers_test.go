package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRussianPhoneNumber(t *testing.T) {
	valid := map[string]string{
		"+7 (912) 345-67-89": "+79123456789",
		"89123456789":        "+79123456789",
		"79123456789":        "+79123456789",
		"9123456789":         "+79123456789",
		"8-912-345-67-89":    "+79123456789",
	}
	for in, want := range valid {
		got, err := NormalizeRussianPhoneNumber(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "12345", "59123456789", "+1 912 345 67 890", "912345678"} {
		_, err := NormalizeRussianPhoneNumber(in)
		assert.ErrorIs(t, err, ErrInvalidPhone, in)
	}
}

func TestNormalizeRussianPhoneNumber_Idempotent(t *testing.T) {
	first, err := NormalizeRussianPhoneNumber("8 (912) 345 67 89")
	require.NoError(t, err)
	second, err := NormalizeRussianPhoneNumber(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
