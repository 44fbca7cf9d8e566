// Файл: pkg/utils/context_utils.go

package utils

import (
	"context"

	"bip-api/internal/dto"
	"bip-api/pkg/contextkeys"
	apperrors "bip-api/pkg/errors"
)

func GetClaimsFromContext(ctx context.Context) (*dto.SessionClaims, error) {
	claims, ok := ctx.Value(contextkeys.UserClaimsKey).(*dto.SessionClaims)
	if !ok || claims == nil {
		return nil, apperrors.ErrClaimsNotFoundInContext
	}
	return claims, nil
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrClaimsNotFoundInContext
	}
	return userID, nil
}

func ContextWithClaims(ctx context.Context, claims *dto.SessionClaims) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserClaimsKey, claims)
	return context.WithValue(ctx, contextkeys.UserIDKey, claims.UserID)
}
