package auth

import (
	"context"
	"errors"
	"fmt"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxCompanyID
	ctxRole
)

var ErrNoIdentity = errors.New("auth: no identity in context")

func WithIdentity(ctx context.Context, userID, companyID int64, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxCompanyID, companyID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func UserID(ctx context.Context) (int64, error) {
	if id, ok := ctx.Value(ctxUserID).(int64); ok && id > 0 {
		return id, nil
	}
	return 0, fmt.Errorf("%w: user_id not in context", ErrNoIdentity)
}

func CompanyID(ctx context.Context) (int64, error) {
	if id, ok := ctx.Value(ctxCompanyID).(int64); ok && id > 0 {
		return id, nil
	}
	return 0, fmt.Errorf("%w: company_id not in context", ErrNoIdentity)
}

func Role(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxRole).(string); ok && s != "" {
		return s, nil
	}
	return "", fmt.Errorf("%w: role not in context", ErrNoIdentity)
}
