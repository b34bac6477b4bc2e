package utils

import (
	"context"

	"github.com/grcsuite/auditoria_backend/appctx"
)

var (
	ContextKeyToken           = appctx.ContextKeyToken
	ContextKeyUserId          = appctx.ContextKeyUserId
	ContextKeyUserName        = appctx.ContextKeyUserName
	ContextKeyUsername        = appctx.ContextKeyUsername
	ContextKeyRoleId          = appctx.ContextKeyRoleId
	ContextKeyCorrelationId   = appctx.ContextKeyCorrelationId
	ContextKeyIsAdmin         = appctx.ContextKeyIsAdmin
	ContextKeyIncludeInactive = appctx.ContextKeyIncludeInactive
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyUserId)
}

func GetUserNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserName)
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUsername)
}

func GetRoleIdFromContext(ctx context.Context) (int, bool) {
	return appctx.GetInt(ctx, ContextKeyRoleId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetIsAdminFromContext(ctx context.Context) (bool, bool) {
	return appctx.GetBool(ctx, ContextKeyIsAdmin)
}

func GetIncludeInactiveFromContext(ctx context.Context) bool {
	v, ok := appctx.GetBool(ctx, ContextKeyIncludeInactive)
	return ok && v
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetUserNameInContext(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, ContextKeyUserName, userName)
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return appctx.Set(ctx, ContextKeyUsername, username)
}

func SetRoleIdInContext(ctx context.Context, roleId int) context.Context {
	return appctx.Set(ctx, ContextKeyRoleId, roleId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetIsAdminInContext(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, ContextKeyIsAdmin, isAdmin)
}

func SetIncludeInactiveInContext(ctx context.Context, include bool) context.Context {
	return appctx.Set(ctx, ContextKeyIncludeInactive, include)
}
