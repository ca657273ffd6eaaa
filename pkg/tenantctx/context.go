// Package tenantctx carries the tenant scope through request contexts.
package tenantctx

import "context"

type keyType string

const (
	TenantIDKey keyType = "tenant_id"
)

func WithTenantID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, TenantIDKey, id)
}

func TenantID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(TenantIDKey).(int64)
	return id, ok
}
