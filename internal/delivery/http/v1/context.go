package v1

import (
	"context"

	"exec-marketplace-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// requestContext carries the authenticated viewer identity from gin's
// per-request store into the context the usecases consume. Anonymous
// requests yield a context with no viewer keys set.
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if v := c.GetString(string(domain.KeyViewerID)); v != "" {
		ctx = context.WithValue(ctx, domain.KeyViewerID, v)
	}
	if v := c.GetString(string(domain.KeyViewerRole)); v != "" {
		ctx = context.WithValue(ctx, domain.KeyViewerRole, v)
	}
	if v := c.GetString(string(domain.KeyPlanTier)); v != "" {
		ctx = context.WithValue(ctx, domain.KeyPlanTier, v)
	}
	return ctx
}
