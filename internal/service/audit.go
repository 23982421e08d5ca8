package service

import (
	"context"

	"github.com/geocoder89/eventsapp/internal/actorctx"
)

// audit appends the acting user, when the request carried one.
func audit(ctx context.Context, attrs ...any) []any {
	if actorID, ok := actorctx.UserIDFrom(ctx); ok {
		return append(attrs, "actor_id", actorID)
	}
	return attrs
}
