package middlewares

import (
	"errors"

	"github.com/geocoder89/eventsapp/internal/apperr"
	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/gin-gonic/gin"
)

// PolicyLookup returns the role policy declared for a method and route template.
type PolicyLookup func(method, route string) (auth.Policy, bool)

// AccessObserver is satisfied by *observability.Prom.
type AccessObserver interface {
	ObserveAccess(route, result string)
}

// Authorize is the single role gate for every protected route. It must run
// after RequireAuth. Routes missing from the table are denied.
func Authorize(lookup PolicyLookup, obs AccessObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()

		observe := func(result string) {
			if obs != nil {
				obs.ObserveAccess(route, result)
			}
		}

		policy, ok := lookup(c.Request.Method, route)
		if !ok {
			observe("forbidden")
			abortWith(c, apperr.Forbidden("No access policy for this resource"))
			return
		}

		var idPtr *auth.Identity
		if id, ok := IdentityFrom(c); ok {
			idPtr = &id
		}

		err := policy.Authorize(idPtr)
		switch {
		case err == nil:
			observe("allowed")
			c.Next()
		case errors.Is(err, auth.ErrUnauthenticated):
			observe("unauthenticated")
			abortWith(c, apperr.Unauthenticated("Authentication required").WithCause(err))
		default:
			observe("forbidden")
			abortWith(c, apperr.Forbidden("%s", err.Error()).WithCause(err))
		}
	}
}
