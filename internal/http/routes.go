package http

import (
	nethttp "net/http"

	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Route declares one endpoint and who may call it. Public routes skip
// authentication; for the rest an empty Roles list means any authenticated caller.
type Route struct {
	Method  string
	Path    string
	Public  bool
	Roles   []auth.Role
	Handler gin.HandlerFunc
}

type RouteTable []Route

// Lookup finds the policy for a method and gin route template.
func (t RouteTable) Lookup(method, path string) (auth.Policy, bool) {
	for _, r := range t {
		if r.Method == method && r.Path == path && !r.Public {
			return auth.Allow(r.Roles...), true
		}
	}
	return auth.Policy{}, false
}

type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UsersHandler
	Events        *handlers.EventsHandler
	Registrations *handlers.RegistrationHandler
}

var (
	adminOnly  = []auth.Role{auth.RoleAdmin}
	staff      = []auth.Role{auth.RoleAdmin, auth.RoleOrganizer}
	everyone   = []auth.Role{auth.RoleAdmin, auth.RoleOrganizer, auth.RoleAttendee}
	anyoneAuth []auth.Role
)

// Routes is the single place endpoint permissions are declared.
func Routes(h Handlers) RouteTable {
	return RouteTable{
		{Method: nethttp.MethodPost, Path: "/auth/register", Public: true, Handler: h.Auth.Register},
		{Method: nethttp.MethodPost, Path: "/auth/login", Public: true, Handler: h.Auth.Login},
		{Method: nethttp.MethodGet, Path: "/auth/profile", Roles: anyoneAuth, Handler: h.Auth.Profile},

		{Method: nethttp.MethodGet, Path: "/users", Roles: adminOnly, Handler: h.Users.List},
		{Method: nethttp.MethodPost, Path: "/users", Roles: adminOnly, Handler: h.Users.Create},
		{Method: nethttp.MethodGet, Path: "/users/:id", Roles: adminOnly, Handler: h.Users.Get},
		{Method: nethttp.MethodPut, Path: "/users/:id", Roles: adminOnly, Handler: h.Users.Update},
		{Method: nethttp.MethodDelete, Path: "/users/:id", Roles: adminOnly, Handler: h.Users.Delete},

		{Method: nethttp.MethodGet, Path: "/eventsapp", Roles: everyone, Handler: h.Events.ListEvents},
		{Method: nethttp.MethodPost, Path: "/eventsapp", Roles: staff, Handler: h.Events.CreateEvent},
		{Method: nethttp.MethodGet, Path: "/eventsapp/:id", Roles: everyone, Handler: h.Events.GetEventByID},
		{Method: nethttp.MethodPut, Path: "/eventsapp/:id", Roles: staff, Handler: h.Events.UpdateEvent},
		{Method: nethttp.MethodDelete, Path: "/eventsapp/:id", Roles: adminOnly, Handler: h.Events.DeleteEvent},

		{Method: nethttp.MethodGet, Path: "/registrations", Roles: everyone, Handler: h.Registrations.List},
		{Method: nethttp.MethodPost, Path: "/registrations", Roles: staff, Handler: h.Registrations.Create},
		{Method: nethttp.MethodGet, Path: "/registrations/:id", Roles: everyone, Handler: h.Registrations.Get},
		{Method: nethttp.MethodPut, Path: "/registrations/:id", Roles: staff, Handler: h.Registrations.Update},
		{Method: nethttp.MethodDelete, Path: "/registrations/:id", Roles: adminOnly, Handler: h.Registrations.Delete},
	}
}
