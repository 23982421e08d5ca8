package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// ForbiddenError names the caller's role and the roles that would have passed.
type ForbiddenError struct {
	Role    Role
	Allowed []Role
}

func (e *ForbiddenError) Error() string {
	names := make([]string, 0, len(e.Allowed))
	for _, r := range e.Allowed {
		names = append(names, string(r))
	}

	return fmt.Sprintf("Role %q is not allowed to access this resource; allowed roles: %s", string(e.Role), strings.Join(names, ", "))
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// Policy is the set of roles permitted on one operation. An empty policy admits
// any authenticated identity.
type Policy struct {
	Roles []Role
}

func Allow(roles ...Role) Policy {
	return Policy{Roles: roles}
}

// AnyAuthenticated admits every verified identity.
func AnyAuthenticated() Policy {
	return Policy{}
}

func (p Policy) Permits(role Role) bool {
	if len(p.Roles) == 0 {
		return true
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize evaluates the policy against the identity attached to a request,
// nil meaning no identity was attached.
func (p Policy) Authorize(id *Identity) error {
	if id == nil || id.UserID == "" {
		return ErrUnauthenticated
	}

	if !p.Permits(id.Role) {
		return &ForbiddenError{Role: id.Role, Allowed: p.Roles}
	}

	return nil
}
