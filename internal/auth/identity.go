package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
)

const identityKey = "auth_identity"

type contextKey struct {
	name string
}

var identityCtxKey = &contextKey{"identity"}

// ErrIdentityAlreadySet is returned when a request identity is assigned twice.
var ErrIdentityAlreadySet = errors.New("request identity already set")

// RequestIdentity carries the user resolved for exactly one request. A fresh value is
// created for every request; it must never be stored beyond the request lifetime.
type RequestIdentity struct {
	user *domain.User
}

// NewRequestIdentity returns an anonymous identity.
func NewRequestIdentity() *RequestIdentity {
	return &RequestIdentity{}
}

// SetIdentity records the resolved user. It may be called once.
func (ri *RequestIdentity) SetIdentity(user *domain.User) error {
	if user == nil {
		return errors.New("request identity requires a user")
	}
	if ri.user != nil {
		return ErrIdentityAlreadySet
	}
	ri.user = user
	return nil
}

// Identity returns the resolved user, if any.
func (ri *RequestIdentity) Identity() (*domain.User, bool) {
	if ri == nil || ri.user == nil {
		return nil, false
	}
	return ri.user, true
}

// IsAuthenticated reports whether a user was resolved for the request.
func (ri *RequestIdentity) IsAuthenticated() bool {
	_, ok := ri.Identity()
	return ok
}

// WithIdentity stores the request identity in ctx.
func WithIdentity(ctx context.Context, ri *RequestIdentity) context.Context {
	return context.WithValue(ctx, identityCtxKey, ri)
}

// IdentityFromContext returns the request identity carried by ctx, or an anonymous one.
func IdentityFromContext(ctx context.Context) *RequestIdentity {
	if ri, ok := ctx.Value(identityCtxKey).(*RequestIdentity); ok && ri != nil {
		return ri
	}
	return NewRequestIdentity()
}

// IdentityFrom returns the identity the gate bound to this request, or an anonymous one
// when the gate did not run.
func IdentityFrom(c *fiber.Ctx) *RequestIdentity {
	if ri, ok := c.Locals(identityKey).(*RequestIdentity); ok && ri != nil {
		return ri
	}
	return NewRequestIdentity()
}

// CurrentUser returns the authenticated user of the request.
func CurrentUser(c *fiber.Ctx) (*domain.User, bool) {
	return IdentityFrom(c).Identity()
}

func bindIdentity(c *fiber.Ctx) *RequestIdentity {
	ri := NewRequestIdentity()
	c.Locals(identityKey, ri)
	c.SetUserContext(WithIdentity(c.UserContext(), ri))
	return ri
}
