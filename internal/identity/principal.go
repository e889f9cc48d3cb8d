// Package identity carries the authenticated principal across service
// boundaries. The gateway sets X-Auth-User and X-Auth-Roles; every service
// lifts them into the request context and forwards them on outbound calls.
package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HeaderUser  = "X-Auth-User"
	HeaderRoles = "X-Auth-Roles"
)

type Principal struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// FromHeaders returns the principal described by h, if any.
func FromHeaders(h http.Header) (Principal, bool) {
	subject := strings.TrimSpace(h.Get(HeaderUser))
	if subject == "" {
		return Principal{}, false
	}

	var roles []string
	for _, r := range strings.Split(h.Get(HeaderRoles), ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return Principal{Subject: subject, Roles: roles}, true
}

// Inject copies the principal in ctx onto outbound headers.
func Inject(ctx context.Context, h http.Header) {
	p, ok := FromContext(ctx)
	if !ok {
		return
	}
	h.Set(HeaderUser, p.Subject)
	if len(p.Roles) > 0 {
		h.Set(HeaderRoles, strings.Join(p.Roles, ","))
	}
}

// Middleware lifts the forwarded principal into the request context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := FromHeaders(c.Request.Header); ok {
			c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		}
		c.Next()
	}
}
