package httpx

import "context"

type ctxKey string

const (
	CtxKeyPrincipal ctxKey = "principal"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	Subject string // user email
	Role    string
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, CtxKeyPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(Principal)
	return p, ok
}
