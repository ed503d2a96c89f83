package upstream

import (
	"context"
	"strings"

	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

// CredentialProvider supplies the bearer token forwarded to the asset service.
// The token is opaque to the gateway.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always returns the same token. Used by the CLI.
type StaticToken string

// Token implements CredentialProvider.
func (t StaticToken) Token(context.Context) (string, error) {
	token := strings.TrimSpace(string(t))
	if token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing access token")
	}
	return token, nil
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token attached with WithToken.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// ForwardedToken forwards the token of the request being served.
type ForwardedToken struct{}

// Token implements CredentialProvider.
func (ForwardedToken) Token(ctx context.Context) (string, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "missing access token")
	}
	return token, nil
}
