package graphql

import "context"

// CookieJar receives session cookie changes made while resolving a request.
// The HTTP layer implements it on top of the response.
type CookieJar interface {
	SetSession(token string)
	ClearSession()
}

type cookieJarKey struct{}

func WithCookieJar(ctx context.Context, jar CookieJar) context.Context {
	return context.WithValue(ctx, cookieJarKey{}, jar)
}

func cookieJarFrom(ctx context.Context) CookieJar {
	if jar, ok := ctx.Value(cookieJarKey{}).(CookieJar); ok {
		return jar
	}
	return discardJar{}
}

type discardJar struct{}

func (discardJar) SetSession(string) {}
func (discardJar) ClearSession()     {}
