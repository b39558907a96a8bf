package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/auth"
	"github.com/dmitrijs2005/gophshop/internal/server/graphql"
)

// Authenticator resolves a session token to a user id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// cookieJar writes session cookie changes straight onto the response.
type cookieJar struct {
	w      http.ResponseWriter
	secure bool
}

func (j *cookieJar) SetSession(token string) {
	http.SetCookie(j.w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(common.SessionCookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j *cookieJar) ClearSession() {
	http.SetCookie(j.w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionMiddleware reads the token cookie and stores the resolved user in
// the request context. A bad or missing token leaves the request anonymous.
func sessionMiddleware(a Authenticator, secure bool, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var session auth.Session
			if c, err := r.Cookie(common.SessionCookieName); err == nil && c.Value != "" {
				userID, err := a.Authenticate(c.Value)
				if err != nil {
					logger.Debug(ctx, "ignoring invalid session cookie", "error", err)
				} else {
					session.UserID = userID
				}
			}

			ctx = auth.WithSession(ctx, session)
			ctx = graphql.WithCookieJar(ctx, &cookieJar{w: w, secure: secure})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
