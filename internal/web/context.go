package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/lineowners/internal/logging"
	"github.com/JonMunkholm/lineowners/internal/session"
)

type ctxKey int

const sessionCtxKey ctxKey = iota

// errNoSession is a programming error: a handler that needs a session was
// mounted outside the session middleware.
var errNoSession = errors.New("no session in request context")

// withSession attaches the browser's session, creating one and setting the
// cookie when the request has none or an expired one.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			id = c.Value
		}

		sess, created, err := s.sessions.GetOrCreate(id)
		if err != nil {
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey, sess)
		ctx = logging.WithSession(ctx, sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session attached by withSession.
func sessionFrom(ctx context.Context) (*session.Session, error) {
	sess, ok := ctx.Value(sessionCtxKey).(*session.Session)
	if !ok {
		return nil, errNoSession
	}
	return sess, nil
}
