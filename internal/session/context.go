package session

import (
	"context"
	"net/http"
)

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}

// Middleware attaches the caller's session to the request context,
// creating one on first contact.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s, _ := r.Ensure(w, req)
		next.ServeHTTP(w, req.WithContext(NewContext(req.Context(), s)))
	})
}
