package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const editorKey contextKey = "editor"

// AuthMiddleware requires a bearer token on every request.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
			return
		}

		editor, err := s.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithEditor(r.Context(), editor)))
	})
}

func WithEditor(ctx context.Context, e *Editor) context.Context {
	return context.WithValue(ctx, editorKey, e)
}

// EditorFromContext returns the authenticated editor, or nil.
func EditorFromContext(ctx context.Context) *Editor {
	e, _ := ctx.Value(editorKey).(*Editor)
	return e
}
