package middleware

import (
	"net/http"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/handlers/render"
)

const AdminCheckPath = "/me/admin"

// statusWriter remembers response status and drops the body
type statusWriter struct {
	header http.Header
	status int
}

func (w *statusWriter) Header() http.Header {
	return w.header
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return len(p), nil
}

func (w *statusWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
}

// AdminMiddleware asks adminCheck (the GET /me/admin handler) whether request's bearer belongs to an admin.
// Only Authorization header of the original request is passed to the check.
// Request is forwarded on 200, any other answer is 401.
func AdminMiddleware(adminCheck http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			check, err := http.NewRequestWithContext(r.Context(), http.MethodGet, AdminCheckPath, nil)
			if err != nil {
				render.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if auth := r.Header.Get("Authorization"); auth != "" {
				check.Header.Set("Authorization", auth)
			}

			sw := &statusWriter{header: make(http.Header)}
			adminCheck.ServeHTTP(sw, check)

			if sw.status != http.StatusOK {
				render.Error(w, apperrors.ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
